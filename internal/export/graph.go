// Package export writes the class and call graph of a scope to external
// stores.
package export

import (
	"context"
	"sort"

	"dexgraph/internal/core"
	"dexgraph/internal/dump"
)

// Exporter stores a collected graph.
type Exporter interface {
	Export(ctx context.Context, g *Graph) error
	Close(ctx context.Context) error
}

// Graph is a scope flattened into plain rows.
type Graph struct {
	Classes []ClassRow
	Methods []MethodRow
	Fields  []FieldRow
	Calls   []CallRow
}

type ClassRow struct {
	Name       string
	Base       string
	Interfaces []string
	Flags      uint32
	Framework  bool
}

type MethodRow struct {
	Key          string
	Class        string
	Name         string
	Signature    string
	Return       string
	Flags        uint32
	Instructions int
}

type FieldRow struct {
	Class  string
	Name   string
	Type   string
	Static bool
}

// CallRow is one invoke site. Resolved is false for sites that became HALT.
type CallRow struct {
	Caller   string
	Callee   string
	Kind     string
	Index    int
	Resolved bool
}

// MethodKey identifies m across the graph: its rendered signature plus
// the return type, which tells bridge methods apart.
func MethodKey(m *core.MethodNode) string {
	return m.String() + ":" + m.ReturnType().Name()
}

// Collect flattens the classes selected by opts, in dump order.
func Collect(scope *core.Scope, opts dump.Options) *Graph {
	g := &Graph{}
	for _, c := range dump.Classes(scope, opts) {
		row := ClassRow{Name: c.Name(), Flags: uint32(c.AccessFlags()), Framework: c.IsFramework()}
		if b := c.BaseType(); b != nil {
			row.Base = b.Name()
		}
		for _, i := range c.Interfaces() {
			row.Interfaces = append(row.Interfaces, i.Name())
		}
		g.Classes = append(g.Classes, row)

		g.Fields = appendFields(g.Fields, c.Name(), c.Detail().Fields(), false)
		g.Fields = appendFields(g.Fields, c.Name(), c.Detail().StaticFields(), true)

		for _, m := range dump.Methods(c) {
			key := MethodKey(m)
			g.Methods = append(g.Methods, MethodRow{
				Key:          key,
				Class:        c.Name(),
				Name:         m.Name(),
				Signature:    m.Signature().String(),
				Return:       m.ReturnType().Name(),
				Flags:        uint32(m.AccessFlags()),
				Instructions: len(m.Instructions()),
			})
			for i, in := range m.Instructions() {
				ref, _, ok := in.Call()
				if !ok {
					continue
				}
				_, resolved := in.Extra.(core.ResolvedCall)
				g.Calls = append(g.Calls, CallRow{
					Caller:   key,
					Callee:   MethodKey(ref),
					Kind:     in.Aux.String(),
					Index:    i,
					Resolved: resolved,
				})
			}
		}
	}
	return g
}

func appendFields(rows []FieldRow, class string, fields map[string]*core.ClassNode, static bool) []FieldRow {
	start := len(rows)
	for name, typ := range fields {
		rows = append(rows, FieldRow{Class: class, Name: name, Type: typ.Name(), Static: static})
	}
	added := rows[start:]
	sort.Slice(added, func(i, j int) bool { return added[i].Name < added[j].Name })
	return rows
}
