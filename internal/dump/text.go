// Package dump renders a scope in the canonical text form used for
// regression testing, plus JSON and CBOR reports of the same content.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"dexgraph/internal/core"
)

// Options select what ends up in a dump.
type Options struct {
	// Framework includes classes detailed from the framework unit.
	Framework bool
}

// Classes returns the defined classes of scope in name order. Classes that
// were never detailed are skipped without loading them.
func Classes(scope *core.Scope, opts Options) []*core.ClassNode {
	var out []*core.ClassNode
	for _, c := range scope.AllClasses() {
		if c.IsPrimitive() || !c.IsLoaded() || c.IsMissing() {
			continue
		}
		if c.IsFramework() && !opts.Framework {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Methods returns the methods of c sorted by their rendered signature.
// Methods that render alike keep declaration order.
func Methods(c *core.ClassNode) []*core.MethodNode {
	ms := append([]*core.MethodNode(nil), c.AllMethods()...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].String() < ms[j].String() })
	return ms
}

// Text writes one line per class, a tab-indented line per method and a
// doubly indented line per instruction and try block.
func Text(w io.Writer, scope *core.Scope, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, c := range Classes(scope, opts) {
		writeClass(bw, c)
	}
	return bw.Flush()
}

// Class writes the dump section of a single class.
func Class(w io.Writer, c *core.ClassNode) error {
	bw := bufio.NewWriter(w)
	writeClass(bw, c)
	return bw.Flush()
}

func writeClass(w io.Writer, c *core.ClassNode) {
	fmt.Fprintln(w, c.Name())
	for _, m := range Methods(c) {
		writeMethod(w, m)
	}
}

func writeMethod(w io.Writer, m *core.MethodNode) {
	fmt.Fprintf(w, "\t%s\n", m)
	insns := m.Instructions()
	if len(insns) == 0 {
		fmt.Fprintln(w, "\t\t(no instructions)")
		return
	}
	for _, in := range insns {
		fmt.Fprintf(w, "\t\t%s\n", in)
	}
	for _, tb := range m.TryBlocks() {
		fmt.Fprintf(w, "\t\t%s\n", TryString(tb))
	}
}

// TryString renders try [start, end) -> T@index, ... with * for catch-all.
func TryString(tb core.TryBlockInfo) string {
	hs := make([]string, len(tb.Handlers))
	for i, h := range tb.Handlers {
		name := "*"
		if h.Type != nil {
			name = h.Type.Name()
		}
		hs[i] = fmt.Sprintf("%s@%d", name, h.Index)
	}
	return fmt.Sprintf("try [%d, %d) -> %s", tb.Start, tb.End, strings.Join(hs, ", "))
}
