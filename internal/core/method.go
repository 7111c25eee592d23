package core

import (
	"strings"
)

const (
	ConstructorName       = "<init>"
	StaticInitializerName = "<clinit>"
)

// MethodSignature is a method name plus its ordered parameter types. It is
// the unit of virtual dispatch; return type and flags are not part of it.
type MethodSignature struct {
	Name   string
	Params []*ClassNode
}

func NewMethodSignature(name string, params ...*ClassNode) MethodSignature {
	return MethodSignature{Name: name, Params: params}
}

// Key is a map key that identifies the signature inside one scope.
func (s MethodSignature) Key() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.name)
	}
	b.WriteByte(')')
	return b.String()
}

// String renders name[p1, p2].
func (s MethodSignature) String() string {
	return s.Name + paramList(s.Params)
}

// Equal compares name and parameter identities.
func (s MethodSignature) Equal(o MethodSignature) bool {
	if s.Name != o.Name || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

func paramList(params []*ClassNode) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// MethodNode is a method declared by a class. Its body is attached at most
// once, after the class detail is built.
type MethodNode struct {
	class      *ClassNode
	name       string
	params     []*ClassNode
	returnType *ClassNode
	flags      AccessFlags

	insns []*Instruction
	tries []TryBlockInfo
	body  bool

	// Extra is free for analyses built on top of the graph.
	Extra any
}

// NewMethodNode creates a method of class. A nil return type means void.
func NewMethodNode(class *ClassNode, name string, returnType *ClassNode, params []*ClassNode, flags AccessFlags) *MethodNode {
	if returnType == nil && class != nil {
		returnType = class.scope.Void
	}
	return &MethodNode{
		class:      class,
		name:       name,
		params:     append([]*ClassNode(nil), params...),
		returnType: returnType,
		flags:      flags,
	}
}

func (m *MethodNode) Class() *ClassNode            { return m.class }
func (m *MethodNode) Name() string                 { return m.name }
func (m *MethodNode) Params() []*ClassNode         { return m.params }
func (m *MethodNode) ReturnType() *ClassNode       { return m.returnType }
func (m *MethodNode) AccessFlags() AccessFlags     { return m.flags }
func (m *MethodNode) Instructions() []*Instruction { return m.insns }
func (m *MethodNode) TryBlocks() []TryBlockInfo    { return m.tries }

// HasImplementation reports whether a decoded body was attached.
func (m *MethodNode) HasImplementation() bool { return m.body }

func (m *MethodNode) Signature() MethodSignature {
	return MethodSignature{Name: m.name, Params: m.params}
}

// SetImplementation attaches decoded instructions and try blocks. A second
// call is an invariant violation: it is logged and ignored.
func (m *MethodNode) SetImplementation(insns []*Instruction, tries []TryBlockInfo) {
	if m.body {
		m.class.scope.logger.Error("method body is already set", "method", m.String(), "severe", true)
		return
	}
	m.insns = insns
	m.tries = tries
	m.body = true
}

// HasSameSignature compares names and parameter identities.
func (m *MethodNode) HasSameSignature(o *MethodNode) bool {
	return m.Signature().Equal(o.Signature())
}

// CanOverride reports whether m can override o: same signature and m's
// class converts to o's class.
func (m *MethodNode) CanOverride(o *MethodNode) bool {
	return m == o || (m.class.IsConvertibleTo(o.class) && m.HasSameSignature(o))
}

// OverridingMethod returns the method in a base type or interface that m
// overrides, or nil. Constructors and static methods override nothing.
func (m *MethodNode) OverridingMethod() *MethodNode {
	if m.IsConstructor() || m.IsStatic() {
		return nil
	}
	sig := m.Signature()
	if base := m.class.BaseType(); base != nil {
		if found := base.FindMethod(sig); found != nil {
			return found
		}
	}
	for _, intf := range m.class.Interfaces() {
		if found := intf.FindMethod(sig); found != nil {
			return found
		}
	}
	return nil
}

func (m *MethodNode) IsStatic() bool   { return m.flags.IsStatic() }
func (m *MethodNode) IsNative() bool   { return m.flags.IsNative() }
func (m *MethodNode) IsAbstract() bool { return m.flags.IsAbstract() }
func (m *MethodNode) IsFinal() bool    { return m.flags.IsFinal() }

// IsSynthetic covers compiler-generated and bridge methods.
func (m *MethodNode) IsSynthetic() bool {
	return m.flags.IsSynthetic() || m.flags.IsBridge()
}

func (m *MethodNode) IsConstructor() bool { return m.name == ConstructorName }

// String renders Class/name[p1, p2].
func (m *MethodNode) String() string {
	owner := ""
	if m.class != nil {
		owner = m.class.name
	}
	return owner + "/" + m.name + paramList(m.params)
}
