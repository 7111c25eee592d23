package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Payload is the instruction-specific data of an Instruction. The concrete
// type depends on the opcode; String is its rendering in the dump.
type Payload interface {
	fmt.Stringer
	payload()
}

// Constant is a literal operand (const, arithmetic with literal).
type Constant struct{ Value PrimitiveInfo }

// StringLiteral is the operand of const-string.
type StringLiteral string

// TypeRef carries a class operand: const-class, or the source type of a cast.
type TypeRef struct{ Class *ClassNode }

// Registers is an ordered register list: method arguments, filled-array
// elements.
type Registers []int

// ArrayData is the element list of a fill-array-data payload.
type ArrayData []PrimitiveInfo

// BranchTarget is the instruction index a goto or if jumps to.
type BranchTarget int

// SwitchTable maps case keys to instruction indices.
type SwitchTable map[int32]int

// SwitchCase is one raw case of a switch payload: key and code-unit offset
// relative to the switch instruction.
type SwitchCase struct {
	Key    int32
	Offset int32
}

// PendingSwitch is a switch whose table has been seen but some of whose
// targets have not been reached yet.
type PendingSwitch struct {
	SwitchAddr int
	Cases      []SwitchCase
}

// PendingTarget marks a branch or switch that still waits for its target
// address (or payload) to be scanned.
type PendingTarget struct{ Addr int }

// PendingCall is an invoke whose target is only known symbolically.
type PendingCall struct {
	Ref  *MethodNode
	Args Registers
}

// ResolvedCall is an invoke bound to a method of the type graph.
type ResolvedCall struct {
	Method *MethodNode
	Args   Registers
}

// UnresolvedCall is an invoke that resolution could not bind; the
// instruction carrying it has been turned into HALT.
type UnresolvedCall struct {
	Ref  *MethodNode
	Args Registers
}

func (Constant) payload()       {}
func (StringLiteral) payload()  {}
func (TypeRef) payload()        {}
func (Registers) payload()      {}
func (ArrayData) payload()      {}
func (BranchTarget) payload()   {}
func (SwitchTable) payload()    {}
func (PendingSwitch) payload()  {}
func (PendingTarget) payload()  {}
func (*FieldRef) payload()      {}
func (PendingCall) payload()    {}
func (ResolvedCall) payload()   {}
func (UnresolvedCall) payload() {}

func (c Constant) String() string      { return c.Value.String() }
func (s StringLiteral) String() string { return strconv.Quote(string(s)) }
func (t TypeRef) String() string       { return t.Class.name }

func (r Registers) String() string {
	parts := make([]string, len(r))
	for i, x := range r {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a ArrayData) String() string {
	parts := make([]string, len(a))
	for i, x := range a {
		parts[i] = x.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (b BranchTarget) String() string { return "index:" + strconv.Itoa(int(b)) }

// String renders {k=v, ...} in ascending key order.
func (t SwitchTable) String() string {
	keys := make([]int32, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d=%d", k, t[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (p PendingSwitch) String() string {
	return fmt.Sprintf("pending-switch@%d(%d cases)", p.SwitchAddr, len(p.Cases))
}

func (p PendingTarget) String() string { return fmt.Sprintf("pending@%d", p.Addr) }

// Each call phase renders differently so a dump shows which sites were
// bound: pending and unresolved sites carry a prefix, a resolved site
// names its target together with the target's return type.
func (c PendingCall) String() string    { return "pending:" + callString(c.Ref.String(), c.Args) }
func (c UnresolvedCall) String() string { return "unresolved:" + callString(c.Ref.String(), c.Args) }
func (c ResolvedCall) String() string {
	return callString(c.Method.String()+":"+c.Method.ReturnType().Name(), c.Args)
}

func callString(target string, args Registers) string {
	return "[" + target + ", " + args.String() + "]"
}

// IsPending reports payloads that still wait for a later pass.
func IsPending(p Payload) bool {
	switch p.(type) {
	case PendingSwitch, PendingTarget, PendingCall:
		return true
	}
	return false
}
