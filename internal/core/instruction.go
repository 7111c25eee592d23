package core

import (
	"strconv"
	"strings"
)

// NoReg marks an unused register slot.
const NoReg = -1

// Instruction is one decoded operation. Dst, R0 and R1 hold register
// numbers or NoReg; Type is the result, cast, checked, field or element
// type depending on the opcode.
type Instruction struct {
	Op    Op
	Aux   Aux
	Dst   int
	R0    int
	R1    int
	Type  *ClassNode
	Extra Payload
}

// NewInstruction returns an instruction with every register slot unused.
func NewInstruction(op Op, aux Aux) *Instruction {
	return &Instruction{Op: op, Aux: aux, Dst: NoReg, R0: NoReg, R1: NoReg}
}

// Call returns the call-site payload of an invoke, whatever its phase.
func (i *Instruction) Call() (ref *MethodNode, args Registers, ok bool) {
	switch p := i.Extra.(type) {
	case PendingCall:
		return p.Ref, p.Args, true
	case ResolvedCall:
		return p.Method, p.Args, true
	case UnresolvedCall:
		return p.Ref, p.Args, true
	}
	return nil, nil, false
}

// Target returns the resolved branch index of a goto or if.
func (i *Instruction) Target() (int, bool) {
	t, ok := i.Extra.(BranchTarget)
	return int(t), ok
}

// String renders <OP[,AUX][,dst=rN][,r0=rN][,r1=rN][,type=T][,extra=X]>.
func (i *Instruction) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(i.Op.String())
	if i.Aux != AuxNil {
		b.WriteByte(',')
		b.WriteString(i.Aux.String())
	}
	writeReg(&b, "dst", i.Dst)
	writeReg(&b, "r0", i.R0)
	writeReg(&b, "r1", i.R1)
	if i.Type != nil {
		b.WriteString(",type=")
		b.WriteString(i.Type.name)
	}
	if i.Extra != nil {
		b.WriteString(",extra=")
		b.WriteString(i.Extra.String())
	}
	b.WriteByte('>')
	return b.String()
}

func writeReg(b *strings.Builder, name string, r int) {
	if r == NoReg {
		return
	}
	b.WriteByte(',')
	b.WriteString(name)
	b.WriteString("=r")
	b.WriteString(strconv.Itoa(r))
}
