package core

import (
	"math"
	"testing"
)

func TestPrimitiveString(t *testing.T) {
	s := NewScope("t")
	tests := []struct {
		name string
		v    PrimitiveInfo
		want string
	}{
		{"int", FromInt(s, 5), "5"},
		{"negative int", FromInt(s, -3), "-3"},
		{"long", FromLong(s, 5), "5l"},
		{"min long", FromLong(s, math.MinInt64), "-9223372036854775808l"},
		{"float", FromFloat(s, 1), "1.0f"},
		{"float fraction", FromFloat(s, 0.5), "0.5f"},
		{"double", FromDouble(s, 1), "1.0"},
		{"double large", FromDouble(s, 1e10), "1.0E10"},
		{"double small", FromDouble(s, 1.5e-5), "1.5E-5"},
		{"boolean", FromBoolean(s, true), "true"},
		{"nan", FromDouble(s, math.NaN()), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrimitiveValues(t *testing.T) {
	s := NewScope("t")

	l := FromLong(s, -0x123456789)
	if l.Long() != -0x123456789 {
		t.Errorf("Long() = %d", l.Long())
	}
	if w := FromHalves(s.Long, l.Low(), l.High()); !w.Equal(l) {
		t.Errorf("halves do not round trip")
	}
	if d := FromDouble(s, 2.25); d.Double() != 2.25 || !d.IsDouble() {
		t.Errorf("Double() = %v", d.Double())
	}
	if f := FromFloat(s, -1.5); f.Float() != -1.5 || !f.IsFloat() {
		t.Errorf("Float() = %v", f.Float())
	}

	if FromInt(s, 0).Equal(FromBoolean(s, false)) {
		t.Errorf("equality must require the same type tag")
	}
	if !FromInt(s, 0).IsZero() || FromLong(s, 1<<32).IsZero() {
		t.Errorf("IsZero wrong")
	}
	if !FromInt(s, 1).IsSameType(FromInt(s, 2)) {
		t.Errorf("IsSameType wrong")
	}

	if _, err := FromValue(s, "str"); err == nil {
		t.Errorf("FromValue accepted a string")
	}
	if v, _ := FromValue(s, int8(-2)); !v.Equal(FromInt(s, -2)) {
		t.Errorf("FromValue(int8) = %v", v)
	}
}

func TestPrimitiveCast(t *testing.T) {
	s := NewScope("t")
	tests := []struct {
		name string
		got  PrimitiveInfo
		want PrimitiveInfo
	}{
		{"double to int", FromDouble(s, 3.9).CastTo(s.Int), FromInt(s, 3)},
		{"int to long", FromInt(s, -7).CastTo(s.Long), FromLong(s, -7)},
		{"long to int", FromLong(s, 1<<33|5).CastTo(s.Int), FromInt(s, 5)},
		{"int to double", FromInt(s, 2).CastTo(s.Double), FromDouble(s, 2)},
		{"boolean to int", FromBoolean(s, true).CastTo(s.Int), FromInt(s, 1)},
		{"float to long", FromFloat(s, -2.5).CastTo(s.Long), FromLong(s, -2)},
		{"int to byte", FromInt(s, 7).CastTo(s.Byte), FromInt(s, 7)},
		{"unsafe char", FromInt(s, 65).UnsafeCastTo(s.Char), FromInt(s, 65)},
		{"unsafe float", FromInt(s, 0x3f800000).UnsafeCastTo(s.Float), FromFloat(s, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %v (%v), want %v (%v)", tt.got, tt.got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestInstructionString(t *testing.T) {
	s := NewScope("t")
	owner := s.FindOrCreate("a.Foo")
	callee := NewMethodNode(owner, "bar", s.Int, []*ClassNode{s.Int, s.Long}, 0)

	mk := func(op Op, aux Aux, f func(*Instruction)) *Instruction {
		i := NewInstruction(op, aux)
		f(i)
		return i
	}
	tests := []struct {
		name string
		insn *Instruction
		want string
	}{
		{"nop", NewInstruction(OpNop, AuxNil), "<NOP>"},
		{"return void", NewInstruction(OpReturn, AuxReturnVoid), "<RETURN,VOID>"},
		{"const", mk(OpMove, AuxMoveConst, func(i *Instruction) {
			i.Dst = 0
			i.Type = s.Void
			i.Extra = Constant{FromInt(s, 5)}
		}), "<MOV,CONST,dst=r0,type=void,extra=5>"},
		{"string", mk(OpMove, AuxMoveConst, func(i *Instruction) {
			i.Dst = 1
			i.Type = s.FindOrCreate(StringName)
			i.Extra = StringLiteral("hi \"x\"")
		}), `<MOV,CONST,dst=r1,type=java.lang.String,extra="hi \"x\"">`},
		{"goto", mk(OpGoto, AuxNil, func(i *Instruction) { i.Extra = BranchTarget(4) }), "<GOTO,extra=index:4>"},
		{"if", mk(OpIf, AuxIfEq, func(i *Instruction) {
			i.R0, i.R1 = 1, 2
			i.Extra = BranchTarget(0)
		}), "<IF,EQ,r0=r1,r1=r2,extra=index:0>"},
		{"switch", mk(OpSwitch, AuxNil, func(i *Instruction) {
			i.R0 = 3
			i.Extra = SwitchTable{2: 5, 1: 3}
		}), "<SWITCH,r0=r3,extra={1=3, 2=5}>"},
		{"args", mk(OpSpecial, AuxArguments, func(i *Instruction) { i.Extra = Registers{4, 5, 6} }), "<SPECIAL,ARGUMENT_SET,extra=[4, 5, 6]>"},
		{"field", mk(OpInstance, AuxInstanceGet, func(i *Instruction) {
			i.R0, i.R1 = 0, 1
			i.Type = s.Void
			i.Extra = &FieldRef{Owner: owner, Name: "x"}
		}), "<INSTANCE,IGET,r0=r0,r1=r1,type=void,extra=a.Foo.x>"},
		{"invoke", mk(OpInvoke, AuxInvokeVirtual, func(i *Instruction) {
			i.Extra = PendingCall{Ref: callee, Args: Registers{0, 1, 2}}
		}), "<INVOKE,VIRTUAL,extra=pending:[a.Foo/bar[int, long], [0, 1, 2]]>"},
		{"resolved", mk(OpInvoke, AuxInvokeVirtual, func(i *Instruction) {
			i.Extra = ResolvedCall{Method: callee, Args: Registers{0, 1, 2}}
		}), "<INVOKE,VIRTUAL,extra=[a.Foo/bar[int, long]:int, [0, 1, 2]]>"},
		{"halt", mk(OpHalt, AuxInvokeStatic, func(i *Instruction) {
			i.Extra = UnresolvedCall{Ref: callee, Args: Registers{}}
		}), "<HALT,STATIC,extra=unresolved:[a.Foo/bar[int, long], []]>"},
		{"cast", mk(OpArithmetic, AuxCast, func(i *Instruction) {
			i.Dst, i.R0 = 0, 1
			i.Type = s.Long
			i.Extra = TypeRef{s.Int}
		}), "<ARITHMETIC,CAST,dst=r0,r0=r1,type=long,extra=int>"},
		{"array data", mk(OpNew, AuxNewFilledArray, func(i *Instruction) {
			i.Dst = 0
			i.Extra = ArrayData{FromInt(s, 1), FromInt(s, 2)}
		}), "<NEW,FILLED_ARRAY,dst=r0,extra=[1, 2]>"},
		{"checkcast", mk(OpArithmetic, AuxCheckCast, func(i *Instruction) {
			i.Dst = 2
			i.Type = owner
		}), "<ARITHMETIC,CHECK-AND-CAST,dst=r2,type=a.Foo>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.insn.String(); got != tt.want {
				t.Errorf("String()\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestCallPayload(t *testing.T) {
	s := NewScope("t")
	m := NewMethodNode(s.FindOrCreate("a.Foo"), "bar", nil, nil, AccStatic)
	i := NewInstruction(OpInvoke, AuxInvokeStatic)
	i.Extra = PendingCall{Ref: m, Args: Registers{1}}
	if !IsPending(i.Extra) {
		t.Errorf("PendingCall should be pending")
	}
	ref, args, ok := i.Call()
	if !ok || ref != m || len(args) != 1 {
		t.Errorf("Call() = %v %v %v", ref, args, ok)
	}
	i.Extra = ResolvedCall{Method: m, Args: args}
	if IsPending(i.Extra) {
		t.Errorf("ResolvedCall is not pending")
	}
	if _, _, ok := NewInstruction(OpGoto, AuxNil).Call(); ok {
		t.Errorf("goto has no call payload")
	}
	if m.ReturnType() != s.Void {
		t.Errorf("nil return type should default to void")
	}
}

func TestOpcodeNames(t *testing.T) {
	if len(Ops()) != 16 {
		t.Errorf("there are 16 instruction families, got %d", len(Ops()))
	}
	for _, a := range Auxes() {
		if a.String() == "" {
			t.Errorf("aux %d has no name", a)
		}
	}
	if AuxMoveException.String() != "EXCETPION" || OpArithmetic.String() != "ARITHMETIC" {
		t.Errorf("dump names changed")
	}
	if !AuxInvokeInterface.IsInvoke() || AuxIfEq.IsInvoke() || !AuxIfLez.IsBranch() {
		t.Errorf("family predicates wrong")
	}
}
