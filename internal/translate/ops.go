package translate

import (
	"fmt"

	"dexgraph/internal/core"
	"dexgraph/internal/dex"
)

type arith struct {
	aux core.Aux
	typ func(*core.Scope) *core.ClassNode
	src func(*core.Scope) *core.ClassNode
}

func tInt(s *core.Scope) *core.ClassNode     { return s.Int }
func tLong(s *core.Scope) *core.ClassNode    { return s.Long }
func tFloat(s *core.Scope) *core.ClassNode   { return s.Float }
func tDouble(s *core.Scope) *core.ClassNode  { return s.Double }
func tByte(s *core.Scope) *core.ClassNode    { return s.Byte }
func tChar(s *core.Scope) *core.ClassNode    { return s.Char }
func tShort(s *core.Scope) *core.ClassNode   { return s.Short }
func tBoolean(s *core.Scope) *core.ClassNode { return s.Boolean }
func tVoid(s *core.Scope) *core.ClassNode    { return s.Void }
func tWide(s *core.Scope) *core.ClassNode    { return s.Wide }
func tObject(s *core.Scope) *core.ClassNode  { return s.Object }

// memberTypes is the operand type of the seven sized variants of
// aget/aput/iget/iput/sget/sput, in opcode order.
var memberTypes = [7]func(*core.Scope) *core.ClassNode{tVoid, tWide, tObject, tBoolean, tByte, tChar, tShort}

var unaryOps = map[dex.Opcode]arith{
	dex.NegInt:        {core.AuxNeg, tInt, nil},
	dex.NotInt:        {core.AuxNot, tInt, nil},
	dex.NegLong:       {core.AuxNeg, tLong, nil},
	dex.NotLong:       {core.AuxNot, tLong, nil},
	dex.NegFloat:      {core.AuxNeg, tFloat, nil},
	dex.NegDouble:     {core.AuxNeg, tDouble, nil},
	dex.IntToLong:     {core.AuxCast, tLong, tInt},
	dex.IntToFloat:    {core.AuxCast, tFloat, tInt},
	dex.IntToDouble:   {core.AuxCast, tDouble, tInt},
	dex.LongToInt:     {core.AuxCast, tInt, tLong},
	dex.LongToFloat:   {core.AuxCast, tFloat, tLong},
	dex.LongToDouble:  {core.AuxCast, tDouble, tLong},
	dex.FloatToInt:    {core.AuxCast, tInt, tFloat},
	dex.FloatToLong:   {core.AuxCast, tLong, tFloat},
	dex.FloatToDouble: {core.AuxCast, tDouble, tFloat},
	dex.DoubleToInt:   {core.AuxCast, tInt, tDouble},
	dex.DoubleToLong:  {core.AuxCast, tLong, tDouble},
	dex.DoubleToFloat: {core.AuxCast, tFloat, tDouble},
	dex.IntToByte:     {core.AuxCast, tByte, tInt},
	dex.IntToChar:     {core.AuxCast, tChar, tInt},
	dex.IntToShort:    {core.AuxCast, tShort, tInt},
}

var (
	intBinops   = []core.Aux{core.AuxAdd, core.AuxSub, core.AuxMul, core.AuxDiv, core.AuxRem, core.AuxAnd, core.AuxOr, core.AuxXor, core.AuxShl, core.AuxShr, core.AuxUshr}
	floatBinops = intBinops[:5]
	// the literal forms put rsub where sub would be; lit16 has no shifts.
	lit8Ops  = append([]core.Aux{core.AuxAdd, core.AuxRsub}, intBinops[2:]...)
	lit16Ops = lit8Ops[:8]
)

// binops covers the 23x arithmetic block; the 2addr block mirrors it at
// opcode+0x20.
var binops = func() map[dex.Opcode]arith {
	m := map[dex.Opcode]arith{}
	op := dex.AddInt
	for _, group := range []struct {
		auxes []core.Aux
		typ   func(*core.Scope) *core.ClassNode
	}{{intBinops, tInt}, {intBinops, tLong}, {floatBinops, tFloat}, {floatBinops, tDouble}} {
		for _, aux := range group.auxes {
			m[op] = arith{aux: aux, typ: group.typ}
			op++
		}
	}
	return m
}()

var ifAux = map[dex.Opcode]core.Aux{
	dex.IfEq: core.AuxIfEq, dex.IfNe: core.AuxIfNe, dex.IfLt: core.AuxIfLt,
	dex.IfGe: core.AuxIfGe, dex.IfGt: core.AuxIfGt, dex.IfLe: core.AuxIfLe,
	dex.IfEqz: core.AuxIfEqz, dex.IfNez: core.AuxIfNez, dex.IfLtz: core.AuxIfLtz,
	dex.IfGez: core.AuxIfGez, dex.IfGtz: core.AuxIfGtz, dex.IfLez: core.AuxIfLez,
}

var invokeAux = map[dex.Opcode]core.Aux{
	dex.InvokeVirtual: core.AuxInvokeVirtual, dex.InvokeVirtualRange: core.AuxInvokeVirtual,
	dex.InvokeSuper: core.AuxInvokeSuper, dex.InvokeSuperRange: core.AuxInvokeSuper,
	dex.InvokeDirect: core.AuxInvokeDirect, dex.InvokeDirectRange: core.AuxInvokeDirect,
	dex.InvokeStatic: core.AuxInvokeStatic, dex.InvokeStaticRange: core.AuxInvokeStatic,
	dex.InvokeInterface: core.AuxInvokeInterface, dex.InvokeInterfaceRange: core.AuxInvokeInterface,
}

// insn maps one raw instruction. Nop and payloads never get here.
func (t *Translator) insn(raw *dex.Insn) (*core.Instruction, error) {
	s := t.scope
	op := raw.Op
	switch {
	case op >= dex.Move && op <= dex.MoveObject16:
		in := core.NewInstruction(core.OpMove, core.AuxMoveReg)
		in.Dst, in.R0 = raw.A, raw.B
		in.Type = [...]*core.ClassNode{s.Void, s.Wide, s.Object}[(op-dex.Move)/3]
		return in, nil

	case op >= dex.MoveResult && op <= dex.MoveException:
		in := core.NewInstruction(core.OpMove, core.AuxMoveResult)
		in.Dst = raw.A
		switch op {
		case dex.MoveResult:
			in.Type = s.Void
		case dex.MoveResultWide:
			in.Type = s.Wide
		case dex.MoveResultObject:
			in.Type = s.Object
		case dex.MoveException:
			in.Aux = core.AuxMoveException
			in.Type = s.Object
		}
		return in, nil

	case op == dex.ReturnVoid:
		return core.NewInstruction(core.OpReturn, core.AuxReturnVoid), nil

	case op >= dex.Return && op <= dex.ReturnObject:
		in := core.NewInstruction(core.OpReturn, core.AuxReturnValue)
		in.R0 = raw.A
		in.Type = [...]*core.ClassNode{s.Void, s.Wide, s.Object}[op-dex.Return]
		return in, nil

	case op >= dex.Const4 && op <= dex.ConstClass:
		return t.constant(raw), nil

	case op == dex.MonitorEnter || op == dex.MonitorExit:
		aux := core.AuxMonitorEnter
		if op == dex.MonitorExit {
			aux = core.AuxMonitorExit
		}
		in := core.NewInstruction(core.OpSpecial, aux)
		in.Dst = raw.A
		return in, nil

	case op == dex.CheckCast:
		in := core.NewInstruction(core.OpArithmetic, core.AuxCheckCast)
		in.Dst = raw.A
		in.Type = s.FindOrCreateDalvik(raw.Type)
		return in, nil

	case op == dex.InstanceOf:
		in := core.NewInstruction(core.OpArithmetic, core.AuxInstanceOf)
		in.Dst, in.R0 = raw.A, raw.B
		in.Type = s.FindOrCreateDalvik(raw.Type)
		return in, nil

	case op == dex.ArrayLength:
		in := core.NewInstruction(core.OpArithmetic, core.AuxArrayLength)
		in.Dst, in.R0 = raw.A, raw.B
		in.Type = s.Int
		return in, nil

	case op == dex.NewInstance:
		in := core.NewInstruction(core.OpNew, core.AuxNewInstance)
		in.Dst = raw.A
		in.Type = s.FindOrCreateDalvik(raw.Type)
		return in, nil

	case op == dex.NewArray:
		in := core.NewInstruction(core.OpNew, core.AuxNewArray)
		in.Dst, in.R0 = raw.A, raw.B
		in.Type = s.FindOrCreateDalvik(raw.Type)
		return in, nil

	case op == dex.FilledNewArray || op == dex.FilledNewArrayRange:
		in := core.NewInstruction(core.OpNew, core.AuxNewFilledArray)
		in.Type = s.FindOrCreateDalvik(raw.Type)
		in.Extra = core.Registers(append([]int(nil), raw.Args...))
		return in, nil

	case op == dex.FillArrayData:
		in := core.NewInstruction(core.OpNew, core.AuxNewFilledArray)
		in.Dst = raw.A
		return in, t.withPayload(in, raw.Offset)

	case op == dex.Throw:
		in := core.NewInstruction(core.OpException, core.AuxThrow)
		in.R0 = raw.A
		in.Type = s.Object
		return in, nil

	case op >= dex.Goto && op <= dex.Goto32:
		in := core.NewInstruction(core.OpGoto, core.AuxNil)
		return in, t.branch(in, raw.Offset)

	case op == dex.PackedSwitch || op == dex.SparseSwitch:
		in := core.NewInstruction(core.OpSwitch, core.AuxNil)
		in.R0 = raw.A
		// the switch keeps its own address until the table is known
		in.Extra = core.PendingTarget{Addr: t.addr}
		return in, t.withPayload(in, raw.Offset)

	case op >= dex.CmplFloat && op <= dex.CmpLong:
		in := core.NewInstruction(core.OpCmp, core.AuxNil)
		in.Dst, in.R0, in.R1 = raw.A, raw.B, raw.C
		switch op {
		case dex.CmplFloat:
			in.Aux, in.Type = core.AuxCmpLess, s.Float
		case dex.CmpgFloat:
			in.Aux, in.Type = core.AuxCmpGreater, s.Float
		case dex.CmplDouble:
			in.Aux, in.Type = core.AuxCmpLess, s.Double
		case dex.CmpgDouble:
			in.Aux, in.Type = core.AuxCmpGreater, s.Double
		case dex.CmpLong:
			in.Aux, in.Type = core.AuxCmpLong, s.Long
		}
		return in, nil

	case op >= dex.IfEq && op <= dex.IfLez:
		in := core.NewInstruction(core.OpIf, ifAux[op])
		in.R0 = raw.A
		if op <= dex.IfLe {
			in.R1 = raw.B
		}
		return in, t.branch(in, raw.Offset)

	case op >= dex.Aget && op <= dex.AputShort:
		aux, k := core.AuxArrayGet, op-dex.Aget
		if op >= dex.Aput {
			aux, k = core.AuxArrayPut, op-dex.Aput
		}
		in := core.NewInstruction(core.OpArray, aux)
		in.Dst, in.R0, in.R1 = raw.A, raw.B, raw.C
		in.Type = memberTypes[k](s)
		return in, nil

	case op >= dex.Iget && op <= dex.IputShort:
		aux, k := core.AuxInstanceGet, op-dex.Iget
		if op >= dex.Iput {
			aux, k = core.AuxInstancePut, op-dex.Iput
		}
		in := core.NewInstruction(core.OpInstance, aux)
		in.R0, in.R1 = raw.B, raw.A
		in.Type = memberTypes[k](s)
		in.Extra = &core.FieldRef{Owner: s.FindOrCreateDalvik(raw.Field.Class), Name: raw.Field.Name}
		return in, nil

	case op >= dex.Sget && op <= dex.SputShort:
		aux, k := core.AuxStaticGet, op-dex.Sget
		if op >= dex.Sput {
			aux, k = core.AuxStaticPut, op-dex.Sput
		}
		in := core.NewInstruction(core.OpStatic, aux)
		in.R0 = raw.A
		in.Type = memberTypes[k](s)
		in.Extra = &core.FieldRef{Owner: s.FindOrCreateDalvik(raw.Field.Class), Name: raw.Field.Name, Static: true}
		return in, nil

	case invokeAux[op] != core.AuxNil:
		return t.invoke(raw, invokeAux[op])

	case op >= dex.NegInt && op <= dex.IntToShort:
		a := unaryOps[op]
		in := core.NewInstruction(core.OpArithmetic, a.aux)
		in.Dst, in.R0 = raw.A, raw.B
		in.Type = a.typ(s)
		if a.src != nil {
			in.Extra = core.TypeRef{Class: a.src(s)}
		}
		return in, nil

	case op >= dex.AddInt && op <= dex.RemDouble:
		a := binops[op]
		in := core.NewInstruction(core.OpArithmetic, a.aux)
		in.Dst, in.R0, in.R1 = raw.A, raw.B, raw.C
		in.Type = a.typ(s)
		return in, nil

	case op >= dex.AddInt2Addr && op <= dex.RemDouble2Addr:
		a := binops[op-0x20]
		in := core.NewInstruction(core.OpArithmetic, a.aux)
		in.Dst, in.R0, in.R1 = raw.A, raw.A, raw.B
		in.Type = a.typ(s)
		return in, nil

	case op >= dex.AddIntLit16 && op <= dex.XorIntLit16:
		return t.literal(raw, lit16Ops[op-dex.AddIntLit16]), nil

	case op >= dex.AddIntLit8 && op <= dex.UshrIntLit8:
		return t.literal(raw, lit8Ops[op-dex.AddIntLit8]), nil
	}
	return nil, fmt.Errorf("%w %#02x", ErrUnknownOpcode, uint16(op))
}

func (t *Translator) constant(raw *dex.Insn) *core.Instruction {
	s := t.scope
	in := core.NewInstruction(core.OpMove, core.AuxMoveConst)
	in.Dst = raw.A
	switch raw.Op {
	case dex.Const4, dex.Const16, dex.Const, dex.ConstHigh16:
		in.Type = s.Void
		in.Extra = core.Constant{Value: core.FromInt(s, int32(raw.Literal))}
	case dex.ConstWide16, dex.ConstWide32, dex.ConstWide, dex.ConstWideHigh16:
		in.Type = s.Wide
		in.Extra = core.Constant{Value: core.FromLong(s, raw.Literal)}
	case dex.ConstString, dex.ConstStringJumbo:
		in.Type = s.FindOrCreate(core.StringName)
		in.Extra = core.StringLiteral(raw.Str)
	case dex.ConstClass:
		in.Type = s.FindOrCreate(core.ClassName)
		in.Extra = core.TypeRef{Class: s.FindOrCreateDalvik(raw.Type)}
	}
	return in
}

func (t *Translator) literal(raw *dex.Insn, aux core.Aux) *core.Instruction {
	in := core.NewInstruction(core.OpArithmetic, aux)
	in.Dst, in.R0 = raw.A, raw.B
	in.Extra = core.Constant{Value: core.FromInt(t.scope, int32(raw.Literal))}
	return in
}

func (t *Translator) invoke(raw *dex.Insn, aux core.Aux) (*core.Instruction, error) {
	var flags core.AccessFlags
	if aux == core.AuxInvokeStatic {
		flags = core.AccStatic
	}
	ref := MethodRef(t.scope, raw.Method, flags)
	args, err := t.rebuildArgs(ref, raw.Args)
	if err != nil {
		return nil, err
	}
	in := core.NewInstruction(core.OpInvoke, aux)
	in.Extra = core.PendingCall{Ref: ref, Args: args}
	return in, nil
}

// rebuildArgs drops the shadow register of every wide parameter so there
// is one entry per parameter, plus the receiver.
func (t *Translator) rebuildArgs(ref *core.MethodNode, raw []int) (core.Registers, error) {
	out := make(core.Registers, 0, len(ref.Params())+1)
	j := 0
	take := func() bool {
		if j >= len(raw) {
			return false
		}
		out = append(out, raw[j])
		j++
		return true
	}
	if !ref.IsStatic() && !take() {
		return nil, fmt.Errorf("%w: no receiver for %s", ErrArgumentMismatch, ref)
	}
	for _, p := range ref.Params() {
		if !take() {
			return nil, fmt.Errorf("%w: %d registers for %s", ErrArgumentMismatch, len(raw), ref)
		}
		if t.scope.IsWideType(p) {
			j++
		}
	}
	if j != len(raw) {
		return nil, fmt.Errorf("%w: %d registers for %s", ErrArgumentMismatch, len(raw), ref)
	}
	return out, nil
}

// MethodRef builds the symbolic method node a call site refers to. It is
// not attached to its class; resolution looks up the real one.
func MethodRef(s *core.Scope, id *dex.MethodID, flags core.AccessFlags) *core.MethodNode {
	return core.NewMethodNode(
		s.FindOrCreateDalvik(id.Class),
		id.Name,
		s.FindOrCreateDalvik(id.Return),
		s.FindOrCreateAll(id.Params),
		flags,
	)
}
