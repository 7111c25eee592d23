package dex

import (
	"fmt"
	"strings"
)

// Insn is one raw instruction as laid out in the code item. Which fields
// are meaningful depends on Op.Format().
type Insn struct {
	Addr int
	Op   Opcode
	// Size in code units, including the payload body for pseudo-instructions.
	Size int

	A, B, C int
	// Literal is sign-extended, with the high16 shift already applied.
	Literal int64
	// Offset is the branch or payload offset relative to Addr.
	Offset int32
	// Args are the argument registers of 35c/3rc style instructions.
	Args []int

	// Index is the raw reference operand; the decoded reference is in
	// Str, Type, Field or Method.
	Index  uint32
	Str    string
	Type   string
	Field  *FieldID
	Method *MethodID

	// Switch holds packed and sparse switch payload entries.
	Switch []SwitchEntry
	// Array holds the fill-array-data payload.
	Array *ArrayData
}

// SwitchEntry is a switch case: key and target offset relative to the
// switch instruction.
type SwitchEntry struct {
	Key    int32
	Offset int32
}

// ArrayData is a fill-array-data payload. Elements are sign-extended from
// Width bytes.
type ArrayData struct {
	Width int
	Elems []int64
}

// String renders a smali-like line, for diagnostics.
func (in *Insn) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04x: %s", in.Addr, in.Op.Name())
	switch in.Op.Format() {
	case Fmt35c, Fmt3rc, Fmt45cc, Fmt4rcc:
		fmt.Fprintf(&b, " %v", in.Args)
	case Fmt10x, FmtPayload, FmtUnused:
	default:
		fmt.Fprintf(&b, " A=%d B=%d C=%d", in.A, in.B, in.C)
	}
	switch {
	case in.Method != nil:
		fmt.Fprintf(&b, " %s->%s", in.Method.Class, in.Method.Name)
	case in.Field != nil:
		fmt.Fprintf(&b, " %s->%s:%s", in.Field.Class, in.Field.Name, in.Field.Type)
	case in.Type != "":
		b.WriteString(" " + in.Type)
	case in.Op.refKind() == refString:
		fmt.Fprintf(&b, " %q", in.Str)
	}
	return b.String()
}

// DecodeInsns decodes a raw code-unit stream. References are left as
// indices.
func DecodeInsns(units []uint16) ([]Insn, error) {
	return decodeInsns(nil, units)
}

func decodeInsns(df *File, units []uint16) ([]Insn, error) {
	var out []Insn
	var p *parser
	if df != nil {
		p = &parser{df: df}
	}
	for pos := 0; pos < len(units); {
		in, err := decodeInsn(units, pos)
		if err != nil {
			return nil, err
		}
		if p != nil {
			p.resolveRef(&in)
			if p.err != nil {
				return nil, fmt.Errorf("insn at %#x: %w", pos, p.err)
			}
		}
		out = append(out, in)
		pos += in.Size
	}
	return out, nil
}

func (p *parser) resolveRef(in *Insn) {
	switch in.Op.refKind() {
	case refString:
		in.Str = p.str(in.Index)
	case refType:
		in.Type = p.typ(in.Index)
	case refField:
		in.Field = p.field(in.Index)
	case refMethod:
		in.Method = p.method(in.Index)
	}
}

func decodeInsn(units []uint16, pos int) (Insn, error) {
	w := units[pos]
	in := Insn{Addr: pos}
	unit := func(i int) uint16 { return units[pos+i] }

	switch Opcode(w) {
	case PackedSwitchPayload, SparseSwitchPayload, FillArrayDataPayload:
		return decodePayload(units, pos)
	}

	in.Op = Opcode(w & 0xff)
	f := in.Op.Format()
	in.Size = f.Units()
	if pos+in.Size > len(units) {
		return in, fmt.Errorf("%w: %s at %#x", ErrTruncated, in.Op.Name(), pos)
	}

	a4, b4 := int(w>>8)&0xf, int(w>>12)
	a8 := int(w >> 8)
	switch f {
	case Fmt10x, FmtUnused:
	case Fmt12x:
		in.A, in.B = a4, b4
	case Fmt11n:
		in.A = a4
		in.Literal = int64(int8(w>>8) >> 4)
	case Fmt11x:
		in.A = a8
	case Fmt10t:
		in.Offset = int32(int8(w >> 8))
	case Fmt20t:
		in.Offset = int32(int16(unit(1)))
	case Fmt22x:
		in.A, in.B = a8, int(unit(1))
	case Fmt21t:
		in.A = a8
		in.Offset = int32(int16(unit(1)))
	case Fmt21s:
		in.A = a8
		in.Literal = int64(int16(unit(1)))
	case Fmt21h:
		in.A = a8
		if in.Op == ConstWideHigh16 {
			in.Literal = int64(unit(1)) << 48
		} else {
			in.Literal = int64(int32(uint32(unit(1)) << 16))
		}
	case Fmt21c:
		in.A = a8
		in.Index = uint32(unit(1))
	case Fmt23x:
		in.A = a8
		in.B, in.C = int(unit(1)&0xff), int(unit(1)>>8)
	case Fmt22b:
		in.A = a8
		in.B = int(unit(1) & 0xff)
		in.Literal = int64(int8(unit(1) >> 8))
	case Fmt22t:
		in.A, in.B = a4, b4
		in.Offset = int32(int16(unit(1)))
	case Fmt22s:
		in.A, in.B = a4, b4
		in.Literal = int64(int16(unit(1)))
	case Fmt22c:
		in.A, in.B = a4, b4
		in.Index = uint32(unit(1))
	case Fmt30t:
		in.Offset = int32(uint32(unit(1)) | uint32(unit(2))<<16)
	case Fmt32x:
		in.A, in.B = int(unit(1)), int(unit(2))
	case Fmt31i:
		in.A = a8
		in.Literal = int64(int32(uint32(unit(1)) | uint32(unit(2))<<16))
	case Fmt31t:
		in.A = a8
		in.Offset = int32(uint32(unit(1)) | uint32(unit(2))<<16)
	case Fmt31c:
		in.A = a8
		in.Index = uint32(unit(1)) | uint32(unit(2))<<16
	case Fmt35c, Fmt45cc:
		count := b4
		if count > 5 {
			return in, fmt.Errorf("%s at %#x: %d argument registers", in.Op.Name(), pos, count)
		}
		in.Index = uint32(unit(1))
		regs := unit(2)
		all := [5]int{int(regs & 0xf), int(regs>>4) & 0xf, int(regs>>8) & 0xf, int(regs >> 12), a4}
		in.Args = append([]int(nil), all[:count]...)
	case Fmt3rc, Fmt4rcc:
		count := a8
		in.Index = uint32(unit(1))
		first := int(unit(2))
		in.Args = make([]int, count)
		for i := range in.Args {
			in.Args[i] = first + i
		}
	case Fmt51l:
		var v uint64
		for i := 4; i >= 1; i-- {
			v = v<<16 | uint64(unit(i))
		}
		in.A = a8
		in.Literal = int64(v)
	}
	return in, nil
}

func decodePayload(units []uint16, pos int) (Insn, error) {
	in := Insn{Addr: pos, Op: Opcode(units[pos])}
	need := func(n int) error {
		if pos+n > len(units) {
			return fmt.Errorf("%w: %s at %#x", ErrTruncated, in.Op.Name(), pos)
		}
		return nil
	}
	u32 := func(i int) uint32 { return uint32(units[pos+i]) | uint32(units[pos+i+1])<<16 }

	if err := need(2); err != nil {
		return in, err
	}
	size := int(units[pos+1])
	switch in.Op {
	case PackedSwitchPayload:
		in.Size = size*2 + 4
		if err := need(in.Size); err != nil {
			return in, err
		}
		first := int32(u32(2))
		in.Switch = make([]SwitchEntry, size)
		for i := range in.Switch {
			in.Switch[i] = SwitchEntry{Key: first + int32(i), Offset: int32(u32(4 + 2*i))}
		}
	case SparseSwitchPayload:
		in.Size = size*4 + 2
		if err := need(in.Size); err != nil {
			return in, err
		}
		in.Switch = make([]SwitchEntry, size)
		for i := range in.Switch {
			in.Switch[i] = SwitchEntry{Key: int32(u32(2 + 2*i)), Offset: int32(u32(2 + 2*size + 2*i))}
		}
	case FillArrayDataPayload:
		if err := need(4); err != nil {
			return in, err
		}
		width := size
		count := int(u32(2))
		if width != 1 && width != 2 && width != 4 && width != 8 {
			return in, fmt.Errorf("array payload at %#x: element width %d", pos, width)
		}
		in.Size = (count*width+1)/2 + 4
		if err := need(in.Size); err != nil {
			return in, err
		}
		raw := make([]byte, 0, count*width+1)
		for _, u := range units[pos+4 : pos+in.Size] {
			raw = append(raw, byte(u), byte(u>>8))
		}
		in.Array = &ArrayData{Width: width, Elems: make([]int64, count)}
		for i := range in.Array.Elems {
			in.Array.Elems[i] = signExtend(raw[i*width:(i+1)*width])
		}
	}
	return in, nil
}

// signExtend reads a little-endian two's complement value.
func signExtend(b []byte) int64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	shift := 64 - 8*uint(len(b))
	return int64(v<<shift) >> shift
}
