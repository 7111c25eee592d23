package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PrimitiveInfo is an immutable constant: a primitive type tag plus a 64-bit
// store split into two 32-bit halves.
type PrimitiveInfo struct {
	typ  *ClassNode
	low  int32
	high int32
}

func primitiveFromLong(t *ClassNode, v int64) PrimitiveInfo {
	return PrimitiveInfo{typ: t, low: int32(v), high: int32(v >> 32)}
}

func FromInt(s *Scope, v int32) PrimitiveInfo {
	return PrimitiveInfo{typ: s.Int, low: v}
}

func FromLong(s *Scope, v int64) PrimitiveInfo {
	return primitiveFromLong(s.Long, v)
}

func FromFloat(s *Scope, v float32) PrimitiveInfo {
	return PrimitiveInfo{typ: s.Float, low: int32(math.Float32bits(v))}
}

func FromDouble(s *Scope, v float64) PrimitiveInfo {
	return primitiveFromLong(s.Double, int64(math.Float64bits(v)))
}

func FromBoolean(s *Scope, v bool) PrimitiveInfo {
	p := PrimitiveInfo{typ: s.Boolean}
	if v {
		p.low = 1
	}
	return p
}

// FromHalves builds a wide constant of type t from its two halves.
func FromHalves(t *ClassNode, low, high int32) PrimitiveInfo {
	return PrimitiveInfo{typ: t, low: low, high: high}
}

// FromValue converts a Go numeric or boolean value. Narrow integers become
// int constants, as they do in Dalvik registers.
func FromValue(s *Scope, v any) (PrimitiveInfo, error) {
	switch x := v.(type) {
	case int32:
		return FromInt(s, x), nil
	case int16:
		return FromInt(s, int32(x)), nil
	case int8:
		return FromInt(s, int32(x)), nil
	case uint16:
		return FromInt(s, int32(x)), nil
	case int:
		return FromInt(s, int32(x)), nil
	case int64:
		return FromLong(s, x), nil
	case float32:
		return FromFloat(s, x), nil
	case float64:
		return FromDouble(s, x), nil
	case bool:
		return FromBoolean(s, x), nil
	}
	return PrimitiveInfo{}, fmt.Errorf("unsupported primitive value %T", v)
}

func (p PrimitiveInfo) Type() *ClassNode { return p.typ }
func (p PrimitiveInfo) Low() int32       { return p.low }
func (p PrimitiveInfo) High() int32      { return p.high }

func (p PrimitiveInfo) bits() int64 {
	return int64(p.high)<<32 | int64(uint32(p.low))
}

func (p PrimitiveInfo) is(t func(*Scope) *ClassNode) bool {
	return p.typ != nil && p.typ == t(p.typ.scope)
}

func (p PrimitiveInfo) IsInt() bool     { return p.is(func(s *Scope) *ClassNode { return s.Int }) }
func (p PrimitiveInfo) IsLong() bool    { return p.is(func(s *Scope) *ClassNode { return s.Long }) }
func (p PrimitiveInfo) IsFloat() bool   { return p.is(func(s *Scope) *ClassNode { return s.Float }) }
func (p PrimitiveInfo) IsDouble() bool  { return p.is(func(s *Scope) *ClassNode { return s.Double }) }
func (p PrimitiveInfo) IsBoolean() bool { return p.is(func(s *Scope) *ClassNode { return s.Boolean }) }

// IsZero reports both halves clear, whatever the type.
func (p PrimitiveInfo) IsZero() bool { return p.low == 0 && p.high == 0 }

func (p PrimitiveInfo) IsSameType(o PrimitiveInfo) bool { return p.typ == o.typ }

// Equal requires the same type tag and the same bits.
func (p PrimitiveInfo) Equal(o PrimitiveInfo) bool {
	return p.typ == o.typ && p.low == o.low && p.high == o.high
}

// The value accessors reinterpret the bits; callers check the type first.

func (p PrimitiveInfo) Int() int32       { return p.low }
func (p PrimitiveInfo) Long() int64      { return p.bits() }
func (p PrimitiveInfo) Float() float32   { return math.Float32frombits(uint32(p.low)) }
func (p PrimitiveInfo) Double() float64  { return math.Float64frombits(uint64(p.bits())) }
func (p PrimitiveInfo) Boolean() bool    { return p.low == 1 }

func (p PrimitiveInfo) asInt64() int64 {
	switch {
	case p.IsLong():
		return p.Long()
	case p.IsFloat():
		return int64(p.Float())
	case p.IsDouble():
		return int64(p.Double())
	default:
		return int64(p.low)
	}
}

func (p PrimitiveInfo) asFloat64() float64 {
	switch {
	case p.IsLong():
		return float64(p.Long())
	case p.IsFloat():
		return float64(p.Float())
	case p.IsDouble():
		return p.Double()
	default:
		return float64(p.low)
	}
}

// CastTo converts the value to another primitive type the way a numeric
// cast would. Narrow integral targets (byte, short, char, boolean) yield an
// int carrying the low half.
func (p PrimitiveInfo) CastTo(t *ClassNode) PrimitiveInfo {
	s := t.scope
	switch t {
	case s.Int:
		if p.IsFloat() || p.IsDouble() {
			return FromInt(s, int32(p.asFloat64()))
		}
		return FromInt(s, int32(p.asInt64()))
	case s.Long:
		if p.IsFloat() || p.IsDouble() {
			return FromLong(s, int64(p.asFloat64()))
		}
		return FromLong(s, p.asInt64())
	case s.Float:
		return FromFloat(s, float32(p.asFloat64()))
	case s.Double:
		return FromDouble(s, p.asFloat64())
	default:
		return FromInt(s, p.low)
	}
}

// UnsafeCastTo retags the bits without converting them. char, short and
// byte are retagged as int.
func (p PrimitiveInfo) UnsafeCastTo(t *ClassNode) PrimitiveInfo {
	s := t.scope
	if t == s.Char || t == s.Short || t == s.Byte {
		t = s.Int
	}
	return PrimitiveInfo{typ: t, low: p.low, high: p.high}
}

// String renders 5, 5l, 1.0f, 1.0 or true.
func (p PrimitiveInfo) String() string {
	switch {
	case p.IsInt():
		return strconv.FormatInt(int64(p.Int()), 10)
	case p.IsLong():
		return strconv.FormatInt(p.Long(), 10) + "l"
	case p.IsBoolean():
		return strconv.FormatBool(p.Boolean())
	case p.IsFloat():
		return formatJavaFloat(float64(p.Float()), 32) + "f"
	case p.IsDouble():
		return formatJavaFloat(p.Double(), 64)
	}
	return ""
}

// formatJavaFloat prints decimal notation in [1e-3, 1e7) and computerized
// scientific notation ("1.0E10") outside it, always with a fraction digit.
func formatJavaFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, bitSize)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mant + "E" + strconv.Itoa(e)
}
