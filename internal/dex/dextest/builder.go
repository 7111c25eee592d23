// Package dextest assembles small dex images in memory for tests.
package dextest

import (
	"bytes"
	"encoding/binary"
)

const (
	AccPublic    = 0x1
	AccPrivate   = 0x2
	AccStatic    = 0x8
	AccFinal     = 0x10
	AccBridge    = 0x40
	AccNative    = 0x100
	AccInterface = 0x200
	AccAbstract  = 0x400
	AccSynthetic = 0x1000
	AccCtor      = 0x10000
)

// Builder collects ids and classes. Indices are handed out in insertion
// order, so instruction operands can be encoded before Bytes is called.
type Builder struct {
	strings []string
	strIdx  map[string]uint32
	types   []uint32
	typIdx  map[string]uint32
	protos  []proto
	proIdx  map[string]uint32
	fields  []fieldID
	fldIdx  map[fieldID]uint32
	methods []methodID
	mthIdx  map[methodID]uint32
	classes []*Class
}

type proto struct {
	shorty uint32
	ret    uint32
	params []uint32
}

type fieldID struct {
	class, typ uint32
	name       uint32
}

type methodID struct {
	class, proto uint32
	name         uint32
}

func New() *Builder {
	return &Builder{
		strIdx: map[string]uint32{},
		typIdx: map[string]uint32{},
		proIdx: map[string]uint32{},
		fldIdx: map[fieldID]uint32{},
		mthIdx: map[methodID]uint32{},
	}
}

// String returns the index of s in the string table.
func (b *Builder) String(s string) uint32 {
	if i, ok := b.strIdx[s]; ok {
		return i
	}
	i := uint32(len(b.strings))
	b.strings = append(b.strings, s)
	b.strIdx[s] = i
	return i
}

// Type returns the index of a type descriptor.
func (b *Builder) Type(desc string) uint32 {
	if i, ok := b.typIdx[desc]; ok {
		return i
	}
	i := uint32(len(b.types))
	b.types = append(b.types, b.String(desc))
	b.typIdx[desc] = i
	return i
}

func (b *Builder) proto(ret string, params []string) uint32 {
	key := ret + "(" + joinDesc(params) + ")"
	if i, ok := b.proIdx[key]; ok {
		return i
	}
	shorty := shortyOf(ret)
	p := proto{ret: b.Type(ret)}
	for _, d := range params {
		shorty += shortyOf(d)
		p.params = append(p.params, b.Type(d))
	}
	p.shorty = b.String(shorty)
	i := uint32(len(b.protos))
	b.protos = append(b.protos, p)
	b.proIdx[key] = i
	return i
}

// Field returns the index of a field reference.
func (b *Builder) Field(class, name, typ string) uint32 {
	id := fieldID{class: b.Type(class), typ: b.Type(typ), name: b.String(name)}
	if i, ok := b.fldIdx[id]; ok {
		return i
	}
	i := uint32(len(b.fields))
	b.fields = append(b.fields, id)
	b.fldIdx[id] = i
	return i
}

// Method returns the index of a method reference.
func (b *Builder) Method(class, name, ret string, params ...string) uint32 {
	id := methodID{class: b.Type(class), proto: b.proto(ret, params), name: b.String(name)}
	if i, ok := b.mthIdx[id]; ok {
		return i
	}
	i := uint32(len(b.methods))
	b.methods = append(b.methods, id)
	b.mthIdx[id] = i
	return i
}

// Class is a class definition under construction.
type Class struct {
	b          *Builder
	desc       string
	super      string
	access     uint32
	interfaces []string
	statics    []fieldDef
	instances  []fieldDef
	direct     []*Method
	virtual    []*Method
}

type fieldDef struct {
	idx    uint32
	access uint32
}

// Class starts a class definition. An empty super marks the root class.
func (b *Builder) Class(desc, super string, access uint32) *Class {
	b.Type(desc)
	if super != "" {
		b.Type(super)
	}
	c := &Class{b: b, desc: desc, super: super, access: access}
	b.classes = append(b.classes, c)
	return c
}

func (c *Class) Implements(intfs ...string) *Class {
	for _, d := range intfs {
		c.b.Type(d)
	}
	c.interfaces = append(c.interfaces, intfs...)
	return c
}

func (c *Class) Field(name, typ string, access uint32) *Class {
	d := fieldDef{idx: c.b.Field(c.desc, name, typ), access: access}
	if access&AccStatic != 0 {
		c.statics = append(c.statics, d)
	} else {
		c.instances = append(c.instances, d)
	}
	return c
}

// Method is a method definition under construction.
type Method struct {
	idx    uint32
	access uint32
	code   *code
}

type code struct {
	registers, ins, outs uint16
	insns                []uint16
	tries                []try
}

type try struct {
	start    uint32
	count    uint16
	handlers []Handler
	catchAll int
}

// Handler is a typed catch clause.
type Handler struct {
	Type string
	Addr uint32
}

// Method declares a method. Static, private and constructor methods are
// direct; the rest are virtual.
func (c *Class) Method(name, ret string, params []string, access uint32) *Method {
	m := &Method{idx: c.b.Method(c.desc, name, ret, params...), access: access}
	if access&(AccStatic|AccPrivate|AccCtor) != 0 || name == "<init>" {
		c.direct = append(c.direct, m)
	} else {
		c.virtual = append(c.virtual, m)
	}
	return m
}

// Code attaches a body.
func (m *Method) Code(registers, ins, outs int, insns ...uint16) *Method {
	m.code = &code{registers: uint16(registers), ins: uint16(ins), outs: uint16(outs), insns: insns}
	return m
}

// Try adds a try block. catchAll is the catch-all address or -1.
func (m *Method) Try(start, count int, catchAll int, handlers ...Handler) *Method {
	m.code.tries = append(m.code.tries, try{
		start: uint32(start), count: uint16(count), handlers: handlers, catchAll: catchAll,
	})
	return m
}

// Bytes lays the image out: header, id tables, class defs, then data.
func (b *Builder) Bytes() []byte {
	// Register every handler type before the id tables are sized.
	for _, c := range b.classes {
		for _, m := range append(append([]*Method{}, c.direct...), c.virtual...) {
			if m.code == nil {
				continue
			}
			for _, t := range m.code.tries {
				for _, h := range t.handlers {
					b.Type(h.Type)
				}
			}
		}
	}

	const headerSize = 0x70
	stringIDsOff := headerSize
	typeIDsOff := stringIDsOff + 4*len(b.strings)
	protoIDsOff := typeIDsOff + 4*len(b.types)
	fieldIDsOff := protoIDsOff + 12*len(b.protos)
	methodIDsOff := fieldIDsOff + 8*len(b.fields)
	classDefsOff := methodIDsOff + 8*len(b.methods)
	dataOff := classDefsOff + 32*len(b.classes)

	data := &section{base: dataOff}

	stringOffs := make([]uint32, len(b.strings))
	for i, s := range b.strings {
		stringOffs[i] = data.pos()
		data.uleb(uint32(len(s)))
		data.raw([]byte(s))
		data.raw([]byte{0})
	}

	typeList := func(idx []uint32) uint32 {
		if len(idx) == 0 {
			return 0
		}
		data.align(4)
		off := data.pos()
		data.u32(uint32(len(idx)))
		for _, t := range idx {
			data.u16(uint16(t))
		}
		return off
	}
	protoParams := make([]uint32, len(b.protos))
	for i, p := range b.protos {
		protoParams[i] = typeList(p.params)
	}
	interfaceOffs := make([]uint32, len(b.classes))
	for i, c := range b.classes {
		var idx []uint32
		for _, d := range c.interfaces {
			idx = append(idx, b.Type(d))
		}
		interfaceOffs[i] = typeList(idx)
	}

	codeOffs := map[*Method]uint32{}
	for _, c := range b.classes {
		for _, m := range append(append([]*Method{}, c.direct...), c.virtual...) {
			if m.code != nil {
				codeOffs[m] = b.writeCode(data, m.code)
			}
		}
	}

	classDataOffs := make([]uint32, len(b.classes))
	for i, c := range b.classes {
		classDataOffs[i] = data.pos()
		data.uleb(uint32(len(c.statics)))
		data.uleb(uint32(len(c.instances)))
		data.uleb(uint32(len(c.direct)))
		data.uleb(uint32(len(c.virtual)))
		for _, list := range [][]fieldDef{c.statics, c.instances} {
			prev := uint32(0)
			for _, f := range list {
				data.uleb(f.idx - prev)
				data.uleb(f.access)
				prev = f.idx
			}
		}
		for _, list := range [][]*Method{c.direct, c.virtual} {
			prev := uint32(0)
			for _, m := range list {
				data.uleb(m.idx - prev)
				data.uleb(m.access)
				data.uleb(codeOffs[m])
				prev = m.idx
			}
		}
	}

	var out bytes.Buffer
	le := binary.LittleEndian
	hdr := make([]byte, headerSize)
	copy(hdr, "dex\n035\x00")
	fileSize := dataOff + data.buf.Len()
	le.PutUint32(hdr[32:], uint32(fileSize))
	le.PutUint32(hdr[36:], headerSize)
	le.PutUint32(hdr[40:], 0x12345678)
	put := func(at int, size, off int) {
		le.PutUint32(hdr[at:], uint32(size))
		if size > 0 {
			le.PutUint32(hdr[at+4:], uint32(off))
		}
	}
	put(56, len(b.strings), stringIDsOff)
	put(64, len(b.types), typeIDsOff)
	put(72, len(b.protos), protoIDsOff)
	put(80, len(b.fields), fieldIDsOff)
	put(88, len(b.methods), methodIDsOff)
	put(96, len(b.classes), classDefsOff)
	put(104, data.buf.Len(), dataOff)
	out.Write(hdr)

	w := func(v any) { binary.Write(&out, le, v) }
	for _, off := range stringOffs {
		w(off)
	}
	for _, s := range b.types {
		w(s)
	}
	for i, p := range b.protos {
		w([3]uint32{p.shorty, p.ret, protoParams[i]})
	}
	for _, f := range b.fields {
		w(uint16(f.class))
		w(uint16(f.typ))
		w(f.name)
	}
	for _, m := range b.methods {
		w(uint16(m.class))
		w(uint16(m.proto))
		w(m.name)
	}
	for i, c := range b.classes {
		super := uint32(0xffffffff)
		if c.super != "" {
			super = b.Type(c.super)
		}
		w([8]uint32{b.Type(c.desc), c.access, super, interfaceOffs[i], 0xffffffff, 0, classDataOffs[i], 0})
	}
	out.Write(data.buf.Bytes())
	return out.Bytes()
}

func (b *Builder) writeCode(data *section, c *code) uint32 {
	data.align(4)
	off := data.pos()
	data.u16(c.registers)
	data.u16(c.ins)
	data.u16(c.outs)
	data.u16(uint16(len(c.tries)))
	data.u32(0)
	data.u32(uint32(len(c.insns)))
	for _, u := range c.insns {
		data.u16(u)
	}
	if len(c.tries) == 0 {
		return off
	}
	if len(c.insns)%2 != 0 {
		data.u16(0)
	}

	// encoded_catch_handler_list goes to a scratch buffer first so the
	// try items can carry their handler offsets.
	var list section
	list.uleb(uint32(len(c.tries)))
	handlerOffs := make([]uint16, len(c.tries))
	for i, t := range c.tries {
		handlerOffs[i] = uint16(list.buf.Len())
		size := int32(len(t.handlers))
		if t.catchAll >= 0 {
			size = -size
		}
		list.sleb(size)
		for _, h := range t.handlers {
			list.uleb(b.Type(h.Type))
			list.uleb(h.Addr)
		}
		if t.catchAll >= 0 {
			list.uleb(uint32(t.catchAll))
		}
	}
	for i, t := range c.tries {
		data.u32(t.start)
		data.u16(t.count)
		data.u16(handlerOffs[i])
	}
	data.raw(list.buf.Bytes())
	return off
}

type section struct {
	base int
	buf  bytes.Buffer
}

func (s *section) pos() uint32 { return uint32(s.base + s.buf.Len()) }

func (s *section) align(n int) {
	for (s.base+s.buf.Len())%n != 0 {
		s.buf.WriteByte(0)
	}
}

func (s *section) raw(b []byte) { s.buf.Write(b) }

func (s *section) u16(v uint16) { binary.Write(&s.buf, binary.LittleEndian, v) }

func (s *section) u32(v uint32) { binary.Write(&s.buf, binary.LittleEndian, v) }

func (s *section) uleb(v uint32) {
	var tmp [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(tmp[:], uint64(v))
	s.buf.Write(tmp[:n])
}

func (s *section) sleb(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			s.buf.WriteByte(b)
			return
		}
		s.buf.WriteByte(b | 0x80)
	}
}

func shortyOf(desc string) string {
	if desc[0] == 'L' || desc[0] == '[' {
		return "L"
	}
	return desc[:1]
}

func joinDesc(ds []string) string {
	var b bytes.Buffer
	for _, d := range ds {
		b.WriteString(d)
	}
	return b.String()
}
