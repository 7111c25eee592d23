package dex

import "fmt"

// ClassDef is one class_def_item with its class_data decoded.
type ClassDef struct {
	Descriptor string
	// Super is empty for the root class.
	Super      string
	Interfaces []string
	Access     uint32
	SourceFile string

	StaticFields   []Field
	InstanceFields []Field
	DirectMethods  []*Method
	VirtualMethods []*Method
}

// Methods returns direct methods followed by virtual methods.
func (c *ClassDef) Methods() []*Method {
	out := make([]*Method, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	out = append(out, c.DirectMethods...)
	return append(out, c.VirtualMethods...)
}

// Field is an encoded_field.
type Field struct {
	FieldID
	Access uint32
}

// Method is an encoded_method. Its body is decoded by Code.
type Method struct {
	MethodID
	Access uint32

	codeOff uint32
	file    *File
}

// HasCode reports whether the method carries a code item. Abstract and
// native methods do not.
func (m *Method) HasCode() bool { return m.codeOff != 0 }

// Code decodes the method body. It returns nil, nil for methods without
// a code item.
func (m *Method) Code() (*Code, error) {
	if m.codeOff == 0 {
		return nil, nil
	}
	if m.file.data == nil {
		return nil, errClosed
	}
	code, err := decodeCode(m.file, int(m.codeOff))
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", m.Class, m.Name, err)
	}
	return code, nil
}

func (p *parser) readClasses() {
	if p.err != nil {
		return
	}
	h := &p.df.Header
	p.df.classes = make([]*ClassDef, 0, h.ClassDefsSize)
	for i := 0; i < int(h.ClassDefsSize); i++ {
		p.c.seek(int(h.ClassDefsOff) + classDefSize*i)
		var raw [8]uint32
		for j := range raw {
			raw[j] = p.c.u32()
		}
		if !p.check() {
			return
		}
		cd := &ClassDef{
			Descriptor: p.typ(raw[0]),
			Access:     raw[1],
			Interfaces: p.typeList(raw[3]),
		}
		if raw[2] != noIndex {
			cd.Super = p.typ(raw[2])
		}
		if raw[4] != noIndex {
			cd.SourceFile = p.str(raw[4])
		}
		if raw[6] != 0 {
			p.readClassData(cd, raw[6])
		}
		if p.err != nil {
			return
		}
		p.df.classes = append(p.df.classes, cd)
	}
}

func (p *parser) readClassData(cd *ClassDef, off uint32) {
	c := newCursor(p.c.data, int(off))
	statics, instances := c.uleb(), c.uleb()
	directs, virtuals := c.uleb(), c.uleb()

	readFields := func(n uint32) []Field {
		var out []Field
		idx := uint32(0)
		for i := uint32(0); i < n && c.err == nil; i++ {
			idx += c.uleb()
			access := c.uleb()
			out = append(out, Field{FieldID: *p.field(idx), Access: access})
		}
		return out
	}
	readMethods := func(n uint32) []*Method {
		var out []*Method
		idx := uint32(0)
		for i := uint32(0); i < n && c.err == nil; i++ {
			idx += c.uleb()
			access, code := c.uleb(), c.uleb()
			out = append(out, &Method{MethodID: *p.method(idx), Access: access, codeOff: code, file: p.df})
		}
		return out
	}

	cd.StaticFields = readFields(statics)
	cd.InstanceFields = readFields(instances)
	cd.DirectMethods = readMethods(directs)
	cd.VirtualMethods = readMethods(virtuals)
	if c.err != nil {
		p.fail(fmt.Errorf("class data of %s: %w", cd.Descriptor, c.err))
	}
}
