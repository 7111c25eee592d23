// Package dex reads Dalvik executable images: the id tables, class
// definitions, code items and the instruction stream of every method.
package dex

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrBadIndex is returned when an item refers past the end of an id table.
var ErrBadIndex = errors.New("dex index out of range")

var errClosed = errors.New("dex file is closed")

// Proto is a decoded proto_id_item.
type Proto struct {
	Shorty string
	Return string
	Params []string
}

// FieldID is a decoded field_id_item. Descriptors are kept in Dalvik form.
type FieldID struct {
	Class string
	Type  string
	Name  string
}

// MethodID is a decoded method_id_item.
type MethodID struct {
	Class  string
	Name   string
	Params []string
	Return string
}

// File is a parsed dex image. Id tables and class definitions are decoded
// up front; method bodies are decoded on demand from the image bytes.
type File struct {
	Path   string
	Header Header

	data    []byte
	mapped  bool
	f       *os.File
	strings []string
	types   []string
	protos  []Proto
	fields  []FieldID
	methods []MethodID
	classes []*ClassDef
}

// Open maps the file at path read-only and parses it. The mapping lives
// until Close.
func Open(path string) (*File, error) {
	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if fi.Size() < headerSize {
		of.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrTruncated)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	df, err := Parse(all)
	if err != nil {
		syscall.Munmap(all)
		of.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	df.Path = path
	df.mapped = true
	df.f = of
	return df, nil
}

// Close unmaps the image and closes the underlying file. Decoded tables
// stay usable; method bodies can no longer be decoded.
func (df *File) Close() error {
	var err1, err2 error
	if df.mapped && df.data != nil {
		err1 = syscall.Munmap(df.data)
	}
	df.data = nil
	if df.f != nil {
		err2 = df.f.Close()
		df.f = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// Parse decodes an in-memory image. data must stay unmodified for as long
// as method bodies are decoded from the result.
func Parse(data []byte) (*File, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	df := &File{Header: h, data: data}
	p := &parser{df: df, c: newCursor(data, 0)}

	p.readStrings()
	p.readTypes()
	p.readProtos()
	p.readFields()
	p.readMethods()
	p.readClasses()
	if p.err != nil {
		return nil, p.err
	}
	return df, nil
}

// Classes returns the class definitions in file order.
func (df *File) Classes() []*ClassDef { return df.classes }

// Strings returns the string table.
func (df *File) Strings() []string { return df.strings }

// Types returns the type descriptor table.
func (df *File) Types() []string { return df.types }

// MethodIDs returns the method reference table.
func (df *File) MethodIDs() []MethodID { return df.methods }

// FieldIDs returns the field reference table.
func (df *File) FieldIDs() []FieldID { return df.fields }

// parser holds the first error hit while decoding tables.
type parser struct {
	df  *File
	c   *cursor
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) check() bool {
	if p.c.err != nil {
		p.fail(p.c.err)
	}
	return p.err == nil
}

func (p *parser) str(idx uint32) string {
	if int(idx) >= len(p.df.strings) {
		p.fail(fmt.Errorf("%w: string %d", ErrBadIndex, idx))
		return ""
	}
	return p.df.strings[idx]
}

func (p *parser) typ(idx uint32) string {
	if int(idx) >= len(p.df.types) {
		p.fail(fmt.Errorf("%w: type %d", ErrBadIndex, idx))
		return ""
	}
	return p.df.types[idx]
}

func (p *parser) readStrings() {
	h := &p.df.Header
	p.df.strings = make([]string, h.StringIDsSize)
	for i := range p.df.strings {
		p.c.seek(int(h.StringIDsOff) + 4*i)
		off := p.c.u32()
		p.c.seek(int(off))
		n := p.c.uleb()
		if !p.check() {
			return
		}
		s, err := decodeMUTF8(p.c.data, p.c.off, n)
		if err != nil {
			p.fail(err)
			return
		}
		p.df.strings[i] = s
	}
}

func (p *parser) readTypes() {
	h := &p.df.Header
	p.df.types = make([]string, h.TypeIDsSize)
	p.c.seek(int(h.TypeIDsOff))
	for i := range p.df.types {
		p.df.types[i] = p.str(p.c.u32())
	}
	p.check()
}

func (p *parser) typeList(off uint32) []string {
	if off == 0 {
		return nil
	}
	c := newCursor(p.c.data, int(off))
	n := c.u32()
	if c.err != nil || int(n) > len(c.data) {
		p.fail(fmt.Errorf("%w: type list at %#x", ErrTruncated, off))
		return nil
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, p.typ(uint32(c.u16())))
	}
	if c.err != nil {
		p.fail(c.err)
	}
	return out
}

func (p *parser) readProtos() {
	h := &p.df.Header
	p.df.protos = make([]Proto, h.ProtoIDsSize)
	for i := range p.df.protos {
		p.c.seek(int(h.ProtoIDsOff) + 12*i)
		shorty, ret, params := p.c.u32(), p.c.u32(), p.c.u32()
		if !p.check() {
			return
		}
		p.df.protos[i] = Proto{Shorty: p.str(shorty), Return: p.typ(ret), Params: p.typeList(params)}
	}
}

func (p *parser) readFields() {
	h := &p.df.Header
	p.df.fields = make([]FieldID, h.FieldIDsSize)
	p.c.seek(int(h.FieldIDsOff))
	for i := range p.df.fields {
		class, typ, name := p.c.u16(), p.c.u16(), p.c.u32()
		p.df.fields[i] = FieldID{Class: p.typ(uint32(class)), Type: p.typ(uint32(typ)), Name: p.str(name)}
	}
	p.check()
}

func (p *parser) readMethods() {
	h := &p.df.Header
	p.df.methods = make([]MethodID, h.MethodIDsSize)
	p.c.seek(int(h.MethodIDsOff))
	for i := range p.df.methods {
		class, proto, name := p.c.u16(), p.c.u16(), p.c.u32()
		if int(proto) >= len(p.df.protos) {
			p.fail(fmt.Errorf("%w: proto %d", ErrBadIndex, proto))
			return
		}
		pr := p.df.protos[proto]
		p.df.methods[i] = MethodID{Class: p.typ(uint32(class)), Name: p.str(name), Params: pr.Params, Return: pr.Return}
	}
	p.check()
}

func (p *parser) field(idx uint32) *FieldID {
	if int(idx) >= len(p.df.fields) {
		p.fail(fmt.Errorf("%w: field %d", ErrBadIndex, idx))
		return &FieldID{}
	}
	return &p.df.fields[idx]
}

func (p *parser) method(idx uint32) *MethodID {
	if int(idx) >= len(p.df.methods) {
		p.fail(fmt.Errorf("%w: method %d", ErrBadIndex, idx))
		return &MethodID{}
	}
	return &p.df.methods[idx]
}
