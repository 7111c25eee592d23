package dex

import "fmt"

// Code is a decoded code_item.
type Code struct {
	Registers int
	Ins       int
	Outs      int
	// Insns are in address order, payload pseudo-instructions included.
	Insns []Insn
	Tries []Try
}

// Try is a try_item with its handler list. Start and Count are in code
// units.
type Try struct {
	Start    int
	Count    int
	Handlers []Handler
}

// Handler is one catch clause. Type is empty for a catch-all.
type Handler struct {
	Type string
	Addr int
}

func decodeCode(df *File, off int) (*Code, error) {
	c := newCursor(df.data, off)
	code := &Code{
		Registers: int(c.u16()),
		Ins:       int(c.u16()),
		Outs:      int(c.u16()),
	}
	triesSize := int(c.u16())
	c.u32() // debug_info_off
	n := int(c.u32())
	if c.err != nil {
		return nil, c.err
	}
	if c.off+2*n > len(c.data) {
		return nil, fmt.Errorf("%w: %d code units at %#x", ErrTruncated, n, off)
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = c.u16()
	}

	if triesSize > 0 {
		if n%2 != 0 {
			c.u16()
		}
		tries, err := decodeTries(df, c, triesSize)
		if err != nil {
			return nil, err
		}
		code.Tries = tries
	}

	insns, err := decodeInsns(df, units)
	if err != nil {
		return nil, err
	}
	code.Insns = insns
	return code, nil
}

func decodeTries(df *File, c *cursor, count int) ([]Try, error) {
	type rawTry struct {
		start, count, handlerOff int
	}
	raws := make([]rawTry, count)
	for i := range raws {
		raws[i] = rawTry{int(c.u32()), int(c.u16()), int(c.u16())}
	}
	if c.err != nil {
		return nil, c.err
	}
	listOff := c.off

	p := &parser{df: df, c: c}
	tries := make([]Try, count)
	for i, r := range raws {
		h := newCursor(df.data, listOff+r.handlerOff)
		size := h.sleb()
		pairs := size
		if pairs < 0 {
			pairs = -pairs
		}
		t := Try{Start: r.start, Count: r.count}
		for j := int32(0); j < pairs && h.err == nil; j++ {
			typ := p.typ(h.uleb())
			t.Handlers = append(t.Handlers, Handler{Type: typ, Addr: int(h.uleb())})
		}
		if size <= 0 {
			t.Handlers = append(t.Handlers, Handler{Addr: int(h.uleb())})
		}
		if h.err != nil {
			return nil, h.err
		}
		if p.err != nil {
			return nil, p.err
		}
		tries[i] = t
	}
	return tries, nil
}
