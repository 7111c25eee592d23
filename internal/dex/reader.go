package dex

import (
	"encoding/binary"
	"fmt"
)

// cursor reads little-endian values out of the image. The first out of
// range access records ErrTruncated; later reads return zero values so a
// decoder can check once at the end.
type cursor struct {
	data []byte
	off  int
	err  error
}

func newCursor(data []byte, off int) *cursor {
	c := &cursor{data: data}
	c.seek(off)
	return c
}

func (c *cursor) seek(off int) {
	if off < 0 || off > len(c.data) {
		c.fail(off)
		return
	}
	c.off = off
}

func (c *cursor) fail(off int) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: offset %#x", ErrTruncated, off)
	}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.data) {
		c.fail(c.off)
		return nil
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) uleb() uint32 {
	if c.err != nil {
		return 0
	}
	v, n := binary.Uvarint(c.data[c.off:])
	if n <= 0 || n > 5 {
		c.fail(c.off)
		return 0
	}
	c.off += n
	return uint32(v)
}

func (c *cursor) sleb() int32 {
	var result int32
	var shift uint
	for i := 0; i < 5; i++ {
		b := c.u8()
		if c.err != nil {
			return 0
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result
		}
	}
	c.fail(c.off)
	return 0
}
