package dex

import (
	"fmt"
	"unicode/utf16"
)

// decodeMUTF8 decodes a NUL-terminated modified UTF-8 string starting at
// off. utf16Len is the length recorded in the string_data_item.
func decodeMUTF8(data []byte, off int, utf16Len uint32) (string, error) {
	units := make([]uint16, 0, utf16Len)
	for i := off; ; {
		if i >= len(data) {
			return "", fmt.Errorf("%w: unterminated string at %#x", ErrTruncated, off)
		}
		b := data[i]
		switch {
		case b == 0:
			return string(utf16.Decode(units)), nil
		case b < 0x80:
			units = append(units, uint16(b))
			i++
		case b&0xe0 == 0xc0:
			if i+1 >= len(data) {
				return "", fmt.Errorf("%w: string at %#x", ErrTruncated, off)
			}
			units = append(units, uint16(b&0x1f)<<6|uint16(data[i+1]&0x3f))
			i += 2
		case b&0xf0 == 0xe0:
			if i+2 >= len(data) {
				return "", fmt.Errorf("%w: string at %#x", ErrTruncated, off)
			}
			units = append(units, uint16(b&0x0f)<<12|uint16(data[i+1]&0x3f)<<6|uint16(data[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("bad modified utf-8 byte %#x at %#x", b, i)
		}
	}
}
