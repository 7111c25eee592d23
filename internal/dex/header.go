package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerSize   = 0x70
	classDefSize = 32
	endianTag    = 0x12345678
	noIndex      = 0xffffffff
)

var (
	// ErrBadMagic is returned for images that do not start with a dex magic.
	ErrBadMagic = errors.New("not a dex file")
	// ErrTruncated is returned when a table or item runs past the image.
	ErrTruncated = errors.New("truncated dex image")
)

// Header is the fixed header_item at the start of every image. Fields are
// exported so binary.Read can fill them.
type Header struct {
	Magic         [8]byte
	Checksum      uint32
	Signature     [20]byte
	FileSize      uint32
	HeaderSize    uint32
	EndianTag     uint32
	LinkSize      uint32
	LinkOff       uint32
	MapOff        uint32
	StringIDsSize uint32
	StringIDsOff  uint32
	TypeIDsSize   uint32
	TypeIDsOff    uint32
	ProtoIDsSize  uint32
	ProtoIDsOff   uint32
	FieldIDsSize  uint32
	FieldIDsOff   uint32
	MethodIDsSize uint32
	MethodIDsOff  uint32
	ClassDefsSize uint32
	ClassDefsOff  uint32
	DataSize      uint32
	DataOff       uint32
}

// Version returns the three digit format version from the magic, e.g. "035".
func (h *Header) Version() string { return string(h.Magic[4:7]) }

func readHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < headerSize {
		return h, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:4], []byte("dex\n")) || data[7] != 0 {
		return h, ErrBadMagic
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.EndianTag != endianTag {
		return h, fmt.Errorf("unsupported endian tag %#x", h.EndianTag)
	}
	if h.HeaderSize < headerSize {
		return h, fmt.Errorf("%w: header_size %#x", ErrTruncated, h.HeaderSize)
	}
	return h, nil
}
