// Package save implements the binary save/load container (spec §4.10,
// component C11): a fixed header, a sequence of versioned chunks, each
// MessagePack-encoded and optionally Brotli-compressed, with an
// optional trailing HMAC-SHA256 integrity tag. No teacher file
// implements anything like this (minimega has no save/restore of world
// state); the wire format follows spec.md §4.10 literally. See
// DESIGN.md.
package save

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// magic identifies a hollowgrid save file.
const magic = "ULS1"

// Flag bits in SaveFileHeader.Flags.
const (
	FlagBrotli uint32 = 1 << 0
	FlagHMAC   uint32 = 1 << 1
)

// formatMajor/formatMinor are this build's container version. A reader
// rejects any file whose formatMajor differs; formatMinor differences
// are tolerated (unknown chunks/fields are skipped).
const (
	formatMajor uint16 = 1
	formatMinor uint16 = 0
)

// ErrBadMagic is returned when a file's magic bytes don't match "ULS1".
var ErrBadMagic = errors.New("save: bad magic")

// ErrFormatMajorMismatch is returned when a file's formatMajor is newer
// or older than this build understands (spec §4.10's version policy).
var ErrFormatMajorMismatch = errors.New("save: incompatible formatMajor")

// SaveFileHeader is the fixed 16-byte header preceding every chunk
// (spec §4.10): magic(4) + formatMajor(2) + formatMinor(2) + flags(4) +
// chunkCount(4), little-endian throughout.
type SaveFileHeader struct {
	FormatMajor uint16
	FormatMinor uint16
	Flags       uint32
	ChunkCount  uint32
}

const headerSize = 4 + 2 + 2 + 4 + 4

func (h SaveFileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.FormatMajor)
	binary.LittleEndian.PutUint16(buf[6:8], h.FormatMinor)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.ChunkCount)
	return buf
}

func decodeHeader(data []byte) (SaveFileHeader, []byte, error) {
	if len(data) < headerSize {
		return SaveFileHeader{}, nil, fmt.Errorf("save: truncated header (%d bytes)", len(data))
	}
	if string(data[0:4]) != magic {
		return SaveFileHeader{}, nil, ErrBadMagic
	}
	h := SaveFileHeader{
		FormatMajor: binary.LittleEndian.Uint16(data[4:6]),
		FormatMinor: binary.LittleEndian.Uint16(data[6:8]),
		Flags:       binary.LittleEndian.Uint32(data[8:12]),
		ChunkCount:  binary.LittleEndian.Uint32(data[12:16]),
	}
	if h.FormatMajor != formatMajor {
		return SaveFileHeader{}, nil, fmt.Errorf("%w: file is v%d, this build reads v%d", ErrFormatMajorMismatch, h.FormatMajor, formatMajor)
	}
	return h, data[headerSize:], nil
}
