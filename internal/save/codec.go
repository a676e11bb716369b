package save

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"
)

func encodeChunkHeader(h chunkHeader) []byte {
	buf := make([]byte, chunkHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.ID))
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	// buf[6:8] reserved, left zero
	binary.LittleEndian.PutUint32(buf[8:12], h.PayloadLength)
	return buf
}

func decodeChunkHeader(data []byte) (chunkHeader, []byte, error) {
	if len(data) < chunkHeaderSize {
		return chunkHeader{}, nil, io.ErrUnexpectedEOF
	}
	h := chunkHeader{
		ID:            chunkID(binary.LittleEndian.Uint32(data[0:4])),
		Version:       binary.LittleEndian.Uint16(data[4:6]),
		PayloadLength: binary.LittleEndian.Uint32(data[8:12]),
	}
	return h, data[chunkHeaderSize:], nil
}

func brotliCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, 6)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
