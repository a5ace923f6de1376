package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrShortRead is returned when a typed read runs past the end of the body.
var ErrShortRead = errors.New("codec: read past end of packet body")

// ErrStringLength is returned when a decoded PacketString/PacketLongString's
// declared length doesn't match the UTF-8 byte count of the bytes consumed.
var ErrStringLength = errors.New("codec: declared string length does not match consumed bytes")

// Reader decodes the typed values that make up a packet body, in the order
// they were written by a Writer on the peer.
type Reader struct {
	body []byte
	pos  int
}

// NewReader wraps body (a Frame's Body, i.e. everything after the packet
// id) for sequential typed reads.
func NewReader(body []byte) *Reader {
	return &Reader{body: body}
}

// Remaining returns the number of unread bytes left in the body.
func (r *Reader) Remaining() int { return len(r.body) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.body) {
		return nil, ErrShortRead
	}
	b := r.body[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

func (r *Reader) ReadU16LE() (uint16, error) { return readFixed[uint16](r, binary.LittleEndian) }
func (r *Reader) ReadU16BE() (uint16, error) { return readFixed[uint16](r, binary.BigEndian) }
func (r *Reader) ReadI16LE() (int16, error) {
	v, err := r.ReadU16LE()
	return int16(v), err
}
func (r *Reader) ReadI16BE() (int16, error) {
	v, err := r.ReadU16BE()
	return int16(v), err
}

func (r *Reader) ReadU32LE() (uint32, error) { return readFixed[uint32](r, binary.LittleEndian) }
func (r *Reader) ReadU32BE() (uint32, error) { return readFixed[uint32](r, binary.BigEndian) }
func (r *Reader) ReadI32LE() (int32, error) {
	v, err := r.ReadU32LE()
	return int32(v), err
}
func (r *Reader) ReadI32BE() (int32, error) {
	v, err := r.ReadU32BE()
	return int32(v), err
}

func (r *Reader) ReadU64LE() (uint64, error) { return readFixed[uint64](r, binary.LittleEndian) }
func (r *Reader) ReadU64BE() (uint64, error) { return readFixed[uint64](r, binary.BigEndian) }
func (r *Reader) ReadI64LE() (int64, error) {
	v, err := r.ReadU64LE()
	return int64(v), err
}
func (r *Reader) ReadI64BE() (int64, error) {
	v, err := r.ReadU64BE()
	return int64(v), err
}

func readFixed[T uint16 | uint32 | uint64](r *Reader, order binary.ByteOrder) (T, error) {
	var v T
	var size int
	switch any(v).(type) {
	case uint16:
		size = 2
	case uint32:
		size = 4
	case uint64:
		size = 8
	}
	b, err := r.take(size)
	if err != nil {
		return 0, err
	}
	buf := bytes.NewReader(b)
	if err := binary.Read(buf, order, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadString decodes a PacketString: a one-byte length prefix followed by
// that many UTF-8 bytes. It returns ErrStringLength if the declared length
// doesn't match the byte count of the decoded string (which can only
// happen if the consumed bytes aren't valid UTF-8 of the declared size).
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) || len(b) != int(n) {
		return "", fmt.Errorf("%w: declared %d, got %d valid UTF-8 bytes", ErrStringLength, n, len(b))
	}
	return string(b), nil
}

// ReadLongString decodes a PacketLongString: a two-byte little-endian
// length prefix followed by that many UTF-8 bytes.
func (r *Reader) ReadLongString() (string, error) {
	n, err := r.ReadU16LE()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) || len(b) != int(n) {
		return "", fmt.Errorf("%w: declared %d, got %d valid UTF-8 bytes", ErrStringLength, n, len(b))
	}
	return string(b), nil
}
