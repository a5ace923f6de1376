package codec

import (
	"bytes"
	"encoding/binary"
)

// Writer assembles a single outbound packet into a growable buffer. The
// first HeaderSize bytes are reserved for the frame header and patched in
// by Finalize once the sequence byte for this connection direction is
// known, matching the "assembled into a growable buffer, header patched on
// finalization" contract in the framing design.
type Writer struct {
	buf      bytes.Buffer
	packetID byte
}

// NewWriter starts a new outbound packet for the given packet id. The
// packet id immediately follows the reserved header bytes in the buffer.
func NewWriter(packetID byte) *Writer {
	w := &Writer{packetID: packetID}
	w.buf.Write(make([]byte, HeaderSize))
	w.buf.WriteByte(packetID)
	return w
}

// PacketID returns the packet id this writer was created with.
func (w *Writer) PacketID() byte { return w.packetID }

// Finalize patches the sequence byte and body length into the reserved
// header and returns the complete frame ready to be written to the wire.
// The length recorded is the number of bytes following the length field
// itself (the packet id byte plus the body), per the frame layout.
func (w *Writer) Finalize(sequence byte) []byte {
	out := w.buf.Bytes()
	out[0] = Signature
	out[1] = sequence
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(out)-HeaderSize))
	return out
}

// Len returns the number of payload bytes written so far, not counting the
// reserved header.
func (w *Writer) Len() int { return w.buf.Len() - HeaderSize }

func (w *Writer) WriteU8(v uint8)  { w.buf.WriteByte(v) }
func (w *Writer) WriteI8(v int8)   { w.buf.WriteByte(byte(v)) }
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteU16LE(v uint16) { w.writeFixed(binary.LittleEndian, v) }
func (w *Writer) WriteU16BE(v uint16) { w.writeFixed(binary.BigEndian, v) }
func (w *Writer) WriteI16LE(v int16)  { w.writeFixed(binary.LittleEndian, uint16(v)) }
func (w *Writer) WriteI16BE(v int16)  { w.writeFixed(binary.BigEndian, uint16(v)) }

func (w *Writer) WriteU32LE(v uint32) { w.writeFixed(binary.LittleEndian, v) }
func (w *Writer) WriteU32BE(v uint32) { w.writeFixed(binary.BigEndian, v) }
func (w *Writer) WriteI32LE(v int32)  { w.writeFixed(binary.LittleEndian, uint32(v)) }
func (w *Writer) WriteI32BE(v int32)  { w.writeFixed(binary.BigEndian, uint32(v)) }

func (w *Writer) WriteU64LE(v uint64) { w.writeFixed(binary.LittleEndian, v) }
func (w *Writer) WriteU64BE(v uint64) { w.writeFixed(binary.BigEndian, v) }
func (w *Writer) WriteI64LE(v int64)  { w.writeFixed(binary.LittleEndian, uint64(v)) }
func (w *Writer) WriteI64BE(v int64)  { w.writeFixed(binary.BigEndian, uint64(v)) }

func (w *Writer) writeFixed(order binary.ByteOrder, v interface{}) {
	// binary.Write never fails against a bytes.Buffer for fixed-size values.
	_ = binary.Write(&w.buf, order, v)
}

// WriteString encodes s as PacketString: a one-byte length prefix holding
// the exact number of encoded UTF-8 bytes, followed by those bytes.
func (w *Writer) WriteString(s string) {
	w.buf.WriteByte(byte(len(s)))
	w.buf.WriteString(s)
}

// WriteLongString encodes s as PacketLongString: a two-byte little-endian
// length prefix holding the exact number of encoded UTF-8 bytes.
func (w *Writer) WriteLongString(s string) {
	binary.Write(&w.buf, binary.LittleEndian, uint16(len(s)))
	w.buf.WriteString(s)
}
