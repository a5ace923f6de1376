// Package conn implements Conn, the wrapper around a client's TCP socket
// that owns its sequence counters, serializes writes, and optionally mirrors
// frames to a packet dumper.
package conn

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/dump"
	"github.com/pellius-net/masterd/internal/model"
)

// Conn owns one socket: its session, its per-direction sequence counters,
// and the exclusive write lane that keeps the sequence byte stamped into a
// frame equal to its actual position on the wire.
type Conn struct {
	uuid string
	sock net.Conn

	inbound  codec.Sequence
	outbound codec.Sequence

	dumper *dump.Dumper

	mu        sync.Mutex
	session   *model.Session
	destroyed bool

	writeMu sync.Mutex
}

// New wraps sock. dumper may be nil, in which case packet dumping is a
// no-op.
func New(sock net.Conn, dumper *dump.Dumper) *Conn {
	return &Conn{
		uuid:   uuid.NewString(),
		sock:   sock,
		dumper: dumper,
	}
}

// UUID returns the connection's stable identifier, assigned once at
// creation and never reused.
func (c *Conn) UUID() string { return c.uuid }

// RemoteAddr returns the socket's remote address string.
func (c *Conn) RemoteAddr() string { return c.sock.RemoteAddr().String() }

// Session returns the connection's attached session, or nil if it hasn't
// authenticated yet.
func (c *Conn) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Attach associates a session with the connection, following a successful
// login. A connection holds at most one session for its lifetime.
func (c *Conn) Attach(s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Destroyed reports whether the connection's socket has been closed.
func (c *Conn) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// NextInboundSequence advances and returns the inbound sequence counter,
// called by the read loop as each frame arrives. It is advisory only — the
// server does not reject frames for a mismatched inbound sequence.
func (c *Conn) NextInboundSequence() byte { return c.inbound.Next() }

// InboundReal returns the unbounded inbound frame count, for packet-dump
// filenames; only meaningful after NextInboundSequence has been called for
// the frame being dumped.
func (c *Conn) InboundReal() uint64 { return c.inbound.Real() }

// Send finalizes w with the connection's next outbound sequence byte and
// writes it atomically under the connection's write lock, so that the
// stamped sequence always matches the frame's actual position on the wire.
func (c *Conn) Send(w *codec.Writer) error {
	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		return model.ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	seq := c.outbound.Next()
	packetID := w.PacketID()
	frame := w.Finalize(seq)

	if c.dumper != nil {
		dup := make([]byte, len(frame))
		copy(dup, frame)
		c.dumper.Send(c.uuid, dump.Outbound, c.outbound.Real(), packetID, dup)
	}

	return c.transmit(frame)
}

// SendRaw writes a pre-finalized frame buffer as-is, under the same write
// lock as Send. Used by callers that assemble frames outside of a
// codec.Writer (e.g. forwarding another connection's packet verbatim).
func (c *Conn) SendRaw(frame []byte) error {
	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		return model.ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transmit(frame)
}

func (c *Conn) transmit(data []byte) error {
	sent := 0
	for sent < len(data) {
		n, err := c.sock.Write(data[sent:])
		if err != nil {
			return fmt.Errorf("conn: write to %s: %w", c.uuid, err)
		}
		sent += n
	}
	return nil
}

// Read satisfies io.Reader by delegating to the underlying socket, for use
// by codec.ReadFrame in the server's read loop.
func (c *Conn) Read(b []byte) (int, error) {
	return c.sock.Read(b)
}

// Close marks the connection destroyed and closes its socket. Safe to call
// more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	c.mu.Unlock()

	return c.sock.Close()
}
