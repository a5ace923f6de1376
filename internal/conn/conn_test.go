package conn

import (
	"net"
	"testing"
	"time"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/model"
)

func newTestPipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	return New(server, nil), client
}

func TestConn_SendStampsContiguousSequence(t *testing.T) {
	c, client := newTestPipe(t)
	defer c.Close()

	const frames = 257
	done := make(chan error, 1)
	go func() {
		for i := 0; i < frames; i++ {
			w := codec.NewWriter(0x01)
			w.WriteU8(byte(i))
			if err := c.Send(w); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	var got []byte
	for i := 0; i < frames; i++ {
		f, err := codec.ReadFrame(client)
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		got = append(got, f.Sequence)
	}

	if err := <-done; err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	for i, seq := range got {
		want := byte(i % 256)
		if seq != want {
			t.Fatalf("frame %d sequence = %d, want %d", i, seq, want)
		}
	}
}

func TestConn_SendOnClosedFails(t *testing.T) {
	c, client := newTestPipe(t)
	defer client.Close()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w := codec.NewWriter(0x01)
	if err := c.Send(w); err != model.ErrConnectionClosed {
		t.Fatalf("Send() after Close() error = %v, want ErrConnectionClosed", err)
	}
}

func TestConn_AttachSession(t *testing.T) {
	c, client := newTestPipe(t)
	defer c.Close()
	defer client.Close()

	if c.Session() != nil {
		t.Fatal("new Conn has a non-nil session")
	}

	s := &model.Session{User: &model.User{ID: 42}, LoggedInAt: time.Now()}
	c.Attach(s)

	if got := c.Session(); got != s {
		t.Errorf("Session() = %v, want %v", got, s)
	}
}
