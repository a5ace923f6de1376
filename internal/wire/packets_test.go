package wire

import (
	"bytes"
	"testing"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/model"
)

func decodeBody(t *testing.T, w *codec.Writer, wantID byte) *codec.Reader {
	t.Helper()
	frame := w.Finalize(0)
	f, err := codec.ReadFrame(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f.PacketID != wantID {
		t.Fatalf("PacketID = %#x, want %#x", f.PacketID, wantID)
	}
	return codec.NewReader(f.Body)
}

func TestUserStart_RoundTrip(t *testing.T) {
	u := &model.User{ID: 42, Username: "alice", PlayerName: "Alice"}
	r := decodeBody(t, UserStart(u, 30002), PacketUserStart)

	id, _ := r.ReadU32LE()
	username, _ := r.ReadString()
	playerName, _ := r.ReadString()
	port, _ := r.ReadU16LE()

	if id != 42 || username != "alice" || playerName != "Alice" || port != 30002 {
		t.Errorf("got (%d, %q, %q, %d), want (42, alice, Alice, 30002)", id, username, playerName, port)
	}
}

func TestHostChanged_RoundTrip(t *testing.T) {
	r := decodeBody(t, HostChanged(7), PacketHostChanged)
	id, err := r.ReadU32LE()
	if err != nil || id != 7 {
		t.Errorf("ReadU32LE() = %d, %v, want 7, nil", id, err)
	}
}

func TestSystemDialog_RoundTrip(t *testing.T) {
	r := decodeBody(t, SystemDialog(GameBadPassword), PacketSystemDialog)
	msg, err := r.ReadString()
	if err != nil || msg != GameBadPassword {
		t.Errorf("ReadString() = %q, %v, want %q", msg, err, GameBadPassword)
	}
}
