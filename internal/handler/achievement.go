package handler

import (
	"context"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/wire"
)

// handleAchievementRequest replies with a fixed acknowledgement blob.
// Achievement bookkeeping itself lives upstream; this core only needs to
// keep the client's request/reply handshake satisfied.
func (d *Dispatcher) handleAchievementRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	if _, ok := d.sessionOrDrop(c); !ok {
		return nil
	}
	return c.Send(wire.AchievementReply())
}
