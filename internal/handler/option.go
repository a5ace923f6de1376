package handler

import (
	"context"
	"encoding/json"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/wire"
)

// handleOptionSetBuyMenu lets a requester push their own buy-menu
// preferences, independent of room or host state.
func (d *Dispatcher) handleOptionSetBuyMenu(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}

	payload, err := r.ReadLongString()
	if err != nil {
		return err
	}

	var body interface{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return err
	}

	if err := d.Upstream.SetBuyMenu(ctx, session.User.ID, body); err != nil {
		d.Logger.Warnf("handler: option set buy menu for %d: %s", session.User.ID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}
