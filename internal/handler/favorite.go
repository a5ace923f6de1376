package handler

import (
	"context"
	"encoding/json"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/wire"
)

// The Favorite family lets a requester update their own saved loadout and
// cosmetics presets, independent of room or host state.

func (d *Dispatcher) handleFavoriteSetLoadout(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
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

	if err := d.Upstream.SetLoadoutWeapon(ctx, session.User.ID, body); err != nil {
		d.Logger.Warnf("handler: favorite set loadout for %d: %s", session.User.ID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}

func (d *Dispatcher) handleFavoriteSetCosmetics(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
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

	if err := d.Upstream.SetCosmeticSlot(ctx, session.User.ID, body); err != nil {
		d.Logger.Warnf("handler: favorite set cosmetics for %d: %s", session.User.ID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}
