package handler

import (
	"context"
	"encoding/json"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/model"
	"github.com/pellius-net/masterd/internal/wire"
)

// The Host family covers requests a room's host is trusted to push on
// behalf of the room: inventory/loadout/buy-menu bootstrap for occupants,
// and the chat-style team-changing and item-using notices relayed verbatim
// to the rest of the room.

func (d *Dispatcher) handleHostSetInventory(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}
	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	targetID, err := r.ReadU32LE()
	if err != nil {
		return err
	}
	payload, err := r.ReadLongString()
	if err != nil {
		return err
	}

	var body interface{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return err
	}

	if err := d.Upstream.CreateInventory(ctx, targetID, body); err != nil {
		d.Logger.Warnf("handler: host set inventory for %d: %s", targetID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}

func (d *Dispatcher) handleHostSetLoadout(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}
	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	targetID, err := r.ReadU32LE()
	if err != nil {
		return err
	}
	payload, err := r.ReadLongString()
	if err != nil {
		return err
	}

	var body interface{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return err
	}

	if err := d.Upstream.SetLoadoutWeapon(ctx, targetID, body); err != nil {
		d.Logger.Warnf("handler: host set loadout for %d: %s", targetID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}

func (d *Dispatcher) handleHostSetBuyMenu(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}
	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	targetID, err := r.ReadU32LE()
	if err != nil {
		return err
	}
	payload, err := r.ReadLongString()
	if err != nil {
		return err
	}

	var body interface{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return err
	}

	if err := d.Upstream.SetBuyMenu(ctx, targetID, body); err != nil {
		d.Logger.Warnf("handler: host set buy menu for %d: %s", targetID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	return nil
}

// handleHostTeamChanging relays an in-progress team-change notice to the
// rest of the room. It carries no model mutation of its own — SetTeam
// already governs the actual assignment — this is purely the live
// "someone is changing teams" cue the client displays mid-match.
func (d *Dispatcher) handleHostTeamChanging(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}
	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	targetID, err := r.ReadU32LE()
	if err != nil {
		return err
	}
	teamByte, err := r.ReadU8()
	if err != nil {
		return err
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer {
		return wire.TeamAssigned(targetID, model.Team(teamByte))
	})
	return nil
}

// handleHostItemUsing relays an item-use notice to the rest of the room.
func (d *Dispatcher) handleHostItemUsing(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}
	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	itemID, err := r.ReadU32LE()
	if err != nil {
		return err
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer {
		return wire.ItemUsed(session.User.ID, itemID)
	})
	return nil
}
