package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/model"
	"github.com/pellius-net/masterd/internal/wire"
)

// handleLogin authenticates against the upstream service and, on success,
// creates and attaches a session, registers the connection, and sends the
// post-login packet sequence: UserStart, the achievements blob,
// FullUserUpdate, the inventory bundle, then the channel list.
func (d *Dispatcher) handleLogin(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	username, err := r.ReadString()
	if err != nil {
		return err
	}
	password, err := r.ReadString()
	if err != nil {
		return err
	}

	userID, err := d.Upstream.Login(ctx, username, password)
	if err != nil {
		d.Logger.Warnf("handler: login upstream error for %s: %s", username, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}

	if userID == 0 {
		return c.Send(wire.SystemDialog(wire.GameBadUsername))
	}
	if userID == -1 {
		return c.Send(wire.SystemDialog(wire.GameBadPassword))
	}

	user, err := d.Upstream.GetById(ctx, uint32(userID))
	if err != nil {
		d.Logger.Warnf("handler: fetching user %d after login: %s", userID, err)
		return c.Send(wire.SystemDialog(wire.GameUpstreamDown))
	}
	if user == nil {
		return c.Send(wire.SystemDialog(wire.GameInvalidUser))
	}

	session := &model.Session{
		User:       user,
		RemoteAddr: c.RemoteAddr(),
		LoggedInAt: time.Now(),
	}
	c.Attach(session)
	d.Registry.Add(c)

	// The distilled model names no separate join-channel operation, but
	// room handlers require a session already "in a channel". Every
	// session lands in the first configured channel on login.
	if defaultChannel, err := d.defaultChannel(); err == nil {
		session.Channel = defaultChannel
		defaultChannel.Members.Add(user.ID)
	}

	if err := c.Send(wire.UserStart(user, d.HolepunchPort)); err != nil {
		return err
	}
	if err := c.Send(wire.AchievementBlob(nil)); err != nil {
		return err
	}
	if err := c.Send(wire.FullUserUpdate(user)); err != nil {
		return err
	}

	bundle, err := d.fetchInventoryBundle(ctx, user.ID)
	if err != nil && !errors.Is(err, model.ErrUpstreamUnavailable) {
		return err
	}
	if err := c.Send(wire.InventoryBundle(bundle)); err != nil {
		return err
	}

	return c.Send(wire.ChannelList(d.Directory.Servers()))
}

// fetchInventoryBundle pulls the four inventory sub-resources and packs
// them into a single JSON object. An upstream error degrades to an empty
// bundle rather than failing the whole login.
func (d *Dispatcher) fetchInventoryBundle(ctx context.Context, userID uint32) ([]byte, error) {
	bundle := map[string]json.RawMessage{}

	fetch := func(name string, get func(context.Context, uint32, interface{}) error) {
		var raw json.RawMessage
		if err := get(ctx, userID, &raw); err != nil {
			d.Logger.Warnf("handler: fetching %s for user %d: %s", name, userID, err)
			return
		}
		bundle[name] = raw
	}

	fetch("inventory", d.Upstream.GetInventory)
	fetch("cosmetics", d.Upstream.GetCosmetics)
	fetch("loadout", d.Upstream.GetLoadouts)
	fetch("buymenu", d.Upstream.GetBuyMenu)

	return json.Marshal(bundle)
}

// handleAboutMe replies with the requester's own user record, used by the
// client to refresh its locally cached identity.
func (d *Dispatcher) handleAboutMe(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	return c.Send(wire.FullUserUpdate(session.User))
}
