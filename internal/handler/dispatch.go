// Package handler routes decoded packets by packet id to the operations
// named in the channel/room model, translating between wire packets and
// model mutations and emitting the resulting response packets.
package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/model"
	"github.com/pellius-net/masterd/internal/registry"
	"github.com/pellius-net/masterd/internal/upstream"
	"github.com/pellius-net/masterd/internal/wire"
)

// Dispatcher routes decoded packets by packet id to a handler method. It
// holds every piece of shared state a handler needs to resolve a request:
// the session registry, the channel directory, and the upstream client.
// Constructing one Dispatcher per Server and sharing it across
// connections matches the "registry and probe are process-wide" design.
type Dispatcher struct {
	Logger        *logrus.Logger
	Registry      *registry.Registry
	Directory     *model.Directory
	Upstream      *upstream.Client
	HolepunchPort uint16
}

// Dispatch decodes frame.Body according to frame.PacketID and invokes the
// matching handler. An unknown packet id is logged and dropped rather than
// treated as an error, per the "tagged discriminator, not ad-hoc
// polymorphism" design note.
func (d *Dispatcher) Dispatch(ctx context.Context, c *conn.Conn, frame *codec.Frame) error {
	r := codec.NewReader(frame.Body)

	switch frame.PacketID {
	case wire.PacketLogin:
		return d.handleLogin(ctx, c, r)
	case wire.PacketAboutMe:
		return d.handleAboutMe(ctx, c, r)

	case wire.PacketNewRoomRequest:
		return d.handleNewRoomRequest(ctx, c, r)
	case wire.PacketJoinRoomRequest:
		return d.handleJoinRoomRequest(ctx, c, r)
	case wire.PacketLeaveRoomRequest:
		return d.handleLeaveRoomRequest(ctx, c, r)
	case wire.PacketToggleReadyRequest:
		return d.handleToggleReadyRequest(ctx, c, r)
	case wire.PacketUpdateSettingsRequest:
		return d.handleUpdateSettingsRequest(ctx, c, r)
	case wire.PacketSetUserTeamRequest:
		return d.handleSetUserTeamRequest(ctx, c, r)
	case wire.PacketGameStartCountdownRequest:
		return d.handleGameStartCountdownRequest(ctx, c, r)
	case wire.PacketGameStartRequest:
		return d.handleGameStartRequest(ctx, c, r)
	case wire.PacketOnGameEnd:
		return d.handleOnGameEnd(ctx, c, r)
	case wire.PacketOnCloseResultWindow:
		return d.handleOnCloseResultWindow(ctx, c, r)

	case wire.PacketHostSetInventory:
		return d.handleHostSetInventory(ctx, c, r)
	case wire.PacketHostSetLoadout:
		return d.handleHostSetLoadout(ctx, c, r)
	case wire.PacketHostSetBuyMenu:
		return d.handleHostSetBuyMenu(ctx, c, r)
	case wire.PacketHostTeamChanging:
		return d.handleHostTeamChanging(ctx, c, r)
	case wire.PacketHostItemUsing:
		return d.handleHostItemUsing(ctx, c, r)

	case wire.PacketOptionSetBuyMenu:
		return d.handleOptionSetBuyMenu(ctx, c, r)

	case wire.PacketFavoriteSetLoadout:
		return d.handleFavoriteSetLoadout(ctx, c, r)
	case wire.PacketFavoriteSetCosmetics:
		return d.handleFavoriteSetCosmetics(ctx, c, r)

	case wire.PacketAchievementRequest:
		return d.handleAchievementRequest(ctx, c, r)

	default:
		d.Logger.Infof("handler: unknown packet id %#x from %s", frame.PacketID, c.UUID())
		return nil
	}
}

// sessionOrDrop returns c's session, logging and signaling the caller to
// drop the packet if the connection hasn't authenticated yet.
func (d *Dispatcher) sessionOrDrop(c *conn.Conn) (*model.Session, bool) {
	s := c.Session()
	if s == nil {
		d.Logger.Warnf("handler: unauthenticated request from %s", c.UUID())
		return nil, false
	}
	return s, true
}

// defaultChannel returns the first configured channel, the channel every
// session lands in on login.
func (d *Dispatcher) defaultChannel() (*model.Channel, error) {
	server, err := d.Directory.GetServerByIndex(0)
	if err != nil {
		return nil, err
	}
	return server.GetChannelByIndex(0)
}

// roomOrDialog returns the session's current room, sending a
// NotFound-style dialog and returning false if the session isn't in one.
func (d *Dispatcher) roomOrDialog(c *conn.Conn, s *model.Session) (*model.Room, bool) {
	if s.Room == nil {
		_ = c.Send(wire.SystemDialog(wire.GameRoomNotFound))
		return nil, false
	}
	return s.Room, true
}

// broadcastToRoom sends w to every occupant of r currently resolvable
// through the registry, skipping any that no longer have a live
// connection. The lookup happens outside of any room or channel lock.
func (d *Dispatcher) broadcastToRoom(r *model.Room, build func(userID uint32) *codec.Writer) {
	for _, userID := range r.Occupants() {
		target := d.Registry.FindByOwnerId(userID)
		if target == nil {
			continue
		}
		rc, ok := target.(*conn.Conn)
		if !ok {
			continue
		}
		if err := rc.Send(build(userID)); err != nil {
			d.Logger.Warnf("handler: broadcast to %d failed: %s", userID, err)
		}
	}
}
