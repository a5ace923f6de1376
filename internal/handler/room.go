package handler

import (
	"context"
	"errors"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/model"
	"github.com/pellius-net/masterd/internal/wire"
)

// handleNewRoomRequest creates a room in the requester's current channel.
// If the requester is already in a room, it's force-left first — the
// server-side fix for the "ghost room" condition the source warns about.
func (d *Dispatcher) handleNewRoomRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	if session.Channel == nil {
		return c.Send(wire.SystemDialog(wire.GameRoomNotFound))
	}

	settings, err := readSettings(r)
	if err != nil {
		return err
	}
	if err := validateRequestSettings(settings); err != nil {
		return c.Send(wire.SystemDialog(wire.GameBadSettings))
	}

	if session.Room != nil {
		if err := d.leaveCurrentRoom(session); err != nil {
			return c.Send(wire.SystemDialog(wire.GameLockedInGame))
		}
	}

	room := session.Channel.CreateRoom(session.User.ID, settings)
	session.Room = room

	if err := c.Send(wire.JoinNewRoom(room.ID())); err != nil {
		return err
	}
	if err := c.Send(wire.RoomSettings(room.Snapshot())); err != nil {
		return err
	}

	d.broadcastRoomList(session.Channel)
	return nil
}

// handleJoinRoomRequest seats the requester in an existing room.
func (d *Dispatcher) handleJoinRoomRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	if session.Channel == nil {
		return c.Send(wire.SystemDialog(wire.GameRoomNotFound))
	}

	roomID, err := r.ReadU32LE()
	if err != nil {
		return err
	}
	password, err := r.ReadString()
	if err != nil {
		return err
	}

	room, ok := session.Channel.Room(int(roomID))
	if !ok {
		return c.Send(wire.SystemDialog(wire.GameRoomNotFound))
	}

	if err := room.Join(session.User.ID, password); err != nil {
		switch {
		case errors.Is(err, model.ErrBadPassword):
			return c.Send(wire.SystemDialog(wire.GameBadPassword))
		case errors.Is(err, model.ErrRoomFull):
			return c.Send(wire.SystemDialog(wire.GameRoomFull))
		default:
			return c.Send(wire.SystemDialog(wire.GameRoomNotFound))
		}
	}

	session.Room = room
	snap := room.Snapshot()

	if err := c.Send(wire.RoomSettings(snap)); err != nil {
		return err
	}
	if err := c.Send(wire.RoomRoster(snap)); err != nil {
		return err
	}

	slot := slotIndexFor(snap, session.User.ID)
	d.broadcastToRoom(room, func(userID uint32) *codec.Writer {
		return wire.NewPlayer(session.User.ID, slot)
	})

	return nil
}

// handleLeaveRoomRequest vacates the requester's current room. A ready
// occupant mid-countdown is denied with a dialog rather than silently
// dropped, per the room's invariant.
func (d *Dispatcher) handleLeaveRoomRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	if _, ok := d.roomOrDialog(c, session); !ok {
		return nil
	}

	if err := d.leaveCurrentRoom(session); err != nil {
		return c.Send(wire.SystemDialog(wire.GameLockedInGame))
	}

	if session.Channel != nil {
		d.broadcastRoomList(session.Channel)
	}
	return nil
}

// leaveCurrentRoom drives session.Room's Leave for an explicit
// LeaveRoomRequest or a NewRoomRequest's force-leave. It checks Leave's error before touching session.Room:
// on denial (a ready occupant mid-countdown) the session must still point
// at its room, since the model-side slot was never vacated.
func (d *Dispatcher) leaveCurrentRoom(session *model.Session) error {
	room := session.Room
	userID := session.User.ID

	newHost, closed, err := room.Leave(userID)
	if err != nil {
		return err
	}

	session.Room = nil
	d.finishLeavingRoom(session, room, userID, newHost, closed)
	return nil
}

// Disconnect drives a dropped connection's session out of its room and
// channel lobby with the same removal, host-change or closure broadcasts an
// explicit LeaveRoomRequest produces. It sends no room-list update, and a
// dead socket can't be denied the way a live ready-during-countdown
// request can, so it goes through Room.Disconnect instead of Room.Leave.
func (d *Dispatcher) Disconnect(c *conn.Conn) {
	session := c.Session()
	if session == nil {
		return
	}

	if session.Room != nil {
		d.disconnectFromRoom(session)
	}
	if session.Channel != nil {
		session.Channel.Members.Remove(session.User.ID)
	}
}

func (d *Dispatcher) disconnectFromRoom(session *model.Session) {
	room := session.Room
	userID := session.User.ID
	session.Room = nil

	newHost, closed, err := room.Disconnect(userID)
	if err != nil {
		d.Logger.Warnf("handler: disconnecting from room %d: %s", room.ID(), err)
		return
	}

	d.finishLeavingRoom(session, room, userID, newHost, closed)
}

// finishLeavingRoom broadcasts the removal, host migration, or closure
// that follows a vacated slot, shared by the explicit-leave and
// dropped-connection paths.
func (d *Dispatcher) finishLeavingRoom(session *model.Session, room *model.Room, userID, newHost uint32, closed bool) {
	if closed {
		if session.Channel != nil {
			session.Channel.CloseRoom(room.ID())
			d.broadcastRoomClosedToLobby(session.Channel, room.ID())
		}
		return
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.PlayerLeft(userID) })
	if newHost == userID {
		return
	}
	if newHost != 0 {
		d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.HostChanged(newHost) })
	}
}

// broadcastRoomClosedToLobby notifies every channel lobby member (not just
// the room's former occupants, who have already left) that roomID closed.
func (d *Dispatcher) broadcastRoomClosedToLobby(ch *model.Channel, roomID int) {
	for _, userID := range ch.Members.Snapshot() {
		target := d.Registry.FindByOwnerId(userID)
		if target == nil {
			continue
		}
		rc, ok := target.(*conn.Conn)
		if !ok {
			continue
		}
		if err := rc.Send(wire.RoomClosed(roomID)); err != nil {
			d.Logger.Warnf("handler: notifying %d of room closure: %s", userID, err)
		}
	}
}

// broadcastRoomList pushes an updated room listing to every member of a
// channel's lobby.
func (d *Dispatcher) broadcastRoomList(ch *model.Channel) {
	rooms := ch.Rooms()
	for _, userID := range ch.Members.Snapshot() {
		target := d.Registry.FindByOwnerId(userID)
		if target == nil {
			continue
		}
		rc, ok := target.(*conn.Conn)
		if !ok {
			continue
		}
		if err := rc.Send(wire.RoomList(rooms)); err != nil {
			d.Logger.Warnf("handler: sending room list to %d: %s", userID, err)
		}
	}
}

// handleToggleReadyRequest flips the requester's ready state.
func (d *Dispatcher) handleToggleReadyRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	newState, err := room.ToggleReady(session.User.ID)
	if err != nil {
		return c.Send(wire.SystemDialog(wire.GameLockedInGame))
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.ReadyStatus(session.User.ID, newState) })
	return nil
}

// handleUpdateSettingsRequest replaces the room's settings; host-only,
// rejected while Countdown or Ingame.
func (d *Dispatcher) handleUpdateSettingsRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	settings, err := readSettings(r)
	if err != nil {
		return err
	}
	if err := validateRequestSettings(settings); err != nil {
		return c.Send(wire.SystemDialog(wire.GameBadSettings))
	}

	if err := room.UpdateSettings(session.User.ID, settings); err != nil {
		switch {
		case errors.Is(err, model.ErrBadSettings):
			return c.Send(wire.SystemDialog(wire.GameBadSettings))
		default:
			return c.Send(wire.SystemDialog(wire.GameLockedInGame))
		}
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.RoomSettings(room.Snapshot()) })
	return nil
}

// handleSetUserTeamRequest reassigns the requester's team.
func (d *Dispatcher) handleSetUserTeamRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	teamByte, err := r.ReadU8()
	if err != nil {
		return err
	}
	team := model.Team(teamByte)

	if err := room.SetTeam(session.User.ID, team); err != nil {
		return c.Send(wire.SystemDialog(wire.GameNotReady))
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.TeamAssigned(session.User.ID, team) })
	return nil
}

// handleGameStartCountdownRequest begins, ticks, or cancels the pregame
// countdown. Host-only.
func (d *Dispatcher) handleGameStartCountdownRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	shouldCount, err := r.ReadBool()
	if err != nil {
		return err
	}
	count, err := r.ReadU8()
	if err != nil {
		return err
	}

	if session.User.ID != room.HostUserID() {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}
	if err := room.StartCountdown(session.User.ID, shouldCount, int(count)); err != nil {
		switch {
		case errors.Is(err, model.ErrInvariantViolation):
			return c.Send(wire.SystemDialog(wire.GameNeedBothTeams))
		default:
			return c.Send(wire.SystemDialog(wire.GameNotHost))
		}
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer {
		return wire.CountdownTick(int(count), !shouldCount)
	})
	return nil
}

// handleGameStartRequest drives the host's Countdown→Ingame transition, or
// a joining occupant's re-entry into an in-progress match.
func (d *Dispatcher) handleGameStartRequest(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	if err := room.GameStart(session.User.ID); err != nil {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	if session.User.ID == room.HostUserID() {
		d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.GameStarted() })
	}
	return nil
}

// handleOnGameEnd transitions Ingame→Result. Host-only.
func (d *Dispatcher) handleOnGameEnd(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	session, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	room, ok := d.roomOrDialog(c, session)
	if !ok {
		return nil
	}

	if err := room.EndGame(session.User.ID); err != nil {
		return c.Send(wire.SystemDialog(wire.GameNotHost))
	}

	d.broadcastToRoom(room, func(uint32) *codec.Writer { return wire.GameEnded() })
	return nil
}

// handleOnCloseResultWindow is local to the requester: no model mutation,
// no broadcast.
func (d *Dispatcher) handleOnCloseResultWindow(ctx context.Context, c *conn.Conn, r *codec.Reader) error {
	_, ok := d.sessionOrDrop(c)
	if !ok {
		return nil
	}
	return nil
}

func readSettings(r *codec.Reader) (model.Settings, error) {
	var s model.Settings
	name, err := r.ReadString()
	if err != nil {
		return s, err
	}
	password, err := r.ReadString()
	if err != nil {
		return s, err
	}
	m, err := r.ReadU8()
	if err != nil {
		return s, err
	}
	mode, err := r.ReadU8()
	if err != nil {
		return s, err
	}
	kill, err := r.ReadU16LE()
	if err != nil {
		return s, err
	}
	win, err := r.ReadU16LE()
	if err != nil {
		return s, err
	}
	bots, err := r.ReadBool()
	if err != nil {
		return s, err
	}

	return model.Settings{
		Name:        name,
		Password:    password,
		Map:         int(m),
		Mode:        int(mode),
		KillLimit:   int(kill),
		WinLimit:    int(win),
		BotsEnabled: bots,
	}, nil
}

func validateRequestSettings(s model.Settings) error {
	if len(s.Name) == 0 || len(s.Name) > 32 {
		return model.ErrBadSettings
	}
	return nil
}

func slotIndexFor(snap model.Snapshot, userID uint32) int {
	for i, s := range snap.Slots {
		if s.Occupied && s.UserID == userID {
			return i
		}
	}
	return -1
}
