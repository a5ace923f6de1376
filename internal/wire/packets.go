package wire

import (
	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/model"
)

// Concrete field layouts below are this core's own invention — the wire
// format of individual game packets beyond header and framing is out of
// scope; these just need to be internally consistent and small.

// UserStart is the first packet sent after a successful login.
func UserStart(user *model.User, holepunchPort uint16) *codec.Writer {
	w := codec.NewWriter(PacketUserStart)
	w.WriteU32LE(user.ID)
	w.WriteString(user.Username)
	w.WriteString(user.PlayerName)
	w.WriteU16LE(holepunchPort)
	return w
}

// AchievementBlob wraps an opaque achievements payload sourced from the
// upstream service.
func AchievementBlob(blob []byte) *codec.Writer {
	w := codec.NewWriter(PacketAchievementBlob)
	w.WriteLongString(string(blob))
	return w
}

// FullUserUpdate re-sends the user's identity fields after login.
func FullUserUpdate(user *model.User) *codec.Writer {
	w := codec.NewWriter(PacketFullUserUpdate)
	w.WriteU32LE(user.ID)
	w.WriteString(user.Username)
	w.WriteString(user.PlayerName)
	return w
}

// InventoryBundle wraps the opaque inventory/cosmetics/loadout/buy-menu
// bundle fetched from upstream as a single JSON blob.
func InventoryBundle(jsonBody []byte) *codec.Writer {
	w := codec.NewWriter(PacketInventoryBundle)
	w.WriteLongString(string(jsonBody))
	return w
}

// ChannelList enumerates the configured channel servers and their
// channels.
func ChannelList(servers []*model.ChannelServer) *codec.Writer {
	w := codec.NewWriter(PacketChannelList)
	w.WriteU16LE(uint16(len(servers)))
	for _, cs := range servers {
		w.WriteString(cs.Name)
		channels := cs.Channels()
		w.WriteU16LE(uint16(len(channels)))
		for _, ch := range channels {
			w.WriteString(ch.Name)
			w.WriteU16LE(uint16(len(ch.Members.Snapshot())))
		}
	}
	return w
}

// RoomList enumerates a channel's current rooms.
func RoomList(rooms []*model.Room) *codec.Writer {
	w := codec.NewWriter(PacketRoomList)
	w.WriteU16LE(uint16(len(rooms)))
	for _, r := range rooms {
		snap := r.Snapshot()
		w.WriteU32LE(uint32(snap.ID))
		w.WriteString(snap.Settings.Name)
		w.WriteBool(snap.Settings.Password != "")
		w.WriteU8(uint8(occupantCount(snap)))
		w.WriteU8(uint8(len(snap.Slots)))
		w.WriteU8(uint8(snap.Status))
	}
	return w
}

func occupantCount(snap model.Snapshot) int {
	n := 0
	for _, s := range snap.Slots {
		if s.Occupied {
			n++
		}
	}
	return n
}

// JoinNewRoom tells the requester which room id they just created or
// joined.
func JoinNewRoom(roomID int) *codec.Writer {
	w := codec.NewWriter(PacketJoinNewRoom)
	w.WriteU32LE(uint32(roomID))
	return w
}

// RoomSettings sends a room's current settings to a member.
func RoomSettings(snap model.Snapshot) *codec.Writer {
	w := codec.NewWriter(PacketRoomSettings)
	w.WriteU32LE(uint32(snap.ID))
	w.WriteString(snap.Settings.Name)
	w.WriteBool(snap.Settings.Password != "")
	w.WriteU8(uint8(snap.Settings.Map))
	w.WriteU8(uint8(snap.Settings.Mode))
	w.WriteU16LE(uint16(snap.Settings.KillLimit))
	w.WriteU16LE(uint16(snap.Settings.WinLimit))
	w.WriteBool(snap.Settings.BotsEnabled)
	return w
}

// RoomRoster sends the occupant list of a room a member just joined.
func RoomRoster(snap model.Snapshot) *codec.Writer {
	w := codec.NewWriter(PacketRoomRoster)
	w.WriteU32LE(snap.HostUserID)
	w.WriteU8(uint8(occupantCount(snap)))
	for i, s := range snap.Slots {
		if !s.Occupied {
			continue
		}
		w.WriteU8(uint8(i))
		w.WriteU32LE(s.UserID)
		w.WriteU8(uint8(s.Ready))
		w.WriteU8(uint8(s.Team))
	}
	return w
}

// NewPlayer announces a newly joined occupant to the rest of the room.
func NewPlayer(userID uint32, slot int) *codec.Writer {
	w := codec.NewWriter(PacketNewPlayer)
	w.WriteU8(uint8(slot))
	w.WriteU32LE(userID)
	return w
}

// PlayerLeft announces an occupant's departure.
func PlayerLeft(userID uint32) *codec.Writer {
	w := codec.NewWriter(PacketPlayerLeft)
	w.WriteU32LE(userID)
	return w
}

// RoomClosed announces a room's closure to the channel lobby.
func RoomClosed(roomID int) *codec.Writer {
	w := codec.NewWriter(PacketRoomClosed)
	w.WriteU32LE(uint32(roomID))
	return w
}

// ReadyStatus announces an occupant's new ready state.
func ReadyStatus(userID uint32, ready model.ReadyState) *codec.Writer {
	w := codec.NewWriter(PacketReadyStatus)
	w.WriteU32LE(userID)
	w.WriteU8(uint8(ready))
	return w
}

// TeamAssigned announces an occupant's new team.
func TeamAssigned(userID uint32, team model.Team) *codec.Writer {
	w := codec.NewWriter(PacketTeamAssigned)
	w.WriteU32LE(userID)
	w.WriteU8(uint8(team))
	return w
}

// CountdownTick announces a countdown value, or a cancellation when value
// is 0 and canceled is true.
func CountdownTick(value int, canceled bool) *codec.Writer {
	w := codec.NewWriter(PacketCountdownTick)
	w.WriteU8(uint8(value))
	w.WriteBool(canceled)
	return w
}

// GameStarted announces the Countdown→Ingame transition.
func GameStarted() *codec.Writer {
	return codec.NewWriter(PacketGameStarted)
}

// GameEnded announces the Ingame→Result transition.
func GameEnded() *codec.Writer {
	return codec.NewWriter(PacketGameEnded)
}

// HostChanged announces a host migration.
func HostChanged(newHostUserID uint32) *codec.Writer {
	w := codec.NewWriter(PacketHostChanged)
	w.WriteU32LE(newHostUserID)
	return w
}

// SystemDialog sends one of the GAME_* dialog strings as a system-chat
// message, used in place of disconnecting the client on an
// InvariantViolation or NotFound condition.
func SystemDialog(message string) *codec.Writer {
	w := codec.NewWriter(PacketSystemDialog)
	w.WriteString(message)
	return w
}

// AchievementReply is the stubbed achievement-unlock reply: a fixed,
// opaque acknowledgement blob.
func AchievementReply() *codec.Writer {
	w := codec.NewWriter(PacketAchievementReply)
	w.WriteU8(0)
	return w
}

// ItemUsed relays an occupant's item-use notice to the rest of the room.
func ItemUsed(userID, itemID uint32) *codec.Writer {
	w := codec.NewWriter(PacketItemUsed)
	w.WriteU32LE(userID)
	w.WriteU32LE(itemID)
	return w
}
