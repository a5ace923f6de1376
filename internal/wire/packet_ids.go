// Package wire holds the packet id enumeration, outbound packet builders,
// and GAME_* dialog strings shared between handlers and clients. Individual
// wire layouts beyond what a handler needs to emit are out of scope; this
// package is deliberately thin.
package wire

// Inbound packet ids, dispatched by internal/handler.
const (
	PacketLogin   byte = 0x10
	PacketAboutMe byte = 0x11

	PacketNewRoomRequest            byte = 0x20
	PacketJoinRoomRequest           byte = 0x21
	PacketLeaveRoomRequest          byte = 0x22
	PacketToggleReadyRequest        byte = 0x23
	PacketUpdateSettingsRequest     byte = 0x24
	PacketSetUserTeamRequest        byte = 0x25
	PacketGameStartCountdownRequest byte = 0x26
	PacketGameStartRequest          byte = 0x27
	PacketOnGameEnd                 byte = 0x28
	PacketOnCloseResultWindow       byte = 0x29

	PacketHostSetInventory byte = 0x30
	PacketHostSetLoadout   byte = 0x31
	PacketHostSetBuyMenu   byte = 0x32
	PacketHostTeamChanging byte = 0x33
	PacketHostItemUsing    byte = 0x34

	PacketOptionSetBuyMenu byte = 0x40

	PacketFavoriteSetLoadout   byte = 0x50
	PacketFavoriteSetCosmetics byte = 0x51

	PacketAchievementRequest byte = 0x60
)

// Outbound packet ids, emitted by internal/handler.
const (
	PacketUserStart       byte = 0x80
	PacketAchievementBlob byte = 0x81
	PacketFullUserUpdate  byte = 0x82
	PacketInventoryBundle byte = 0x83
	PacketChannelList     byte = 0x84
	PacketRoomList        byte = 0x85

	PacketJoinNewRoom    byte = 0x90
	PacketRoomSettings   byte = 0x91
	PacketRoomRoster     byte = 0x92
	PacketNewPlayer      byte = 0x93
	PacketPlayerLeft     byte = 0x94
	PacketRoomClosed     byte = 0x95
	PacketReadyStatus    byte = 0x96
	PacketTeamAssigned   byte = 0x97
	PacketCountdownTick  byte = 0x98
	PacketGameStarted    byte = 0x99
	PacketGameEnded      byte = 0x9A
	PacketHostChanged    byte = 0x9B

	PacketSystemDialog byte = 0xA0

	PacketItemUsed byte = 0xA1

	PacketAchievementReply byte = 0xB0
)
