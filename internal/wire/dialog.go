package wire

// GAME_* dialog strings are shown to the client as a system-chat message
// or dialog, in place of disconnecting it, when a handler hits an
// InvariantViolation or NotFound condition that has a user-visible
// explanation.
const (
	GameBadUsername   = "GAME_BAD_USERNAME"
	GameBadPassword   = "GAME_BAD_PASSWORD"
	GameInvalidUser   = "GAME_INVALID_USER_INFO"
	GameRoomFull      = "GAME_ROOM_FULL"
	GameRoomNotFound  = "GAME_ROOM_NOT_FOUND"
	GameNotHost       = "GAME_NOT_HOST"
	GameNotReady      = "GAME_NOT_READY_REQUIRED"
	GameBadSettings   = "GAME_BAD_SETTINGS"
	GameLockedInGame  = "GAME_SETTINGS_LOCKED"
	GameNeedBothTeams = "GAME_NEED_BOTH_TEAMS"
	GameUpstreamDown  = "GAME_SERVICE_UNAVAILABLE"
)
