package model

import "time"

// User is an opaque record sourced from the upstream user service, keyed by
// a numeric id. Everything beyond the fields handlers actually consult is
// left as raw JSON in other layers; this struct carries only what the core
// needs to route and display.
type User struct {
	ID         uint32
	Username   string
	PlayerName string
}

// Session is the post-login state attached to a connection: it links a
// connection to a User and, once joined, to a Channel and Room.
type Session struct {
	User *User

	// Channel and Room are nil until the session joins one. A session
	// belongs to at most one of each at a time.
	Channel *Channel
	Room    *Room

	RemoteAddr string
	LoggedInAt time.Time
}

// InRoom reports whether the session currently occupies a room.
func (s *Session) InRoom() bool { return s.Room != nil }

// InChannel reports whether the session currently occupies a channel.
func (s *Session) InChannel() bool { return s.Channel != nil }
