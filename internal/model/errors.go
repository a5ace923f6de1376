// Package model implements the channel/room directory and the session and
// user types that ride through it: the authoritative in-memory state the
// master server holds about connected players and the games they're in.
package model

import "errors"

// The error kinds a handler or model mutation can return. Callers match
// against these with errors.Is; they are never wrapped with enough context
// to change their identity.
var (
	// ErrBadFrame indicates a signature or length mismatch at the framing
	// layer. Fatal to the connection.
	ErrBadFrame = errors.New("model: bad frame")

	// ErrUnauthenticatedRequest indicates a handler received a packet
	// before LOGIN completed.
	ErrUnauthenticatedRequest = errors.New("model: unauthenticated request")

	// ErrBadRequest indicates a malformed payload or an out-of-range enum.
	ErrBadRequest = errors.New("model: bad request")

	// ErrConnectionClosed indicates a send was attempted on a destroyed
	// connection.
	ErrConnectionClosed = errors.New("model: connection closed")

	// ErrInvariantViolation indicates a room or channel state assertion
	// failed, e.g. a team change attempted while ready.
	ErrInvariantViolation = errors.New("model: invariant violation")

	// ErrUpstreamUnavailable indicates an HTTP transport error or a
	// non-2xx response from the user service.
	ErrUpstreamUnavailable = errors.New("model: upstream unavailable")

	// ErrNotFound indicates a lookup of a user or room returned nothing.
	ErrNotFound = errors.New("model: not found")

	// ErrBadSettings indicates a settings field failed validation against
	// its recognized enum.
	ErrBadSettings = errors.New("model: bad settings")

	// ErrBadPassword indicates a room join was attempted with a password
	// that didn't match byte-for-byte.
	ErrBadPassword = errors.New("model: bad password")

	// ErrRoomFull indicates a join was attempted against a room with no
	// free slots.
	ErrRoomFull = errors.New("model: room full")
)
