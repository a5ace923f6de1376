// Package registry implements the process-wide session registry: the set
// of live, authenticated connections, indexed by user id and by player
// name.
package registry

import (
	"sync"

	"github.com/pellius-net/masterd/internal/model"
)

// Conn is the minimal capability the registry needs from a connection: a
// stable identity plus the session it carries. internal/conn.Conn
// satisfies this without the registry needing to import it, per the design
// note that the registry resolves user id to connection on demand rather
// than holding its own strong back-references.
type Conn interface {
	UUID() string
	Session() *model.Session
}

// Registry is the process-wide, mutex-serialized directory of
// authenticated connections. The zero value is ready to use. Add is
// idempotent on the same connection; FindBy* return the unique match or
// nil.
type Registry struct {
	mu       sync.Mutex
	byUUID   map[string]Conn
	byUserID map[uint32]Conn
	byPlayer map[string]Conn
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byUUID:   make(map[string]Conn),
		byUserID: make(map[uint32]Conn),
		byPlayer: make(map[string]Conn),
	}
}

// Add registers c under its session's user id and player name. It is
// idempotent: adding the same connection twice is a no-op on the second
// call, and re-adding after a session's identity changes replaces the
// prior index entries for that connection. c must already have a session
// attached.
func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := c.Session()
	if session == nil || session.User == nil {
		return
	}

	if existing, ok := r.byUUID[c.UUID()]; ok {
		r.removeLocked(existing)
	}

	r.byUUID[c.UUID()] = c
	r.byUserID[session.User.ID] = c
	r.byPlayer[session.User.PlayerName] = c
}

// Remove unregisters c from every index. Removing a connection that was
// never added is a no-op.
func (r *Registry) Remove(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(c)
}

func (r *Registry) removeLocked(c Conn) {
	existing, ok := r.byUUID[c.UUID()]
	if !ok {
		return
	}

	delete(r.byUUID, c.UUID())
	for id, indexed := range r.byUserID {
		if indexed == existing {
			delete(r.byUserID, id)
		}
	}
	for name, indexed := range r.byPlayer {
		if indexed == existing {
			delete(r.byPlayer, name)
		}
	}
}

// FindByOwnerId returns the connection registered for userID, or nil.
func (r *Registry) FindByOwnerId(userID uint32) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUserID[userID]
}

// FindByPlayerName returns the connection registered for playerName, or
// nil.
func (r *Registry) FindByPlayerName(playerName string) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPlayer[playerName]
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUUID)
}
