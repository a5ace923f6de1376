package registry

import (
	"testing"

	"github.com/pellius-net/masterd/internal/model"
)

type fakeConn struct {
	uuid    string
	session *model.Session
}

func (f *fakeConn) UUID() string            { return f.uuid }
func (f *fakeConn) Session() *model.Session { return f.session }

func TestRegistry_AddFindRemove(t *testing.T) {
	r := New()
	c := &fakeConn{uuid: "a", session: &model.Session{User: &model.User{ID: 1, PlayerName: "Alice"}}}

	r.Add(c)

	if got := r.FindByOwnerId(1); got != c {
		t.Errorf("FindByOwnerId(1) = %v, want %v", got, c)
	}
	if got := r.FindByPlayerName("Alice"); got != c {
		t.Errorf("FindByPlayerName(Alice) = %v, want %v", got, c)
	}

	r.Remove(c)

	if got := r.FindByOwnerId(1); got != nil {
		t.Errorf("FindByOwnerId(1) after Remove = %v, want nil", got)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Remove = %d, want 0", r.Len())
	}
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := New()
	c := &fakeConn{uuid: "a", session: &model.Session{User: &model.User{ID: 1, PlayerName: "Alice"}}}

	r.Add(c)
	r.Add(c)

	if r.Len() != 1 {
		t.Errorf("Len() after double Add = %d, want 1", r.Len())
	}
}

func TestRegistry_LoginLogoutEmptiesRegistry(t *testing.T) {
	r := New()
	c := &fakeConn{uuid: "a", session: &model.Session{User: &model.User{ID: 42, PlayerName: "Bob"}}}

	r.Add(c)
	r.Remove(c)

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after login/logout", r.Len())
	}
	if got := r.FindByOwnerId(42); got != nil {
		t.Errorf("FindByOwnerId(42) = %v, want nil", got)
	}
}

func TestRegistry_FindMissingReturnsNil(t *testing.T) {
	r := New()
	if got := r.FindByOwnerId(999); got != nil {
		t.Errorf("FindByOwnerId(999) = %v, want nil", got)
	}
	if got := r.FindByPlayerName("nobody"); got != nil {
		t.Errorf("FindByPlayerName(nobody) = %v, want nil", got)
	}
}
