package model

import (
	"errors"
	"testing"
)

func newTestRoom(capacity int, host uint32, settings Settings) *Room {
	ch := newChannel(nil, 0, "test", capacity)
	return ch.CreateRoom(host, settings)
}

func TestRoom_JoinLeaveRestoresFreeSlots(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})

	before := countFree(r)

	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if _, _, err := r.Leave(2); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}

	after := countFree(r)
	if before != after {
		t.Errorf("free slots = %d after join/leave, want %d", after, before)
	}
}

func countFree(r *Room) int {
	snap := r.Snapshot()
	n := 0
	for _, s := range snap.Slots {
		if !s.Occupied {
			n++
		}
	}
	return n
}

func TestRoom_JoinFullRejected(t *testing.T) {
	r := newTestRoom(2, 1, Settings{})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}
	if err := r.Join(3, ""); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("Join(3) error = %v, want ErrRoomFull", err)
	}
}

func TestRoom_JoinWrongPasswordRejected(t *testing.T) {
	r := newTestRoom(4, 1, Settings{Password: "secret"})
	if err := r.Join(2, "x"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("Join() error = %v, want ErrBadPassword", err)
	}
	if err := r.Join(2, "secret"); err != nil {
		t.Fatalf("Join() with correct password error = %v", err)
	}
}

func TestRoom_HostMigrationOnLeave(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}
	if err := r.Join(3, ""); err != nil {
		t.Fatalf("Join(3) error = %v", err)
	}

	newHost, closed, err := r.Leave(1)
	if err != nil {
		t.Fatalf("Leave(1) error = %v", err)
	}
	if closed {
		t.Fatal("Leave(1) closed the room, want it to migrate host")
	}
	if newHost != 2 {
		t.Errorf("newHost = %d, want 2", newHost)
	}
	if r.HostUserID() != 2 {
		t.Errorf("HostUserID() = %d, want 2", r.HostUserID())
	}
}

func TestRoom_LastOccupantLeavingCloses(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	_, closed, err := r.Leave(1)
	if err != nil {
		t.Fatalf("Leave(1) error = %v", err)
	}
	if !closed {
		t.Fatal("Leave(1) did not close an empty room")
	}
	if r.StatusNow() != Closed {
		t.Errorf("StatusNow() = %v, want Closed", r.StatusNow())
	}
}

func TestRoom_HostInvariant(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}
	r.Leave(1)

	snap := r.Snapshot()
	if snap.Status == Closed {
		return
	}
	found := false
	for _, s := range snap.Slots {
		if s.Occupied && s.UserID == snap.HostUserID {
			found = true
		}
	}
	if !found {
		t.Error("host is not among occupants and room is not Closed")
	}
}

func TestRoom_SettingsLockedDuringCountdown(t *testing.T) {
	r := newTestRoom(4, 1, Settings{BotsEnabled: true})
	if err := r.StartCountdown(1, true, 5); err != nil {
		t.Fatalf("StartCountdown() error = %v", err)
	}

	err := r.UpdateSettings(1, Settings{Name: "changed", BotsEnabled: true})
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("UpdateSettings() during countdown error = %v, want ErrInvariantViolation", err)
	}

	snap := r.Snapshot()
	if snap.Settings.Name == "changed" {
		t.Error("settings changed during Countdown")
	}
}

func TestRoom_ReadyOccupantCannotLeaveDuringCountdown(t *testing.T) {
	r := newTestRoom(4, 1, Settings{BotsEnabled: true})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}
	if _, err := r.ToggleReady(2); err != nil {
		t.Fatalf("ToggleReady(2) error = %v", err)
	}
	if err := r.StartCountdown(1, true, 5); err != nil {
		t.Fatalf("StartCountdown() error = %v", err)
	}

	if _, _, err := r.Leave(2); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("Leave(2) during countdown error = %v, want ErrInvariantViolation", err)
	}
}

func TestRoom_DisconnectIgnoresReadyDuringCountdown(t *testing.T) {
	r := newTestRoom(4, 1, Settings{BotsEnabled: true})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}
	if _, err := r.ToggleReady(2); err != nil {
		t.Fatalf("ToggleReady(2) error = %v", err)
	}
	if err := r.StartCountdown(1, true, 5); err != nil {
		t.Fatalf("StartCountdown() error = %v", err)
	}

	newHost, closed, err := r.Disconnect(2)
	if err != nil {
		t.Fatalf("Disconnect(2) error = %v", err)
	}
	if closed {
		t.Fatal("Disconnect(2) closed the room, want the host's slot to remain")
	}
	if newHost != 1 {
		t.Errorf("newHost = %d, want 1 (host unchanged)", newHost)
	}

	snap := r.Snapshot()
	for _, s := range snap.Slots {
		if s.Occupied && s.UserID == 2 {
			t.Error("user 2 still occupies a slot after Disconnect")
		}
	}
}

func TestRoom_DisconnectMigratesHost(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	if err := r.Join(2, ""); err != nil {
		t.Fatalf("Join(2) error = %v", err)
	}

	newHost, closed, err := r.Disconnect(1)
	if err != nil {
		t.Fatalf("Disconnect(1) error = %v", err)
	}
	if closed {
		t.Fatal("Disconnect(1) closed the room, want it to migrate host")
	}
	if newHost != 2 {
		t.Errorf("newHost = %d, want 2", newHost)
	}
}

func TestRoom_CountdownToIngameToResult(t *testing.T) {
	r := newTestRoom(4, 1, Settings{BotsEnabled: true})

	if err := r.StartCountdown(1, true, 5); err != nil {
		t.Fatalf("StartCountdown(start) error = %v", err)
	}
	if r.StatusNow() != Countdown {
		t.Fatalf("StatusNow() = %v, want Countdown", r.StatusNow())
	}

	if err := r.GameStart(1); err != nil {
		t.Fatalf("GameStart() error = %v", err)
	}
	if r.StatusNow() != Ingame {
		t.Fatalf("StatusNow() = %v, want Ingame", r.StatusNow())
	}

	if err := r.EndGame(1); err != nil {
		t.Fatalf("EndGame() error = %v", err)
	}
	if r.StatusNow() != Result {
		t.Fatalf("StatusNow() = %v, want Result", r.StatusNow())
	}
}

func TestRoom_CannotStartWithoutBothTeamsOrBots(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	if err := r.StartCountdown(1, true, 5); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("StartCountdown() error = %v, want ErrInvariantViolation", err)
	}
}

func TestRoom_TeamChangeWhileReadyRejected(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	if _, err := r.ToggleReady(1); err != nil {
		t.Fatalf("ToggleReady() error = %v", err)
	}
	if err := r.SetTeam(1, Terror); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("SetTeam() while ready error = %v, want ErrInvariantViolation", err)
	}
}

func TestRoom_BadSettingsRejected(t *testing.T) {
	r := newTestRoom(4, 1, Settings{})
	err := r.UpdateSettings(1, Settings{Mode: 99})
	if !errors.Is(err, ErrBadSettings) {
		t.Fatalf("UpdateSettings() error = %v, want ErrBadSettings", err)
	}
}
