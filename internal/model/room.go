package model

import (
	"fmt"
	"sync"
)

// Status is a room's position in its match lifecycle.
type Status int

const (
	Waiting Status = iota
	Countdown
	Ingame
	Result
	Closed
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case Countdown:
		return "Countdown"
	case Ingame:
		return "Ingame"
	case Result:
		return "Result"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ReadyState is a slot occupant's readiness to start a match.
type ReadyState int

const (
	NotReady ReadyState = iota
	Ready
	IngameReady
)

// Team is a slot occupant's side.
type Team int

const (
	NoTeam Team = iota
	Terror
	Counter
)

// Slot is one position in a room's fixed-capacity roster.
type Slot struct {
	Occupied bool
	UserID   uint32
	Ready    ReadyState
	Team     Team

	// LoadoutCache and CosmeticsCache hold the upstream-sourced blobs the
	// room needs to hand back to other clients without a further upstream
	// round trip; their contents are opaque to this package.
	LoadoutCache   []byte
	CosmeticsCache []byte
}

// Settings is a room's mutable configuration, validated against the
// enumerations in validateSettings before being applied.
type Settings struct {
	Name        string
	Password    string
	Map         int
	Mode        int
	KillLimit   int
	WinLimit    int
	BotsEnabled bool
}

// Room is a single match-making session: a fixed-capacity roster of slots,
// a host, settings, and a countdown/ingame state machine. All mutation goes
// through its methods, which serialize access with a single mutex — callers
// must not read or write Slots/Status/Settings directly.
type Room struct {
	mu sync.Mutex

	id      int
	channel *Channel

	hostUserID uint32
	joinOrder  []uint32

	slots []Slot

	status         Status
	countdownValue int
	settings       Settings
}

// newRoom constructs a room with hostUserID occupying slot 0. Called only
// by Channel.CreateRoom, which assigns the id.
func newRoom(id int, channel *Channel, capacity int, hostUserID uint32, settings Settings) *Room {
	r := &Room{
		id:         id,
		channel:    channel,
		hostUserID: hostUserID,
		joinOrder:  []uint32{hostUserID},
		slots:      make([]Slot, capacity),
		status:     Waiting,
		settings:   settings,
	}
	r.slots[0] = Slot{Occupied: true, UserID: hostUserID}
	return r
}

func (r *Room) ID() int           { return r.id }
func (r *Room) Channel() *Channel { return r.channel }

// Snapshot is a point-in-time copy of room state safe to read without
// holding the room's lock, used by handlers to build response packets.
type Snapshot struct {
	ID             int
	HostUserID     uint32
	Slots          []Slot
	Status         Status
	CountdownValue int
	Settings       Settings
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots := make([]Slot, len(r.slots))
	copy(slots, r.slots)

	return Snapshot{
		ID:             r.id,
		HostUserID:     r.hostUserID,
		Slots:          slots,
		Status:         r.status,
		CountdownValue: r.countdownValue,
		Settings:       r.settings,
	}
}

func (r *Room) HostUserID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostUserID
}

func (r *Room) StatusNow() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Occupants returns the user ids currently seated, in join order.
func (r *Room) Occupants() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, len(r.joinOrder))
	copy(out, r.joinOrder)
	return out
}

func (r *Room) freeSlotIndex() int {
	for i := range r.slots {
		if !r.slots[i].Occupied {
			return i
		}
	}
	return -1
}

func (r *Room) slotFor(userID uint32) int {
	for i := range r.slots {
		if r.slots[i].Occupied && r.slots[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Join seats userID in the first free slot. password is compared
// byte-for-byte against the room's configured password; an empty
// configured password means the room is public.
func (r *Room) Join(userID uint32, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == Closed {
		return fmt.Errorf("%w: room closed", ErrNotFound)
	}
	if r.settings.Password != "" && r.settings.Password != password {
		return ErrBadPassword
	}

	idx := r.freeSlotIndex()
	if idx < 0 {
		return ErrRoomFull
	}

	r.slots[idx] = Slot{Occupied: true, UserID: userID}
	r.joinOrder = append(r.joinOrder, userID)
	return nil
}

// Leave vacates userID's slot. If userID was host, the earliest-joined
// remaining occupant becomes host; if no occupants remain, the room closes.
// It returns the new host (0 if the room closed) and whether it closed.
// A ready occupant may not leave mid-countdown; see Disconnect for the
// dropped-connection case, which has no such restriction.
func (r *Room) Leave(userID uint32) (newHost uint32, closed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.slotFor(userID)
	if idx < 0 {
		return 0, false, ErrNotFound
	}

	if r.status == Countdown && r.slots[idx].Ready != NotReady {
		return 0, false, fmt.Errorf("%w: ready occupant cannot leave during countdown", ErrInvariantViolation)
	}

	return r.vacateLocked(userID, idx)
}

// Disconnect vacates userID's slot the same way Leave does, but skips the
// ready-during-countdown denial: a dropped connection can't stay seated
// just because its last known state was ready.
func (r *Room) Disconnect(userID uint32) (newHost uint32, closed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.slotFor(userID)
	if idx < 0 {
		return 0, false, ErrNotFound
	}

	return r.vacateLocked(userID, idx)
}

func (r *Room) vacateLocked(userID uint32, idx int) (newHost uint32, closed bool, err error) {
	r.slots[idx] = Slot{}
	r.removeFromJoinOrder(userID)

	if len(r.joinOrder) == 0 {
		r.status = Closed
		return 0, true, nil
	}

	if r.hostUserID == userID {
		r.hostUserID = r.joinOrder[0]
	}

	return r.hostUserID, false, nil
}

func (r *Room) removeFromJoinOrder(userID uint32) {
	for i, id := range r.joinOrder {
		if id == userID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			return
		}
	}
}

// ToggleReady flips userID's readiness between NotReady and Ready. Only
// valid while the room is Waiting.
func (r *Room) ToggleReady(userID uint32) (ReadyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != Waiting {
		return 0, fmt.Errorf("%w: room not waiting", ErrInvariantViolation)
	}

	idx := r.slotFor(userID)
	if idx < 0 {
		return 0, ErrNotFound
	}

	if r.slots[idx].Ready == NotReady {
		r.slots[idx].Ready = Ready
	} else {
		r.slots[idx].Ready = NotReady
	}
	return r.slots[idx].Ready, nil
}

// UpdateSettings replaces the room's settings, but only for the host and
// never while the room is in Countdown or Ingame. Fields in patch are
// validated before being applied.
func (r *Room) UpdateSettings(userID uint32, patch Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.hostUserID {
		return fmt.Errorf("%w: not host", ErrInvariantViolation)
	}
	if r.status == Countdown || r.status == Ingame {
		return fmt.Errorf("%w: settings locked during %s", ErrInvariantViolation, r.status)
	}
	if err := validateSettings(patch); err != nil {
		return err
	}

	r.settings = patch
	return nil
}

// SetTeam assigns userID's team. Not-ready is required; if bots are
// enabled only the host may reassign teams.
func (r *Room) SetTeam(userID uint32, team Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.slotFor(userID)
	if idx < 0 {
		return ErrNotFound
	}
	if r.slots[idx].Ready != NotReady {
		return fmt.Errorf("%w: cannot change team while ready", ErrInvariantViolation)
	}
	if r.settings.BotsEnabled && userID != r.hostUserID {
		return fmt.Errorf("%w: only host may assign teams with bots enabled", ErrInvariantViolation)
	}

	r.slots[idx].Team = team
	return nil
}

// CanStartGame reports whether the room satisfies the precondition for
// GameStartCountdownRequest: both teams non-empty, or bots are enabled.
func (r *Room) CanStartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canStartGameLocked()
}

func (r *Room) canStartGameLocked() bool {
	if r.settings.BotsEnabled {
		return true
	}
	var terror, counter bool
	for _, s := range r.slots {
		if !s.Occupied {
			continue
		}
		switch s.Team {
		case Terror:
			terror = true
		case Counter:
			counter = true
		}
	}
	return terror && counter
}

// StartCountdown begins or cancels the pregame countdown. Only the host may
// call it, and only while Waiting (to begin) or Countdown (to tick/abort).
func (r *Room) StartCountdown(userID uint32, shouldCount bool, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.hostUserID {
		return fmt.Errorf("%w: not host", ErrInvariantViolation)
	}

	if r.status != Waiting && r.status != Countdown {
		return fmt.Errorf("%w: cannot start countdown from %s", ErrInvariantViolation, r.status)
	}

	if !shouldCount {
		r.status = Waiting
		r.countdownValue = 0
		return nil
	}

	if !r.canStartGameLocked() {
		return fmt.Errorf("%w: both teams must be non-empty", ErrInvariantViolation)
	}

	r.status = Countdown
	r.countdownValue = count
	return nil
}

// GameStart transitions the room into Ingame. The host drives
// Countdown→Ingame; non-host occupants joining a match already in progress
// re-enter Ingame (a no-op transition that simply marks them IngameReady).
func (r *Room) GameStart(userID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID == r.hostUserID {
		if r.status != Countdown {
			return fmt.Errorf("%w: host can only start from Countdown", ErrInvariantViolation)
		}
		r.status = Ingame
		r.countdownValue = 0
		return nil
	}

	if r.status != Ingame {
		return fmt.Errorf("%w: room not in progress", ErrInvariantViolation)
	}
	idx := r.slotFor(userID)
	if idx < 0 {
		return ErrNotFound
	}
	r.slots[idx].Ready = IngameReady
	return nil
}

// EndGame transitions Ingame→Result. Only the host may end a match.
func (r *Room) EndGame(userID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.hostUserID {
		return fmt.Errorf("%w: not host", ErrInvariantViolation)
	}
	if r.status != Ingame {
		return fmt.Errorf("%w: room not in progress", ErrInvariantViolation)
	}
	r.status = Result
	return nil
}

// AdminClose force-closes the room regardless of occupants, for admin
// intervention. reason is carried only for logging by the caller.
func (r *Room) AdminClose(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Closed
}

func validateSettings(s Settings) error {
	const (
		minMode, maxMode = 0, 7
		minMap, maxMap   = 0, 63
		minLimit         = 0
		maxKillLimit     = 999
		maxWinLimit      = 99
	)
	if s.Mode < minMode || s.Mode > maxMode {
		return fmt.Errorf("%w: mode %d out of range", ErrBadSettings, s.Mode)
	}
	if s.Map < minMap || s.Map > maxMap {
		return fmt.Errorf("%w: map %d out of range", ErrBadSettings, s.Map)
	}
	if s.KillLimit < minLimit || s.KillLimit > maxKillLimit {
		return fmt.Errorf("%w: kill limit %d out of range", ErrBadSettings, s.KillLimit)
	}
	if s.WinLimit < minLimit || s.WinLimit > maxWinLimit {
		return fmt.Errorf("%w: win limit %d out of range", ErrBadSettings, s.WinLimit)
	}
	return nil
}
