package registry

import (
	"log"
	"sync"
	"time"

	domain "github.com/example/tempchat/domain/room"
)

// DefaultInactivityWindow is the sliding inactivity deadline after which an
// idle room is evicted.
const DefaultInactivityWindow = 30 * time.Minute

// ExpiredListener is invoked with the room code whenever a room is evicted
// for inactivity. Listeners fire exactly once per eviction, after the room
// has been removed from the table.
type ExpiredListener func(roomCode string)

// roomEntry is the registry's record for one active room. gen increments on
// every timer re-arm so a fired callback can tell whether it is the current
// arming or a stale one.
type roomEntry struct {
	room     domain.Room
	messages []domain.Message
	timer    *time.Timer
	gen      uint64
}

// Registry is the sole owner of room existence, membership, message history
// and inactivity-driven eviction. All mutations are serialized through one
// mutex; operations are in-memory state transitions plus timer re-arming and
// complete synchronously.
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*roomEntry
	listeners []ExpiredListener
	window    time.Duration
	reserved  string
	newCode   func() string
}

// NewRegistry creates an empty registry. A non-positive window falls back to
// DefaultInactivityWindow.
func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultInactivityWindow
	}
	return &Registry{
		rooms:   make(map[string]*roomEntry),
		window:  window,
		newCode: newCodeGenerator(),
	}
}

// SetReservedCode marks one code as the protected room. The code is never
// generated for new rooms and behaves as a virtual room: it always exists,
// joins and messages succeed without being stored, and it is never evicted.
func (r *Registry) SetReservedCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserved = NormalizeCode(code)
}

func (r *Registry) isReserved(code string) bool {
	return r.reserved != "" && code == r.reserved
}

// CreateRoom registers a new room under a fresh unique code, arms its
// inactivity timer and returns the code.
func (r *Registry) CreateRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCodeLocked()
	now := time.Now()
	e := &roomEntry{
		room: domain.Room{
			Code:         code,
			CreatedAt:    now,
			LastActivity: now,
			Users:        []domain.Member{},
		},
		messages: make([]domain.Message, 0),
	}
	r.rooms[code] = e
	r.armTimerLocked(code, e)

	log.Printf("[registry] Room created: %s", code)
	return code
}

// generateCodeLocked draws codes until one is free. The code space is
// 36^6; a loop (not recursion) keeps the retry depth bounded as the table
// fills.
func (r *Registry) generateCodeLocked() string {
	for {
		code := r.newCode()
		if r.isReserved(code) {
			continue
		}
		if _, exists := r.rooms[code]; !exists {
			return code
		}
	}
}

// RoomExists reports whether code names a live room.
func (r *Registry) RoomExists(code string) bool {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isReserved(code) {
		return true
	}
	_, ok := r.rooms[code]
	return ok
}

// GetRoom returns a snapshot of a room's public state. Unknown codes return
// found=false; malformed codes are simply never found.
func (r *Registry) GetRoom(code string) (domain.Room, bool) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isReserved(code) {
		now := time.Now()
		return domain.Room{Code: code, CreatedAt: now, LastActivity: now, Users: []domain.Member{}}, true
	}

	e, ok := r.rooms[code]
	if !ok {
		return domain.Room{}, false
	}
	return e.snapshotLocked(), true
}

// AddMember inserts a member into a room, deduplicated by member id
// (re-adding an existing id is a no-op, not an error). Returns false if the
// room does not exist. Refreshes the room's activity.
func (r *Registry) AddMember(code string, m domain.Member) bool {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isReserved(code) {
		return true
	}

	e, ok := r.rooms[code]
	if !ok {
		return false
	}

	found := false
	for _, u := range e.room.Users {
		if u.ID == m.ID {
			found = true
			break
		}
	}
	if !found {
		e.room.Users = append(e.room.Users, m)
	}

	r.touchLocked(code, e)
	return true
}

// RemoveMember removes a member from a room and returns the removed
// descriptor. Removing an absent member (or from an unknown room) is a
// no-op. When the last member leaves, the room is destroyed immediately
// without waiting for its inactivity timer.
func (r *Registry) RemoveMember(code, memberID string) (domain.Member, bool) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isReserved(code) {
		return domain.Member{}, false
	}

	e, ok := r.rooms[code]
	if !ok {
		return domain.Member{}, false
	}

	idx := -1
	for i, u := range e.room.Users {
		if u.ID == memberID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.Member{}, false
	}

	removed := e.room.Users[idx]
	e.room.Users = append(e.room.Users[:idx], e.room.Users[idx+1:]...)

	if len(e.room.Users) == 0 {
		r.deleteLocked(code, e)
		return removed, true
	}

	r.touchLocked(code, e)
	return removed, true
}

// AppendMessage appends to a room's ordered history and refreshes its
// activity. Returns false if the room does not exist; the room is never
// created as a side effect.
func (r *Registry) AppendMessage(code string, msg domain.Message) bool {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isReserved(code) {
		return true
	}

	e, ok := r.rooms[code]
	if !ok {
		return false
	}

	e.messages = append(e.messages, msg)
	r.touchLocked(code, e)
	return true
}

// Messages returns a copy of a room's history in insertion order. Unknown
// codes return an empty slice.
func (r *Registry) Messages(code string) []domain.Message {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		return []domain.Message{}
	}

	out := make([]domain.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Members returns a copy of a room's current member list. Unknown codes
// return an empty slice.
func (r *Registry) Members(code string) []domain.Member {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		return []domain.Member{}
	}

	out := make([]domain.Member, len(e.room.Users))
	copy(out, e.room.Users)
	return out
}

// OnRoomExpired registers a listener for inactivity evictions. Multiple
// listeners may be registered; all fire, order unspecified. Listeners are
// not invoked for rooms destroyed by the last member leaving or by
// DeleteRoom.
func (r *Registry) OnRoomExpired(cb ExpiredListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, cb)
}

// DeleteRoom destroys a room and its history immediately. Unknown codes are
// a no-op. The room's timer is canceled so it can never fire afterwards.
func (r *Registry) DeleteRoom(code string) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		return
	}
	r.deleteLocked(code, e)
}

// ActiveRooms returns the codes of all currently loaded rooms.
func (r *Registry) ActiveRooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	return codes
}

// touchLocked refreshes a room's last-activity timestamp and re-arms its
// eviction timer for the full window.
func (r *Registry) touchLocked(code string, e *roomEntry) {
	e.room.LastActivity = time.Now()
	r.armTimerLocked(code, e)
}

func (r *Registry) armTimerLocked(code string, e *roomEntry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(r.window, func() {
		r.expire(code, e, gen)
	})
}

// expire handles an inactivity timer firing. The fired entry and its arming
// generation are checked against the current table so a stale fire is a
// no-op: the entry comparison catches deletion and code reuse, the
// generation comparison catches a callback that was already dispatched when
// an activity refresh re-armed the timer. The room is removed before any
// listener runs.
func (r *Registry) expire(code string, e *roomEntry, gen uint64) {
	r.mu.Lock()
	current, ok := r.rooms[code]
	if !ok || current != e || current.gen != gen {
		r.mu.Unlock()
		return
	}

	e.timer.Stop()
	delete(r.rooms, code)

	listeners := make([]ExpiredListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	log.Printf("[registry] Room %s expired due to inactivity", code)
	for _, cb := range listeners {
		cb(code)
	}
}

func (r *Registry) deleteLocked(code string, e *roomEntry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(r.rooms, code)
	log.Printf("[registry] Room deleted: %s", code)
}

// snapshotLocked copies the entry's public state, including the member list.
func (e *roomEntry) snapshotLocked() domain.Room {
	snap := e.room
	snap.Users = make([]domain.Member, len(e.room.Users))
	copy(snap.Users, e.room.Users)
	return snap
}
