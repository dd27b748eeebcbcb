package registry

import (
	"sync"
	"testing"
	"time"

	domain "github.com/example/tempchat/domain/room"
)

func member(id, name string) domain.Member {
	return domain.Member{ID: id, Username: name, Color: "#ff0000"}
}

func message(id, code, userID, content string) domain.Message {
	return domain.Message{
		ID:        id,
		RoomCode:  code,
		UserID:    userID,
		Username:  "User",
		Content:   content,
		Timestamp: time.Now(),
		Type:      domain.MessageTypeUser,
	}
}

func TestRegistry_CreateRoom(t *testing.T) {
	r := NewRegistry(0)

	code := r.CreateRoom()
	if !IsValidCode(code) {
		t.Fatalf("CreateRoom() code = %q, not a valid room code", code)
	}

	room, ok := r.GetRoom(code)
	if !ok {
		t.Fatal("GetRoom() did not find freshly created room")
	}
	if room.Code != code {
		t.Errorf("room.Code = %q, want %q", room.Code, code)
	}
	if len(room.Users) != 0 {
		t.Errorf("new room has %d members, want 0", len(room.Users))
	}
	if room.CreatedAt.IsZero() || room.LastActivity.IsZero() {
		t.Error("new room should have non-zero timestamps")
	}
}

func TestRegistry_CreateRoom_UniqueCodes(t *testing.T) {
	r := NewRegistry(0)

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		code := r.CreateRoom()
		if seen[code] {
			t.Fatalf("CreateRoom() returned duplicate code %q", code)
		}
		seen[code] = true
	}
}

func TestRegistry_RoomExists(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()

	if !r.RoomExists(code) {
		t.Error("RoomExists() = false for live room")
	}
	if !r.RoomExists("  " + code + " ") {
		t.Error("RoomExists() should normalize whitespace")
	}
	if r.RoomExists("ZZZZZ9") {
		t.Error("RoomExists() = true for unknown code")
	}
}

func TestRegistry_GetRoom_CaseInsensitive(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()

	lower := ""
	for _, c := range code {
		if c >= 'A' && c <= 'Z' {
			lower += string(c + 32)
		} else {
			lower += string(c)
		}
	}

	if _, ok := r.GetRoom(lower); !ok {
		t.Errorf("GetRoom(%q) did not find room %q", lower, code)
	}
}

func TestRegistry_AddMember(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()

	if !r.AddMember(code, member("u1", "Alice")) {
		t.Fatal("AddMember() = false for live room")
	}
	if !r.AddMember(code, member("u2", "Bob")) {
		t.Fatal("AddMember() = false for second member")
	}

	members := r.Members(code)
	if len(members) != 2 {
		t.Fatalf("Members() count = %d, want 2", len(members))
	}

	// Re-adding the same id is a no-op, not a duplicate.
	if !r.AddMember(code, member("u1", "Alice")) {
		t.Fatal("AddMember() = false for duplicate id")
	}
	if got := len(r.Members(code)); got != 2 {
		t.Errorf("Members() after duplicate add = %d, want 2", got)
	}

	if r.AddMember("ZZZZZ9", member("u3", "Carol")) {
		t.Error("AddMember() = true for unknown room")
	}
}

func TestRegistry_RemoveMember(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()
	r.AddMember(code, member("u1", "Alice"))
	r.AddMember(code, member("u2", "Bob"))

	removed, ok := r.RemoveMember(code, "u1")
	if !ok {
		t.Fatal("RemoveMember() = false for present member")
	}
	if removed.Username != "Alice" {
		t.Errorf("removed.Username = %q, want Alice", removed.Username)
	}
	if got := len(r.Members(code)); got != 1 {
		t.Errorf("Members() after removal = %d, want 1", got)
	}

	// Absent member is a no-op.
	if _, ok := r.RemoveMember(code, "u1"); ok {
		t.Error("RemoveMember() = true for absent member")
	}
	if _, ok := r.RemoveMember("ZZZZZ9", "u2"); ok {
		t.Error("RemoveMember() = true for unknown room")
	}
}

func TestRegistry_RemoveMember_DestroysEmptyRoom(t *testing.T) {
	r := NewRegistry(0)

	var mu sync.Mutex
	var expired []string
	r.OnRoomExpired(func(code string) {
		mu.Lock()
		expired = append(expired, code)
		mu.Unlock()
	})

	code := r.CreateRoom()
	r.AddMember(code, member("u1", "Alice"))

	if _, ok := r.RemoveMember(code, "u1"); !ok {
		t.Fatal("RemoveMember() = false")
	}

	// The room is gone immediately, without waiting for its timer.
	if r.RoomExists(code) {
		t.Error("room still exists after last member left")
	}

	// Destroy-on-empty is not an inactivity eviction.
	mu.Lock()
	defer mu.Unlock()
	if len(expired) != 0 {
		t.Errorf("expiration listeners fired %d times for destroy-on-empty, want 0", len(expired))
	}
}

func TestRegistry_AppendMessage(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()

	if !r.AppendMessage(code, message("m1", code, "u1", "hello")) {
		t.Fatal("AppendMessage() = false for live room")
	}
	if !r.AppendMessage(code, message("m2", code, "u1", "world")) {
		t.Fatal("AppendMessage() = false for second message")
	}

	msgs := r.Messages(code)
	if len(msgs) != 2 {
		t.Fatalf("Messages() count = %d, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("Messages() order = [%s, %s], want [m1, m2]", msgs[0].ID, msgs[1].ID)
	}
}

func TestRegistry_AppendMessage_UnknownRoom(t *testing.T) {
	r := NewRegistry(0)

	if r.AppendMessage("ZZZZZ9", message("m1", "ZZZZZ9", "u1", "hello")) {
		t.Error("AppendMessage() = true for unknown room")
	}
	// The failed append must not create the room.
	if r.RoomExists("ZZZZZ9") {
		t.Error("failed AppendMessage() created the room")
	}
}

func TestRegistry_MessageOrdering_InterleavedRooms(t *testing.T) {
	r := NewRegistry(0)
	a := r.CreateRoom()
	b := r.CreateRoom()

	r.AppendMessage(a, message("a1", a, "u1", "one"))
	r.AppendMessage(b, message("b1", b, "u2", "uno"))
	r.AppendMessage(a, message("a2", a, "u1", "two"))
	r.AppendMessage(b, message("b2", b, "u2", "dos"))

	msgsA := r.Messages(a)
	msgsB := r.Messages(b)
	if len(msgsA) != 2 || msgsA[0].ID != "a1" || msgsA[1].ID != "a2" {
		t.Errorf("room A history = %v", msgsA)
	}
	if len(msgsB) != 2 || msgsB[0].ID != "b1" || msgsB[1].ID != "b2" {
		t.Errorf("room B history = %v", msgsB)
	}
}

func TestRegistry_InactivityExpiry(t *testing.T) {
	r := NewRegistry(50 * time.Millisecond)

	var mu sync.Mutex
	fired := make(map[string]int)
	r.OnRoomExpired(func(code string) {
		mu.Lock()
		fired[code]++
		mu.Unlock()
	})

	code := r.CreateRoom()
	r.AddMember(code, member("u1", "Alice"))

	time.Sleep(150 * time.Millisecond)

	if r.RoomExists(code) {
		t.Error("idle room still exists past the inactivity window")
	}

	mu.Lock()
	defer mu.Unlock()
	if fired[code] != 1 {
		t.Errorf("expiration listener fired %d times, want exactly 1", fired[code])
	}
}

func TestRegistry_ActivityExtendsLifetime(t *testing.T) {
	r := NewRegistry(80 * time.Millisecond)
	code := r.CreateRoom()
	r.AddMember(code, member("u1", "Alice"))

	// Keep touching the room past several would-be deadlines.
	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		if !r.AppendMessage(code, message("m", code, "u1", "still here")) {
			t.Fatalf("room expired despite activity (iteration %d)", i)
		}
	}

	if !r.RoomExists(code) {
		t.Error("active room was evicted")
	}

	// Once activity stops, the full window applies.
	time.Sleep(200 * time.Millisecond)
	if r.RoomExists(code) {
		t.Error("room survived past the window after activity stopped")
	}
}

func TestRegistry_StaleTimerFire_AfterActivityRefresh(t *testing.T) {
	r := NewRegistry(time.Hour)

	var mu sync.Mutex
	var expired int
	r.OnRoomExpired(func(string) {
		mu.Lock()
		expired++
		mu.Unlock()
	})

	code := r.CreateRoom()

	// Capture the arming state of the initial timer.
	r.mu.Lock()
	e := r.rooms[code]
	oldGen := e.gen
	r.mu.Unlock()

	// Activity re-arms the timer. A callback for the old arming may already
	// have been dispatched by the runtime at this point; simulate that fire.
	r.AddMember(code, member("u1", "Alice"))
	r.expire(code, e, oldGen)

	if !r.RoomExists(code) {
		t.Fatal("room with fresh activity was evicted by a stale timer fire")
	}

	mu.Lock()
	staleFires := expired
	mu.Unlock()
	if staleFires != 0 {
		t.Errorf("stale timer fire invoked %d listeners, want 0", staleFires)
	}

	// The current arming still evicts.
	r.mu.Lock()
	curGen := e.gen
	r.mu.Unlock()
	r.expire(code, e, curGen)
	if r.RoomExists(code) {
		t.Error("current timer fire did not evict the room")
	}
}

func TestRegistry_DeleteRoom_CancelsTimer(t *testing.T) {
	r := NewRegistry(50 * time.Millisecond)

	var mu sync.Mutex
	var expired int
	r.OnRoomExpired(func(string) {
		mu.Lock()
		expired++
		mu.Unlock()
	})

	code := r.CreateRoom()
	r.DeleteRoom(code)

	if r.RoomExists(code) {
		t.Fatal("DeleteRoom() left the room live")
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if expired != 0 {
		t.Errorf("stale timer fired %d listeners after DeleteRoom()", expired)
	}
}

func TestRegistry_MultipleExpiryListeners(t *testing.T) {
	r := NewRegistry(50 * time.Millisecond)

	var mu sync.Mutex
	calls := make([]int, 2)
	r.OnRoomExpired(func(string) {
		mu.Lock()
		calls[0]++
		mu.Unlock()
	})
	r.OnRoomExpired(func(string) {
		mu.Lock()
		calls[1]++
		mu.Unlock()
	})

	r.CreateRoom()
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls[0] != 1 || calls[1] != 1 {
		t.Errorf("listener calls = %v, want [1 1]", calls)
	}
}

func TestRegistry_ReservedCode(t *testing.T) {
	r := NewRegistry(0)
	r.SetReservedCode("vip007")

	if !r.RoomExists("VIP007") {
		t.Error("reserved room should always exist")
	}

	room, ok := r.GetRoom("VIP007")
	if !ok {
		t.Fatal("GetRoom() did not find the reserved room")
	}
	if len(room.Users) != 0 {
		t.Errorf("reserved room reports %d members, want 0", len(room.Users))
	}

	// Joins and messages succeed without being stored.
	if !r.AddMember("VIP007", member("u1", "Alice")) {
		t.Error("AddMember() = false for reserved room")
	}
	if got := len(r.Members("VIP007")); got != 0 {
		t.Errorf("reserved room stored %d members, want 0", got)
	}
	if !r.AppendMessage("VIP007", message("m1", "VIP007", "u1", "hi")) {
		t.Error("AppendMessage() = false for reserved room")
	}
	if got := len(r.Messages("VIP007")); got != 0 {
		t.Errorf("reserved room stored %d messages, want 0", got)
	}

	// Not part of the active table.
	for _, code := range r.ActiveRooms() {
		if code == "VIP007" {
			t.Error("reserved room listed in ActiveRooms()")
		}
	}
}

func TestRegistry_ActiveRooms(t *testing.T) {
	r := NewRegistry(0)

	if got := len(r.ActiveRooms()); got != 0 {
		t.Errorf("ActiveRooms() initial count = %d, want 0", got)
	}

	a := r.CreateRoom()
	b := r.CreateRoom()

	codes := r.ActiveRooms()
	if len(codes) != 2 {
		t.Fatalf("ActiveRooms() count = %d, want 2", len(codes))
	}
	found := map[string]bool{}
	for _, c := range codes {
		found[c] = true
	}
	if !found[a] || !found[b] {
		t.Errorf("ActiveRooms() = %v, want %s and %s", codes, a, b)
	}
}

func TestRegistry_SnapshotsAreCopies(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()
	r.AddMember(code, member("u1", "Alice"))

	members := r.Members(code)
	members[0].Username = "Mallory"

	fresh := r.Members(code)
	if fresh[0].Username != "Alice" {
		t.Error("mutating a Members() snapshot changed registry state")
	}

	room, _ := r.GetRoom(code)
	room.Users[0].Username = "Mallory"
	room2, _ := r.GetRoom(code)
	if room2.Users[0].Username != "Alice" {
		t.Error("mutating a GetRoom() snapshot changed registry state")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(0)
	code := r.CreateRoom()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			r.AddMember(code, member(id, "User"+id))
			r.AppendMessage(code, message(NewMessageID(), code, id, "hello"))
			r.Members(code)
			r.Messages(code)
		}(i)
	}
	wg.Wait()

	if got := len(r.Members(code)); got != 10 {
		t.Errorf("Members() after concurrent joins = %d, want 10", got)
	}
	if got := len(r.Messages(code)); got != 10 {
		t.Errorf("Messages() after concurrent sends = %d, want 10", got)
	}
}
