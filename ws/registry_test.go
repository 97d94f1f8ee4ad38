package ws

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"bondlink_backend/internal/events"
)

// fakeSession - in-memory реализация Session для тестов реестра
type fakeSession struct {
	id     string
	userID string

	mu       sync.Mutex
	received []events.Envelope
	closed   bool
	full     bool // имитация переполненной очереди
}

func newFakeSession(id, userID string) *fakeSession {
	return &fakeSession{id: id, userID: userID}
}

func (f *fakeSession) ID() string     { return f.id }
func (f *fakeSession) UserID() string { return f.userID }

func (f *fakeSession) Deliver(event events.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.received = append(f.received, event)
	return true
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) events() []events.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.Envelope, len(f.received))
	copy(out, f.received)
	return out
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegistry_RegisterAutoJoinsPersonalRoom(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("c1", "u1")

	r.Register(s)

	assert.True(t, r.IsOnline("u1"))
	assert.True(t, r.InRoom(s, events.PersonalRoom("u1")))
	assert.True(t, r.InRoom(s, events.PresenceRoom))

	// Уведомление в персональную комнату доходит без явного join
	r.Broadcast(events.PersonalRoom("u1"), events.New(events.EventNotify, nil))
	got := s.events()
	assert.NotEmpty(t, got)
	assert.Equal(t, events.EventNotify, got[len(got)-1].Event)
}

func TestRegistry_JoinLeaveRoom(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("c1", "u1")
	r.Register(s)

	room := events.ChatRoom("chat-42")
	r.Join(s, room)
	assert.True(t, r.InRoom(s, room))
	assert.Equal(t, 1, r.RoomSize(room))

	r.Leave(s, room)
	assert.False(t, r.InRoom(s, room))
	assert.Equal(t, 0, r.RoomSize(room))

	// Повторный leave безвреден
	r.Leave(s, room)
	assert.Equal(t, 0, r.RoomSize(room))
}

func TestRegistry_BroadcastReachesOnlyRoomMembers(t *testing.T) {
	r := NewRegistry()
	a := newFakeSession("c1", "u1")
	b := newFakeSession("c2", "u2")
	c := newFakeSession("c3", "u3")
	r.Register(a)
	r.Register(b)
	r.Register(c)

	room := events.ChatRoom("chat-1")
	r.Join(a, room)
	r.Join(b, room)

	before := len(c.events())
	r.Broadcast(room, events.New(events.EventReceiveMessage, "hello"))

	lastA := a.events()[len(a.events())-1]
	lastB := b.events()[len(b.events())-1]
	assert.Equal(t, events.EventReceiveMessage, lastA.Event)
	assert.Equal(t, events.EventReceiveMessage, lastB.Event)
	// Не-участник комнаты ничего не получил
	assert.Len(t, c.events(), before)
}

func TestRegistry_BroadcastEmptyRoomIsNoop(t *testing.T) {
	r := NewRegistry()
	// Паник и ошибок быть не должно
	r.Broadcast(events.ChatRoom("ghost"), events.New(events.EventReceiveMessage, nil))
}

func TestRegistry_UnregisterRemovesEverywhere(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("c1", "u1")
	r.Register(s)

	room := events.ChatRoom("chat-1")
	r.Join(s, room)

	r.Unregister(s)

	assert.False(t, r.IsOnline("u1"))
	assert.Equal(t, 0, r.RoomSize(room))
	assert.Equal(t, 0, r.RoomSize(events.PersonalRoom("u1")))

	// Идемпотентность: повторный unregister - no-op
	r.Unregister(s)
	assert.False(t, r.IsOnline("u1"))
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	s1 := newFakeSession("c1", "u1")
	s2 := newFakeSession("c2", "u1")
	r.Register(s1)
	r.Register(s2)

	assert.True(t, r.IsOnline("u1"))
	assert.Equal(t, 2, r.RoomSize(events.PersonalRoom("u1")))

	r.Unregister(s1)
	// Пользователь онлайн, пока живо хотя бы одно соединение
	assert.True(t, r.IsOnline("u1"))

	r.Unregister(s2)
	assert.False(t, r.IsOnline("u1"))
}

func TestRegistry_PresenceEvents(t *testing.T) {
	r := NewRegistry()
	watcher := newFakeSession("w", "observer")
	r.Register(watcher)

	s1 := newFakeSession("c1", "u1")
	s2 := newFakeSession("c2", "u1")

	countPresence := func(event string) int {
		n := 0
		for _, e := range watcher.events() {
			if e.Event == event {
				if p, ok := e.Data.(events.PresencePayload); ok && p.UserID == "u1" {
					n++
				}
			}
		}
		return n
	}

	r.Register(s1)
	r.Register(s2)
	// presence-online только на первом соединении
	assert.Equal(t, 1, countPresence(events.EventPresenceOnline))

	r.Unregister(s1)
	assert.Equal(t, 0, countPresence(events.EventPresenceOffline))

	r.Unregister(s2)
	// presence-offline только после последнего
	assert.Equal(t, 1, countPresence(events.EventPresenceOffline))
}

// Одновременные первые соединения (и последние разрывы) одного
// пользователя дают ровно один presence-online и один presence-offline
func TestRegistry_ConcurrentPresenceSingleEvent(t *testing.T) {
	r := NewRegistry()
	watcher := newFakeSession("w", "observer")
	r.Register(watcher)

	countPresence := func(event string) int {
		n := 0
		for _, e := range watcher.events() {
			if e.Event == event {
				if p, ok := e.Data.(events.PresencePayload); ok && p.UserID == "u1" {
					n++
				}
			}
		}
		return n
	}

	const conns = 16
	sessions := make([]*fakeSession, conns)
	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		sessions[i] = newFakeSession("conn-"+strconv.Itoa(i), "u1")
		wg.Add(1)
		go func(s *fakeSession) {
			defer wg.Done()
			r.Register(s)
		}(sessions[i])
	}
	wg.Wait()
	assert.Equal(t, 1, countPresence(events.EventPresenceOnline))

	for i := 0; i < conns; i++ {
		wg.Add(1)
		go func(s *fakeSession) {
			defer wg.Done()
			r.Unregister(s)
		}(sessions[i])
	}
	wg.Wait()
	assert.Equal(t, 1, countPresence(events.EventPresenceOffline))
	assert.False(t, r.IsOnline("u1"))
}

func TestRegistry_FullQueueDropsConnection(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("c1", "u1")
	s.full = true
	r.Register(s)

	r.Broadcast(events.PersonalRoom("u1"), events.New(events.EventNotify, nil))

	assert.True(t, s.isClosed())
}

func TestRegistry_JoinAfterUnregisterIsNoop(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("c1", "u1")
	r.Register(s)
	r.Unregister(s)

	r.Join(s, events.ChatRoom("chat-1"))
	assert.Equal(t, 0, r.RoomSize(events.ChatRoom("chat-1")))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	room := events.ChatRoom("busy")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := newFakeSession(
				"conn-"+string(rune('a'+n%26))+string(rune('0'+n/26)),
				"user-"+string(rune('a'+n%10)),
			)
			r.Register(s)
			r.Join(s, room)
			r.Broadcast(room, events.New(events.EventReceiveMessage, n))
			r.Leave(s, room)
			r.Unregister(s)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.RoomSize(room))
}
