package ws

import (
	"hash/fnv"
	"sync"

	"bondlink_backend/internal/events"
	"bondlink_backend/internal/logger"
)

// Session - живое соединение глазами реестра. Узкий интерфейс
// (а не *Client напрямую) держит реестр тестируемым и не дает
// вызывающим трогать соединение мимо контракта.
type Session interface {
	ID() string
	UserID() string
	// Deliver ставит событие в очередь отправки; false - очередь
	// переполнена и клиент считается мертвым
	Deliver(event events.Envelope) bool
	Close() error
}

const shardCount = 16

// indexShard - один бакет двунаправленного индекса; блокировка
// по-бакетно, чтобы несвязанные комнаты/пользователи не сериализовались.
type indexShard struct {
	mu sync.RWMutex
	m  map[string]map[Session]struct{}
}

type shardedIndex struct {
	shards [shardCount]indexShard
}

func newShardedIndex() *shardedIndex {
	idx := &shardedIndex{}
	for i := range idx.shards {
		idx.shards[i].m = make(map[string]map[Session]struct{})
	}
	return idx
}

func (idx *shardedIndex) shardFor(key string) *indexShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &idx.shards[h.Sum32()%shardCount]
}

func (idx *shardedIndex) add(key string, s Session) {
	sh := idx.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.m[key]
	if !ok {
		set = make(map[Session]struct{})
		sh.m[key] = set
	}
	set[s] = struct{}{}
}

// remove возвращает true, если после удаления ключ опустел
func (idx *shardedIndex) remove(key string, s Session) bool {
	sh := idx.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.m[key]
	if !ok {
		return true
	}
	delete(set, s)
	if len(set) == 0 {
		delete(sh.m, key)
		return true
	}
	return false
}

func (idx *shardedIndex) snapshot(key string) []Session {
	sh := idx.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	set, ok := sh.m[key]
	if !ok {
		return nil
	}
	sessions := make([]Session, 0, len(set))
	for s := range set {
		sessions = append(sessions, s)
	}
	return sessions
}

func (idx *shardedIndex) size(key string) int {
	sh := idx.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.m[key])
}

// Registry - реестр живых соединений процесса: userID -> соединения и
// roomID -> соединения. Единственная разделяемая мутабельная структура
// realtime-ядра; наружу отдается только контракт операций
// (register/join/leave/broadcast/isOnline), не сырые map'ы.
type Registry struct {
	users *shardedIndex
	rooms *shardedIndex

	// joined: connID -> комнаты соединения; нужен unregister'у.
	// Отдельный мьютекс: broadcast-путь сюда не заходит.
	joinedMu sync.Mutex
	joined   map[string]map[string]struct{}

	// sessions: connID -> Session, для очистки по id
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{
		users:    newShardedIndex(),
		rooms:    newShardedIndex(),
		joined:   make(map[string]map[string]struct{}),
		sessions: make(map[string]Session),
	}
}

// Register регистрирует соединение и автоматически вводит его в
// персональную комнату пользователя и в глобальную presence-комнату.
// Первое соединение пользователя рождает presence-online.
func (r *Registry) Register(s Session) {
	r.joinedMu.Lock()
	if _, ok := r.joined[s.ID()]; ok {
		r.joinedMu.Unlock()
		return // повторная регистрация - no-op
	}
	// Проверка "был ли онлайн" и вставка в user-индекс под одним замком:
	// два одновременных первых соединения пользователя дают ровно один
	// presence-online
	wasOnline := r.users.size(s.UserID()) > 0
	r.users.add(s.UserID(), s)
	r.joined[s.ID()] = make(map[string]struct{})
	r.sessions[s.ID()] = s
	r.joinedMu.Unlock()

	r.Join(s, events.PersonalRoom(s.UserID()))
	r.Join(s, events.PresenceRoom)

	logger.WSLog("register", s.ID(), s.UserID())

	if !wasOnline {
		r.Broadcast(events.PresenceRoom, events.New(events.EventPresenceOnline, events.PresencePayload{UserID: s.UserID()}))
	}
}

func (r *Registry) Join(s Session, roomID string) {
	r.joinedMu.Lock()
	rooms, ok := r.joined[s.ID()]
	if !ok {
		// Соединение уже снято с учета - членство не создаем
		r.joinedMu.Unlock()
		return
	}
	rooms[roomID] = struct{}{}
	r.joinedMu.Unlock()

	r.rooms.add(roomID, s)
}

func (r *Registry) Leave(s Session, roomID string) {
	r.joinedMu.Lock()
	if rooms, ok := r.joined[s.ID()]; ok {
		delete(rooms, roomID)
	}
	r.joinedMu.Unlock()

	r.rooms.remove(roomID, s)
}

// Unregister снимает соединение со всех комнат и из userID-индекса.
// Идемпотентен и вызывается на любом пути разрыва, не только на чистом
// закрытии. Последнее соединение пользователя рождает presence-offline.
func (r *Registry) Unregister(s Session) {
	r.joinedMu.Lock()
	rooms, ok := r.joined[s.ID()]
	if !ok {
		r.joinedMu.Unlock()
		return
	}
	delete(r.joined, s.ID())
	delete(r.sessions, s.ID())
	// Удаление из user-индекса под тем же замком, что и в Register:
	// presence-offline рождает ровно один из одновременных разрывов
	userEmpty := r.users.remove(s.UserID(), s)
	r.joinedMu.Unlock()

	for roomID := range rooms {
		r.rooms.remove(roomID, s)
	}

	logger.WSLog("unregister", s.ID(), s.UserID())

	if userEmpty {
		r.Broadcast(events.PresenceRoom, events.New(events.EventPresenceOffline, events.PresencePayload{UserID: s.UserID()}))
	}
}

// IsOnline - есть ли у пользователя хотя бы одно живое соединение
func (r *Registry) IsOnline(userID string) bool {
	return r.users.size(userID) > 0
}

// Broadcast доставляет событие каждому соединению комнаты. Пустая
// комната молча пропускается - ни очереди, ни ретраев: durability
// обеспечивает persisted-запись, а не этот канал. Соединение с
// переполненной очередью закрывается.
func (r *Registry) Broadcast(roomID string, event events.Envelope) {
	for _, s := range r.rooms.snapshot(roomID) {
		if !s.Deliver(event) {
			logger.Warn("ws send queue full, dropping connection",
				"conn_id", s.ID(), "user_id", s.UserID(), "room_id", roomID)
			_ = s.Close()
		}
	}
}

// RoomSize - количество живых соединений в комнате
func (r *Registry) RoomSize(roomID string) int {
	return r.rooms.size(roomID)
}

// InRoom - состоит ли соединение в комнате
func (r *Registry) InRoom(s Session, roomID string) bool {
	r.joinedMu.Lock()
	defer r.joinedMu.Unlock()
	rooms, ok := r.joined[s.ID()]
	if !ok {
		return false
	}
	_, in := rooms[roomID]
	return in
}
