package chat

import (
	"encoding/json"
	"sort"
	"sync"

	"pairchat/internal/models"
	"pairchat/pkg/logger"
)

// Hub is the process-wide presence registry and conversation router. Every
// mutation and the presence broadcast it triggers run under one lock, so
// overlapping connect/disconnect events can never publish an inconsistent
// online-users snapshot.
type Hub struct {
	mu         sync.Mutex
	byIdentity map[string]*Session
	rooms      map[string]map[*Session]bool
	joined     map[*Session]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		byIdentity: make(map[string]*Session),
		rooms:      make(map[string]map[*Session]bool),
		joined:     make(map[*Session]map[string]bool),
	}
}

// Register associates identity with the session, subscribes it to its own
// room and announces presence. A second login for the same identity
// supersedes the first: the old session is unsubscribed everywhere and
// closed, so the presence snapshot lists each identity at most once.
func (h *Hub) Register(identity string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.byIdentity[identity]; ok && old != s {
		h.dropLocked(old)
		old.Close()
		logger.Info("Session for %s superseded by a new login", identity)
	}
	s.Identity = identity
	h.byIdentity[identity] = s
	if h.joined[s] == nil {
		h.joined[s] = make(map[string]bool)
	}
	h.subscribeLocked(s, OwnRoomKey(identity))
	h.broadcastPresenceLocked()
	logger.Info("User %s connected (session %s)", identity, s.ID)
}

// Deregister removes the session and its subscriptions. It is a no-op for
// sessions that were never registered or have been superseded, so duplicate
// disconnect events cannot disturb presence.
func (h *Hub) Deregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, registered := h.byIdentity[s.Identity]
	h.dropLocked(s)
	if s.Identity == "" || !registered || cur != s {
		return
	}
	delete(h.byIdentity, s.Identity)
	h.broadcastPresenceLocked()
	logger.Info("User %s disconnected", s.Identity)
}

// JoinRoom subscribes the session to the pairwise room for {a, b}.
// Idempotent: joining twice changes nothing. Subscriptions are additive and
// only removed on disconnect, so users keep receiving background
// notifications for conversations they are not looking at.
func (h *Hub) JoinRoom(s *Session, a, b string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.joined[s] == nil {
		h.joined[s] = make(map[string]bool)
	}
	h.subscribeLocked(s, RoomKey(a, b))
}

// Broadcast fans an event out to every session subscribed to the room.
// Fire-and-forget: sessions that are gone or slow are skipped.
func (h *Hub) Broadcast(roomKey string, event *models.ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[roomKey] {
		s.enqueue(data)
	}
}

// BroadcastAll delivers an event to every known session regardless of room.
func (h *Hub) BroadcastAll(event *models.ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastAllLocked(data)
}

// Online returns the sorted set of identities with a live session.
func (h *Hub) Online() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineLocked()
}

// IsOnline reports whether identity has a live session.
func (h *Hub) IsOnline(identity string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byIdentity[identity]
	return ok
}

func (h *Hub) subscribeLocked(s *Session, roomKey string) {
	if h.rooms[roomKey] == nil {
		h.rooms[roomKey] = make(map[*Session]bool)
	}
	h.rooms[roomKey][s] = true
	h.joined[s][roomKey] = true
}

// dropLocked removes the session from every room. Rooms are a lazy
// membership index: one that loses its last subscriber is deleted outright.
func (h *Hub) dropLocked(s *Session) {
	for roomKey := range h.joined[s] {
		members := h.rooms[roomKey]
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	delete(h.joined, s)
}

func (h *Hub) broadcastPresenceLocked() {
	event := &models.ServerEvent{
		Type:  models.EventOnlineUsers,
		Users: h.onlineLocked(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling presence update: %v", err)
		return
	}
	h.broadcastAllLocked(data)
}

func (h *Hub) broadcastAllLocked(data []byte) {
	for s := range h.joined {
		s.enqueue(data)
	}
}

func (h *Hub) onlineLocked() []string {
	users := make([]string, 0, len(h.byIdentity))
	for identity := range h.byIdentity {
		users = append(users, identity)
	}
	sort.Strings(users)
	return users
}
