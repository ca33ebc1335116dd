package chat

import (
	"sync"
	"time"

	"pairchat/internal/models"
)

// TypingTracker owns the ephemeral per-(from, to) typing flag. Nothing here
// is persisted: the signal is lossy and the most recently observed event
// wins on the receiving side.
type TypingTracker struct {
	hub    *Hub
	expiry time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTypingTracker(hub *Hub, expiry time.Duration) *TypingTracker {
	return &TypingTracker{
		hub:    hub,
		expiry: expiry,
		timers: make(map[string]*time.Timer),
	}
}

// Set broadcasts the typing flag to the pairwise room. typing:true (re)arms
// the auto-clear timer for the pair; the expiry broadcast of typing:false
// fires at most once per armed timer. An explicit typing:false cancels the
// timer so the clear is never duplicated.
func (t *TypingTracker) Set(from, to string, typing bool) {
	key := typingKey(from, to)

	t.mu.Lock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	if typing {
		var timer *time.Timer
		timer = time.AfterFunc(t.expiry, func() {
			t.expire(key, timer, from, to)
		})
		t.timers[key] = timer
	}
	t.mu.Unlock()

	t.hub.Broadcast(RoomKey(from, to), &models.ServerEvent{
		Type:   models.EventTyping,
		From:   from,
		To:     to,
		Typing: typing,
	})
}

// Cancel stops a pending auto-clear without broadcasting. Used on message
// send, where the arriving message already clears the indicator.
func (t *TypingTracker) Cancel(from, to string) {
	key := typingKey(from, to)

	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// expire broadcasts the auto-clear, unless this timer has already been
// cancelled or replaced by a newer keystroke.
func (t *TypingTracker) expire(key string, timer *time.Timer, from, to string) {
	t.mu.Lock()
	if t.timers[key] != timer {
		t.mu.Unlock()
		return
	}
	delete(t.timers, key)
	t.mu.Unlock()

	t.hub.Broadcast(RoomKey(from, to), &models.ServerEvent{
		Type:   models.EventTyping,
		From:   from,
		To:     to,
		Typing: false,
	})
}

// typingKey is directional: A typing to B and B typing to A are independent.
func typingKey(from, to string) string {
	return OwnRoomKey(from) + ">" + OwnRoomKey(to)
}
