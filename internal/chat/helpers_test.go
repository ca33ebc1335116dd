package chat

import (
	"encoding/json"
	"testing"
	"time"

	"pairchat/internal/models"

	"github.com/stretchr/testify/require"
)

// recvEvent blocks until the session's queue yields one decoded event.
func recvEvent(t *testing.T, s *Session) models.ServerEvent {
	t.Helper()
	select {
	case data, ok := <-s.Out():
		require.True(t, ok, "session closed while waiting for event")
		var ev models.ServerEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.ServerEvent{}
	}
}

// assertNoEvent fails if the session has anything queued.
func assertNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data, ok := <-s.Out():
		if ok {
			t.Fatalf("unexpected event: %s", data)
		}
	default:
	}
}

// drain empties the session's queue of events already delivered, such as
// presence updates from registration.
func drain(s *Session) {
	for {
		select {
		case <-s.Out():
		default:
			return
		}
	}
}
