package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"pairchat/internal/database"
	"pairchat/internal/models"
	"pairchat/pkg/logger"
)

// Dispatcher is the event-handling core: it validates each inbound client
// event, drives the hub, typing tracker and friend service, and persists
// messages before any fanout. Errors stay with the triggering session.
type Dispatcher struct {
	hub     *Hub
	typing  *TypingTracker
	friends *FriendService
	store   database.Store
}

func NewDispatcher(hub *Hub, typing *TypingTracker, friends *FriendService, store database.Store) *Dispatcher {
	return &Dispatcher{
		hub:     hub,
		typing:  typing,
		friends: friends,
		store:   store,
	}
}

// Handle applies one raw inbound event from the session's connection.
func (d *Dispatcher) Handle(ctx context.Context, s *Session, raw []byte) {
	var ev models.ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		d.sendError(s, "malformed event")
		return
	}

	if err := d.dispatch(ctx, s, &ev); err != nil {
		logger.Debug("Event %s from session %s rejected: %v", ev.Type, s.ID, err)
		d.sendError(s, err.Error())
	}
}

// Disconnect completes presence cleanup for a closed connection. Never an
// error: disconnects are expected lifecycle events.
func (d *Dispatcher) Disconnect(s *Session) {
	d.hub.Deregister(s)
}

func (d *Dispatcher) dispatch(ctx context.Context, s *Session, ev *models.ClientEvent) error {
	switch ev.Type {
	case models.EventUserConnected:
		if ev.From == "" {
			return fmt.Errorf("%w: missing identity", ErrValidation)
		}
		if s.Identity != "" && s.Identity != ev.From {
			return fmt.Errorf("%w: session already bound to %q", ErrValidation, s.Identity)
		}
		d.hub.Register(ev.From, s)
		return nil

	case models.EventJoinRoom:
		if ev.From == "" || ev.To == "" {
			return fmt.Errorf("%w: join_room needs both identities", ErrValidation)
		}
		// Only a participant may subscribe to the pair's room.
		if s.Identity != ev.From && s.Identity != ev.To {
			return fmt.Errorf("%w: session %q is not part of this conversation", ErrValidation, s.Identity)
		}
		d.hub.JoinRoom(s, ev.From, ev.To)
		return nil

	case models.EventSendMessage:
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		return d.sendMessage(ctx, ev)

	case models.EventShareFile:
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		return d.shareFile(ctx, ev)

	case models.EventTyping:
		if ev.From == "" || ev.To == "" {
			return fmt.Errorf("%w: typing needs both identities", ErrValidation)
		}
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		d.typing.Set(ev.From, ev.To, ev.Typing)
		return nil

	case models.EventFriendRequestSent:
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		return d.friends.SendRequest(ctx, ev.From, ev.To)

	case models.EventFriendRequestAccepted:
		// From is the accepter, To the original requester.
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		return d.friends.AcceptRequest(ctx, ev.From, ev.To)

	case models.EventFriendRequestRejected:
		if err := requireSender(s, ev.From); err != nil {
			return err
		}
		return d.friends.RejectRequest(ctx, ev.From, ev.To)

	default:
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, ev.Type)
	}
}

// sendMessage persists first, then fans out. A failed write means no
// broadcast: the sender alone sees the error and history stays consistent
// with what recipients saw.
func (d *Dispatcher) sendMessage(ctx context.Context, ev *models.ClientEvent) error {
	if ev.From == "" || ev.To == "" {
		return fmt.Errorf("%w: message needs both identities", ErrValidation)
	}
	if ev.Text == "" {
		return fmt.Errorf("%w: empty message text", ErrValidation)
	}

	stored, err := d.store.SaveMessage(ctx, &models.Message{
		From: ev.From,
		To:   ev.To,
		Text: ev.Text,
	})
	if err != nil {
		return fmt.Errorf("message not delivered: %w", err)
	}

	// The arriving message clears the typing indicator on its own.
	d.typing.Cancel(ev.From, ev.To)

	d.hub.Broadcast(RoomKey(ev.From, ev.To), &models.ServerEvent{
		Type:    models.EventReceiveMessage,
		From:    ev.From,
		To:      ev.To,
		Message: stored,
	})
	return nil
}

// shareFile handles an already-uploaded file reference. Shares are persisted
// as attachment messages so conversation history is uniform across text and
// files.
func (d *Dispatcher) shareFile(ctx context.Context, ev *models.ClientEvent) error {
	if ev.From == "" || ev.To == "" {
		return fmt.Errorf("%w: file share needs both identities", ErrValidation)
	}
	if ev.FileURL == "" {
		return fmt.Errorf("%w: missing file url", ErrValidation)
	}

	stored, err := d.store.SaveMessage(ctx, &models.Message{
		From:     ev.From,
		To:       ev.To,
		FileName: ev.FileName,
		FileURL:  ev.FileURL,
	})
	if err != nil {
		return fmt.Errorf("file not shared: %w", err)
	}

	d.hub.Broadcast(RoomKey(ev.From, ev.To), &models.ServerEvent{
		Type:    models.EventFileShared,
		From:    ev.From,
		To:      ev.To,
		Message: stored,
	})
	return nil
}

// requireSender rejects events whose claimed sender is not the session's
// bound identity.
func requireSender(s *Session, from string) error {
	if s.Identity != from {
		return fmt.Errorf("%w: sender %q does not match session identity %q", ErrValidation, from, s.Identity)
	}
	return nil
}

func (d *Dispatcher) sendError(s *Session, msg string) {
	data, err := json.Marshal(&models.ServerEvent{
		Type:  models.EventError,
		Error: msg,
	})
	if err != nil {
		logger.Error("Error marshaling error event: %v", err)
		return
	}
	s.enqueue(data)
}
