package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pairchat/internal/auth"
	"pairchat/internal/database"
	"pairchat/internal/models"
	"pairchat/pkg/logger"
)

type MessageHandlers struct {
	store        database.Store
	authService  *auth.Service
	historyLimit int
}

func NewMessageHandlers(store database.Store, authService *auth.Service, historyLimit int) *MessageHandlers {
	return &MessageHandlers{
		store:        store,
		authService:  authService,
		historyLimit: historyLimit,
	}
}

// History handles GET /messages/{from}/{to}: the conversation between the
// pair, oldest first. Only a participant may read it.
func (h *MessageHandlers) History(w http.ResponseWriter, r *http.Request, from, to string) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Username != from && user.Username != to {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	limit := h.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > h.historyLimit {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := h.store.LoadConversation(r.Context(), from, to, limit)
	if err != nil {
		logger.Error("Load history error: %v", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// DeleteConversation handles DELETE /messages/{from}/{to}: purges the whole
// conversation, immediately and without soft-delete.
func (h *MessageHandlers) DeleteConversation(w http.ResponseWriter, r *http.Request, from, to string) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Username != from && user.Username != to {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.store.DeleteConversation(r.Context(), from, to); err != nil {
		logger.Error("Delete conversation error: %v", err)
		http.Error(w, "failed to delete messages", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteMessage handles DELETE /messages/{id}.
func (h *MessageHandlers) DeleteMessage(w http.ResponseWriter, r *http.Request, rawID string) {
	if _, err := getUserFromRequest(r, h.authService); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteMessage(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		logger.Error("Delete message error: %v", err)
		http.Error(w, "failed to delete message", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
