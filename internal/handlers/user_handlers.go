package handlers

import (
	"encoding/json"
	"net/http"

	"pairchat/internal/database"
	"pairchat/pkg/logger"
)

type UserHandlers struct {
	store database.Store
}

func NewUserHandlers(store database.Store) *UserHandlers {
	return &UserHandlers{store: store}
}

// ListUsers returns the username directory.
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	usernames, err := h.store.ListUsernames(r.Context())
	if err != nil {
		logger.Error("List users error: %v", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if usernames == nil {
		usernames = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(usernames)
}
