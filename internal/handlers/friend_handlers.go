package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pairchat/internal/auth"
	"pairchat/internal/chat"
	"pairchat/internal/models"
	"pairchat/pkg/logger"
)

type FriendHandlers struct {
	friends     *chat.FriendService
	authService *auth.Service
}

func NewFriendHandlers(friends *chat.FriendService, authService *auth.Service) *FriendHandlers {
	return &FriendHandlers{
		friends:     friends,
		authService: authService,
	}
}

type friendRequestBody struct {
	To   string `json:"to,omitempty"`
	From string `json:"from,omitempty"`
}

// SendRequest handles POST /friend-requests. The requester is taken from the
// bearer token, never from the body.
func (h *FriendHandlers) SendRequest(w http.ResponseWriter, r *http.Request) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.friends.SendRequest(r.Context(), user.Username, req.To); err != nil {
		writeFriendError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// AcceptRequest handles POST /friend-requests/accept. The accepter is the
// token user; From names the original requester.
func (h *FriendHandlers) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.friends.AcceptRequest(r.Context(), user.Username, req.From); err != nil {
		writeFriendError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RejectRequest handles POST /friend-requests/reject and clears the pending
// edge.
func (h *FriendHandlers) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.friends.RejectRequest(r.Context(), user.Username, req.From); err != nil {
		writeFriendError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListFriends handles GET /friends/{username}.
func (h *FriendHandlers) ListFriends(w http.ResponseWriter, r *http.Request, username string) {
	friends, err := h.friends.Friends(r.Context(), username)
	if err != nil {
		logger.Error("List friends error: %v", err)
		http.Error(w, "failed to load friends", http.StatusInternalServerError)
		return
	}
	if friends == nil {
		friends = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(friends)
}

// ListOnlineFriends handles GET /friends/{username}/online: the friend list
// intersected with the presence snapshot.
func (h *FriendHandlers) ListOnlineFriends(w http.ResponseWriter, r *http.Request, username string) {
	online, err := h.friends.OnlineFriends(r.Context(), username)
	if err != nil {
		logger.Error("List online friends error: %v", err)
		http.Error(w, "failed to load online friends", http.StatusInternalServerError)
		return
	}
	if online == nil {
		online = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(online)
}

// ListPendingRequests handles GET /friend-requests/{username}, the pull-based
// fallback for requests that arrived while the target was offline. Users may
// only read their own queue.
func (h *FriendHandlers) ListPendingRequests(w http.ResponseWriter, r *http.Request, username string) {
	user, err := getUserFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Username != username {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	pending, err := h.friends.PendingRequests(r.Context(), username)
	if err != nil {
		logger.Error("List friend requests error: %v", err)
		http.Error(w, "failed to load friend requests", http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pending)
}

func writeFriendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, chat.ErrSelfRequest),
		errors.Is(err, chat.ErrAlreadyFriends),
		errors.Is(err, chat.ErrDuplicateRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("Friend request error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// getUserFromRequest resolves the bearer token to a user.
func getUserFromRequest(r *http.Request, authService *auth.Service) (*models.User, error) {
	var token string
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return authService.GetUserFromToken(r.Context(), token)
}
