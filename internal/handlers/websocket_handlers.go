package handlers

import (
	"net/http"

	"pairchat/internal/auth"
	"pairchat/internal/chat"
	ws "pairchat/internal/websocket"
	"pairchat/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	dispatcher  *chat.Dispatcher
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, dispatcher *chat.Dispatcher) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		dispatcher:  dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	// Bind the session to the authenticated identity up front so a
	// user_connected event cannot claim someone else's name.
	session := chat.NewSession()
	session.Identity = user.Username

	client := ws.NewClient(conn, session, h.dispatcher)
	go client.WritePump()
	go client.ReadPump()
}
