package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pairchat/internal/auth"
	"pairchat/internal/chat"
	"pairchat/internal/config"
	"pairchat/internal/database"
	"pairchat/internal/handlers"
	"pairchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema: %v", err)
	}

	// Initialize the chat core
	hub := chat.NewHub()
	typing := chat.NewTypingTracker(hub, cfg.Chat.TypingTimeout)
	friends := chat.NewFriendService(db, hub)
	dispatcher := chat.NewDispatcher(hub, typing, friends, db)

	// Initialize services and handlers
	authService := auth.NewService(db, cfg)
	authHandlers := handlers.NewAuthHandlers(authService)
	userHandlers := handlers.NewUserHandlers(db)
	friendHandlers := handlers.NewFriendHandlers(friends, authService)
	messageHandlers := handlers.NewMessageHandlers(db, authService, cfg.Chat.HistoryLimit)
	wsHandlers := handlers.NewWebSocketHandlers(authService, dispatcher)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, userHandlers, friendHandlers, messageHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func setupRoutes(
	mux *http.ServeMux,
	authHandlers *handlers.AuthHandlers,
	userHandlers *handlers.UserHandlers,
	friendHandlers *handlers.FriendHandlers,
	messageHandlers *handlers.MessageHandlers,
	wsHandlers *handlers.WebSocketHandlers,
) {
	// Auth routes
	mux.HandleFunc("/register", requireMethod(http.MethodPost, authHandlers.Register))
	mux.HandleFunc("/login", requireMethod(http.MethodPost, authHandlers.Login))
	mux.HandleFunc("/send-otp", requireMethod(http.MethodPost, authHandlers.SendOTP))
	mux.HandleFunc("/verify-otp", requireMethod(http.MethodPost, authHandlers.VerifyOTP))

	// User directory
	mux.HandleFunc("/users", requireMethod(http.MethodGet, userHandlers.ListUsers))

	// Friend routes
	mux.HandleFunc("/friends/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// /friends/{username}/online
		if len(parts) == 4 && parts[2] != "" && parts[3] == "online" {
			friendHandlers.ListOnlineFriends(w, r, parts[2])
			return
		}

		// /friends/{username}
		if len(parts) == 3 && parts[2] != "" {
			friendHandlers.ListFriends(w, r, parts[2])
			return
		}

		http.Error(w, "invalid path", http.StatusBadRequest)
	})

	mux.HandleFunc("/friend-requests", requireMethod(http.MethodPost, friendHandlers.SendRequest))
	mux.HandleFunc("/friend-requests/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) != 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		switch {
		case parts[2] == "accept" && r.Method == http.MethodPost:
			friendHandlers.AcceptRequest(w, r)
		case parts[2] == "reject" && r.Method == http.MethodPost:
			friendHandlers.RejectRequest(w, r)
		case r.Method == http.MethodGet:
			friendHandlers.ListPendingRequests(w, r, parts[2])
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Message history routes
	mux.HandleFunc("/messages/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")

		// /messages/{id}
		if len(parts) == 3 && parts[2] != "" {
			if r.Method != http.MethodDelete {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			messageHandlers.DeleteMessage(w, r, parts[2])
			return
		}

		// /messages/{from}/{to}
		if len(parts) == 4 && parts[2] != "" && parts[3] != "" {
			switch r.Method {
			case http.MethodGet:
				messageHandlers.History(w, r, parts[2], parts[3])
			case http.MethodDelete:
				messageHandlers.DeleteConversation(w, r, parts[2], parts[3])
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		http.Error(w, "invalid path", http.StatusBadRequest)
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
