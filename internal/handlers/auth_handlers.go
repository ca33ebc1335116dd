package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"pairchat/internal/auth"
	"pairchat/internal/database"
	"pairchat/internal/models"
	"pairchat/pkg/logger"
)

type AuthHandlers struct {
	authService *auth.Service
}

func NewAuthHandlers(authService *auth.Service) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		logger.Error("Registration error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		logger.Error("Login error: %v", err)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *AuthHandlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.authService.SendOTP(r.Context(), req.Username); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		logger.Error("OTP error: %v", err)
		http.Error(w, "failed to send OTP", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ok, err := h.authService.VerifyOTP(r.Context(), req.Username, req.OTP)
	if err != nil || !ok {
		http.Error(w, "invalid or expired OTP", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
}
