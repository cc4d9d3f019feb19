package api

import (
	"encoding/json"
	"net/http"

	"fieldservice/internal/service"
)

type DispatcherAuthHandler struct {
	service service.DispatcherAuthService
}

func NewDispatcherAuthHandler(svc service.DispatcherAuthService) *DispatcherAuthHandler {
	return &DispatcherAuthHandler{service: svc}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *DispatcherAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// CreateDispatcher registers a dispatcher account for the authenticated
// company.
func (h *DispatcherAuthHandler) CreateDispatcher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateDispatcher(companyID(r), req.Email, req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "Dispatcher registered successfully"})
}
