package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"petcare/internal/auth"
	"petcare/internal/entities"
	"petcare/internal/service"
)

type AuthHandler struct {
	Service *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Service: svc}
}

func (h *AuthHandler) StartOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.OTPStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.StartOTP(req.Phone); err != nil {
		http.Error(w, "Could not send verification code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification code sent"})
}

func (h *AuthHandler) CheckOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.OTPCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CheckOTP(req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrOTPRejected) {
			http.Error(w, "Invalid verification code", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Could not verify code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.Service.GetProfile(claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateProfile(claims.UserID, req); err != nil {
		http.Error(w, "Could not update profile", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Profile updated"})
}
