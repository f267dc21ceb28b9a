package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cabin-order-services/internal/auth"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Location string `json:"location"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// StaffLogin exchanges the branch's shared credentials for a session token.
func (h *Handler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	location := strings.TrimSpace(body.Location)
	cred, ok := h.Config.StaffLogins[location]
	if !ok || !h.Layout.Knows(location) {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown location or credentials")
		return
	}
	if body.Username != cred.Username {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown location or credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(body.Password)); err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown location or credentials")
		return
	}

	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.GenerateStaffToken(location, cred.Username, h.Config.JWTSecret, expiry)
	if err != nil {
		h.Logger.Error("token generation failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		return
	}

	response.Success(w, map[string]any{
		"token":     token,
		"location":  location,
		"expiresIn": h.Config.JWTExpirySeconds,
	})
}
