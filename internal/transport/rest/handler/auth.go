package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
	"surveystats/internal/service"
)

// Authenticator issues host tokens
type Authenticator interface {
	Login(username, password string) (*model.LoginResponse, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc Authenticator) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps domain errors to status codes; anything unknown is
// logged and reported as 500
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	var aerr *analytics.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": verr.Error(), "problems": verr.Problems})
	case errors.As(err, &aerr):
		status := http.StatusInternalServerError
		switch aerr.Kind {
		case analytics.KindInvalidGroupingKey, analytics.KindInvalidOptions:
			status = http.StatusBadRequest
		case analytics.KindSchemaMismatch:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]interface{}{"error": aerr.Error(), "detail": aerr})
	case errors.Is(err, service.ErrUnknownExport):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
