package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"surveystats/internal/model"
)

// ResponseRecorder is the response service as seen by HTTP
type ResponseRecorder interface {
	Schema() *model.Schema
	Submit(ctx context.Context, sub *model.Submission) (*model.Response, error)
	List(ctx context.Context) (model.ResponseTable, error)
}

// ResponseHandler handles schema and response endpoints
type ResponseHandler struct {
	responseSvc ResponseRecorder
	logger      *zap.Logger
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc ResponseRecorder, logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{responseSvc: responseSvc, logger: logger}
}

// Schema handles GET /v1/schema
func (h *ResponseHandler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.responseSvc.Schema())
}

// Submit handles POST /v1/responses
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.responseSvc.Submit(r.Context(), &sub)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /v1/responses
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	table, err := h.responseSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(table),
		"responses": table,
	})
}
