package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/agent"
	"github.com/mikey/outreach-agent/internal/core"
)

// Error codes returned to clients
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeTimeout       = "timeout"
	CodeUpstreamError = "upstream_error"
	CodeInternal      = "internal_error"
)

// ErrorResponse is the error envelope for every API error
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DataResponse wraps successful payloads
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   *int        `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error to a status and a generic message.
// Internal error text is only logged.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrThreadNotFound):
		writeError(w, logger, http.StatusNotFound, CodeNotFound, "thread not found")
	case errors.Is(err, core.ErrBrandNotFound):
		writeError(w, logger, http.StatusNotFound, CodeNotFound, "brand not found")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, agent.ErrTimeout):
		logger.Warn("Request timed out", zap.Error(err))
		writeError(w, logger, http.StatusGatewayTimeout, CodeTimeout, "the agent did not finish in time")
	case errors.Is(err, agent.ErrProvider):
		logger.Error("Completion provider failed", zap.Error(err))
		writeError(w, logger, http.StatusBadGateway, CodeUpstreamError, "the language model request failed")
	default:
		logger.Error("Internal error", zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// decode reads a JSON body into dst, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
