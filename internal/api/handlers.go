package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/agent"
	"github.com/mikey/outreach-agent/internal/core"
)

// ThreadService is the subset of the outreach service used by the API
type ThreadService interface {
	GetThread(ctx context.Context, threadID string) (*core.EmailThread, error)
	ListRecentThreads(ctx context.Context, limit int) ([]core.ThreadSummary, error)
	SendReply(ctx context.Context, threadID, body string) (*core.Message, error)
	MarkProcessed(ctx context.Context, threadID string) (*core.EmailThread, error)
}

// Drafter produces a reply draft for a thread
type Drafter interface {
	Run(ctx context.Context, thread *core.EmailThread, brandID string) (*agent.Draft, error)
}

// Handlers serves the outreach HTTP API
type Handlers struct {
	threads      ThreadService
	drafter      Drafter
	defaultBrand string
	version      string
	logger       *zap.Logger
}

// NewHandlers creates the API handlers
func NewHandlers(threads ThreadService, drafter Drafter, defaultBrand, version string, logger *zap.Logger) *Handlers {
	if defaultBrand == "" {
		defaultBrand = agent.DefaultBrandID
	}
	return &Handlers{
		threads:      threads,
		drafter:      drafter,
		defaultBrand: defaultBrand,
		version:      version,
		logger:       logger,
	}
}

// GenerateRequest asks the agent to draft a reply
type GenerateRequest struct {
	ThreadID string `json:"thread_id"`
	BrandID  string `json:"brand_id"`
}

// SendRequest approves and sends a reply
type SendRequest struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
}

// SendResponse is returned after a reply is sent and the thread closed
type SendResponse struct {
	Message *core.Message     `json:"message"`
	Thread  *core.EmailThread `json:"thread"`
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "outreach-agent",
		"version": h.version,
	})
}

// ListEmails returns the most recent thread summaries
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	limit := core.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summaries, err := h.threads.ListRecentThreads(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	total := len(summaries)
	writeJSON(w, h.logger, http.StatusOK, DataResponse{Success: true, Data: summaries, Total: &total})
}

// GetEmail returns one thread with its messages
func (h *Handlers) GetEmail(w http.ResponseWriter, r *http.Request) {
	thread, err := h.threads.GetThread(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, DataResponse{Success: true, Data: thread})
}

// Generate runs the agent over a thread and returns the draft
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	if req.ThreadID == "" {
		writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "thread_id is required")
		return
	}
	if req.BrandID == "" {
		req.BrandID = h.defaultBrand
	}

	thread, err := h.threads.GetThread(r.Context(), req.ThreadID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	draft, err := h.drafter.Run(r.Context(), thread, req.BrandID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, draft)
}

// Send delivers an approved reply and marks the thread processed
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	if req.ThreadID == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "thread_id and content are required")
		return
	}

	msg, err := h.threads.SendReply(r.Context(), req.ThreadID, req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	thread, err := h.threads.MarkProcessed(r.Context(), req.ThreadID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, DataResponse{Success: true, Data: SendResponse{Message: msg, Thread: thread}})
}
