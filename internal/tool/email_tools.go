package tool

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// GetThreadTool returns a full email thread
type GetThreadTool struct {
	threads ThreadService
	logger  *zap.Logger
}

func (t *GetThreadTool) Name() string { return "get_thread" }
func (t *GetThreadTool) Description() string {
	return "Get the full email thread history (all messages and metadata) by thread ID."
}
func (t *GetThreadTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"thread_id": {"type": "string", "description": "Unique identifier of the email thread"}
		},
		"required": ["thread_id"]
	}`)
}

func (t *GetThreadTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ThreadID string `json:"thread_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireField("thread_id", p.ThreadID); err != nil {
		return nil, err
	}

	thread, err := t.threads.GetThread(ctx, p.ThreadID)
	if errors.Is(err, core.ErrNotFound) {
		t.logger.Warn("Thread not found", zap.String("thread_id", p.ThreadID))
		return Failure("Thread %s not found", p.ThreadID), nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Data: thread}, nil
}

// ListThreadsTool lists the most recently active threads
type ListThreadsTool struct {
	threads ThreadService
	logger  *zap.Logger
}

func (t *ListThreadsTool) Name() string { return "list_recent_threads" }
func (t *ListThreadsTool) Description() string {
	return "List recent email threads sorted by latest message time, newest first."
}
func (t *ListThreadsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {"type": "integer", "description": "Maximum number of threads to return (default 10)"}
		}
	}`)
}

func (t *ListThreadsTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		Limit int `json:"limit"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	summaries, err := t.threads.ListRecentThreads(ctx, p.Limit)
	if err != nil {
		return nil, err
	}
	total := len(summaries)
	return &Result{Success: true, Data: summaries, Total: &total}, nil
}

// SendReplyTool sends a reply on a thread
type SendReplyTool struct {
	threads ThreadService
	logger  *zap.Logger
}

func (t *SendReplyTool) Name() string { return "send_reply" }
func (t *SendReplyTool) Description() string {
	return "Send a reply email to the influencer on an existing thread."
}
func (t *SendReplyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"thread_id": {"type": "string", "description": "The thread to reply to"},
			"content": {"type": "string", "description": "The email body to send"}
		},
		"required": ["thread_id", "content"]
	}`)
}

func (t *SendReplyTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ThreadID string `json:"thread_id"`
		Content  string `json:"content"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireField("thread_id", p.ThreadID); err != nil {
		return nil, err
	}
	if err := requireField("content", p.Content); err != nil {
		return nil, err
	}

	msg, err := t.threads.SendReply(ctx, p.ThreadID, p.Content)
	if errors.Is(err, core.ErrNotFound) {
		return Failure("Thread %s not found", p.ThreadID), nil
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Success: true,
		Message: "Reply sent successfully",
		Data: struct {
			ThreadID string        `json:"thread_id"`
			SentAt   time.Time     `json:"sent_at"`
			Message  *core.Message `json:"message"`
		}{p.ThreadID, msg.Timestamp, msg},
	}, nil
}

// MarkProcessedTool marks a thread as handled
type MarkProcessedTool struct {
	threads ThreadService
	logger  *zap.Logger
}

func (t *MarkProcessedTool) Name() string { return "mark_processed" }
func (t *MarkProcessedTool) Description() string {
	return "Mark an email thread as processed/approved."
}
func (t *MarkProcessedTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"thread_id": {"type": "string", "description": "The thread to mark as processed"}
		},
		"required": ["thread_id"]
	}`)
}

func (t *MarkProcessedTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ThreadID string `json:"thread_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireField("thread_id", p.ThreadID); err != nil {
		return nil, err
	}

	thread, err := t.threads.MarkProcessed(ctx, p.ThreadID)
	if errors.Is(err, core.ErrNotFound) {
		return Failure("Thread %s not found", p.ThreadID), nil
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Success: true,
		Message: "Thread " + p.ThreadID + " marked as processed",
		Data: struct {
			ThreadID    string     `json:"thread_id"`
			Status      string     `json:"status"`
			ProcessedAt *time.Time `json:"processed_at"`
		}{thread.ID, thread.Status, thread.ProcessedAt},
	}, nil
}
