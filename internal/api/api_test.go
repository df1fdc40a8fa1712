package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/adapters/lock"
	"github.com/mikey/outreach-agent/internal/adapters/store"
	"github.com/mikey/outreach-agent/internal/agent"
	"github.com/mikey/outreach-agent/internal/core"
)

type fakeDrafter struct {
	brand string
	err   error
}

func (f *fakeDrafter) Run(_ context.Context, thread *core.EmailThread, brandID string) (*agent.Draft, error) {
	f.brand = brandID
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Draft{
		RunID:      "run-1",
		Content:    "Hi " + thread.InfluencerName + ", we can offer $2,000.",
		Category:   "negotiation",
		Iterations: 2,
		State:      agent.StateDone.String(),
	}, nil
}

type recordingMailer struct {
	sent []*core.OutboundEmail
}

func (m *recordingMailer) Send(_ context.Context, e *core.OutboundEmail) error {
	m.sent = append(m.sent, e)
	return nil
}

func newTestServer(t *testing.T, drafter Drafter) (*httptest.Server, *recordingMailer) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	threads := store.NewMemoryThreadRepository([]*core.EmailThread{
		{ID: "thread-001", InfluencerName: "Alex", InfluencerEmail: "alex@creator.com", Brand: "Perplexity", Status: core.ThreadStatusOpen,
			Messages: []core.Message{{From: "alex@creator.com", Subject: "Sponsorship", Body: "My rate is $3,000", Timestamp: base}}},
		{ID: "thread-002", InfluencerName: "Sam", InfluencerEmail: "sam@creator.com", Brand: "Perplexity", Status: core.ThreadStatusOpen,
			Messages: []core.Message{{From: "sam@creator.com", Subject: "Collab", Body: "Interested", Timestamp: base.Add(time.Hour)}}},
	})
	mailer := &recordingMailer{}
	svc := core.NewOutreachService(threads, store.NewMemoryBrandRepository(nil), lock.NewKeyedMutex(), mailer, zap.NewNop())

	h := NewHandlers(svc, drafter, "", "test", zap.NewNop())
	srv := httptest.NewServer(NewRouter(h, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)
	return srv, mailer
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDrafter{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestListEmails(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDrafter{})

	resp, err := http.Get(srv.URL + "/api/emails?limit=1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    []core.ThreadSummary `json:"data"`
		Total   int                  `json:"total"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "thread-002", body.Data[0].ThreadID)

	resp, err = http.Get(srv.URL + "/api/emails?limit=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, CodeBadRequest, errBody.Code)
}

func TestGetEmail(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDrafter{})

	resp, err := http.Get(srv.URL + "/api/emails/thread-001")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data core.EmailThread `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Alex", body.Data.InfluencerName)
	assert.Len(t, body.Data.Messages, 1)

	resp, err = http.Get(srv.URL + "/api/emails/thread-404")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, ErrorResponse{Error: "thread not found", Code: CodeNotFound}, errBody)
}

func TestGenerate(t *testing.T) {
	drafter := &fakeDrafter{}
	srv, _ := newTestServer(t, drafter)

	resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(`{"thread_id":"thread-001"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var draft agent.Draft
	decodeBody(t, resp, &draft)
	assert.Equal(t, "Hi Alex, we can offer $2,000.", draft.Content)
	assert.Equal(t, "negotiation", draft.Category)
	assert.Equal(t, agent.DefaultBrandID, drafter.brand)

	_, err = http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(`{"thread_id":"thread-001","brand_id":"acme"}`))
	require.NoError(t, err)
	assert.Equal(t, "acme", drafter.brand)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{"missing thread id", nil, `{}`, http.StatusBadRequest, CodeBadRequest},
		{"bad json", nil, `{`, http.StatusBadRequest, CodeBadRequest},
		{"unknown thread", nil, `{"thread_id":"nope"}`, http.StatusNotFound, CodeNotFound},
		{"timeout", agent.ErrTimeout, `{"thread_id":"thread-001"}`, http.StatusGatewayTimeout, CodeTimeout},
		{"provider", withDetail(agent.ErrProvider, "secret upstream detail"), `{"thread_id":"thread-001"}`, http.StatusBadGateway, CodeUpstreamError},
		{"internal", errors.New("db exploded"), `{"thread_id":"thread-001"}`, http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeDrafter{err: tt.err})
			resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Error, "secret")
			assert.NotContains(t, body.Error, "exploded")
		})
	}
}

func withDetail(base error, detail string) error {
	return errors.Join(base, errors.New(detail))
}

func TestSendMarksProcessed(t *testing.T) {
	srv, mailer := newTestServer(t, &fakeDrafter{})

	resp, err := http.Post(srv.URL+"/api/send", "application/json",
		strings.NewReader(`{"thread_id":"thread-001","content":"Deal at $2,500!"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool         `json:"success"`
		Data    SendResponse `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "outreach@perplexity.ai", body.Data.Message.From)
	assert.Equal(t, "Re: Sponsorship", body.Data.Message.Subject)
	assert.Equal(t, core.ThreadStatusProcessed, body.Data.Thread.Status)
	assert.Len(t, body.Data.Thread.Messages, 2)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alex@creator.com", mailer.sent[0].To)

	resp, err = http.Post(srv.URL+"/api/send", "application/json", strings.NewReader(`{"thread_id":"thread-001","content":"  "}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDrafter{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/generate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
