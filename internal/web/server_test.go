package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calassist/internal/dialog"
	"calassist/internal/executor"
	"calassist/internal/extract"
	"calassist/internal/session"
)

type stubRunner struct {
	outcome executor.Outcome
}

func (s *stubRunner) Run(context.Context, session.Intent, session.FieldRecord, string) executor.Outcome {
	return s.outcome
}

func (s *stubRunner) CandidatesByName(context.Context, string) ([]session.Candidate, error) {
	return nil, nil
}

func (s *stubRunner) DeletableEvents(context.Context) ([]session.Candidate, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	store, err := session.OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	manager := dialog.New(extract.NewRulesOnly(), &stubRunner{
		outcome: executor.Outcome{OK: true, Message: "done"},
	}, nil, dialog.Options{})
	return New(store, manager), store
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestChatAssignsSessionAndPersistsState(t *testing.T) {
	server, store := newTestServer(t)

	w := postJSON(t, server.Handler(), "/api/chat", map[string]string{
		"message": "schedule a meeting",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("no session id assigned")
	}
	if !strings.Contains(resp.Reply, "email address") {
		t.Errorf("reply = %q, want email prompt", resp.Reply)
	}

	// The conversation survives into the next request for the same session
	conv, err := store.Get(resp.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if conv.Intent != session.IntentSchedule {
		t.Errorf("persisted intent = %q", conv.Intent)
	}

	w = postJSON(t, server.Handler(), "/api/chat", map[string]string{
		"session_id": resp.SessionID,
		"message":    "alice@example.com",
	})
	if !strings.Contains(w.Body.String(), "event name") {
		t.Errorf("second turn reply = %s", w.Body.String())
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	server, _ := newTestServer(t)

	w := postJSON(t, server.Handler(), "/api/chat", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestClearSession(t *testing.T) {
	server, store := newTestServer(t)

	conv := session.NewConversation()
	conv.Intent = session.IntentSchedule
	store.Put("s1", conv)

	w := postJSON(t, server.Handler(), "/api/session/clear", map[string]string{
		"session_id": "s1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	got, _ := store.Get("s1")
	if got.Active() {
		t.Error("session still active after clear")
	}
}

func TestMeetingsEndpoint(t *testing.T) {
	server, store := newTestServer(t)

	store.TrackMeeting(session.Meeting{
		ID:               "m1",
		ParticipantEmail: "alice@example.com",
		EventName:        "Team Sync",
		EventDate:        "2026-08-27",
		EventTime:        "10 AM",
	})

	req := httptest.NewRequest("GET", "/api/meetings", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Team Sync") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
