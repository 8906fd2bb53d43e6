package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestListEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/calendars/primary/events") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.URL.Query().Get("singleEvents"); got != "true" {
			t.Errorf("singleEvents = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id":      "ev-1",
					"summary": "Team Sync",
					"start":   map[string]string{"dateTime": "2026-08-27T10:00:00Z"},
					"end":     map[string]string{"dateTime": "2026-08-27T11:00:00Z"},
					"organizer": map[string]string{"email": "me@corp.io"},
					"attendees": []map[string]interface{}{
						{"email": "alice@example.com", "responseStatus": "accepted"},
					},
				},
				{
					"id":      "ev-2",
					"summary": "Company Holiday",
					"start":   map[string]string{"date": "2026-08-28"},
					"end":     map[string]string{"date": "2026-08-29"},
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	events, err := c.ListEvents(context.Background(), ListEventsParams{
		TimeMin: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		TimeMax: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Summary != "Team Sync" || !events[0].HasAttendee("alice@example.com") {
		t.Errorf("event 0 = %+v", events[0])
	}
	if !events[0].OwnedBy("me@corp.io") {
		t.Error("organizer not recognized as owner")
	}
	if !events[1].AllDay {
		t.Error("date-only event not marked all-day")
	}
}

func TestCreateEventRequestsMeetLink(t *testing.T) {
	var captured googleEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("sendUpdates"); got != "all" {
			t.Errorf("sendUpdates = %q", got)
		}
		if got := r.URL.Query().Get("conferenceDataVersion"); got != "1" {
			t.Errorf("conferenceDataVersion = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "new-ev",
			"summary": captured.Summary,
			"start":   map[string]string{"dateTime": "2026-08-27T10:00:00Z"},
			"end":     map[string]string{"dateTime": "2026-08-27T11:00:00Z"},
			"conferenceData": map[string]interface{}{
				"entryPoints": []map[string]string{
					{"entryPointType": "video", "uri": "https://meet.google.com/abc"},
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	event, err := c.CreateEvent(context.Background(), CreateEventParams{
		Summary:   "Team Sync",
		Start:     time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC),
		Attendees: []string{"alice@example.com"},
		RequestID: "req-123",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if captured.ConferenceData == nil || captured.ConferenceData.CreateRequest == nil {
		t.Fatal("conference create request missing from payload")
	}
	if captured.ConferenceData.CreateRequest.RequestID != "req-123" {
		t.Errorf("request id = %q", captured.ConferenceData.CreateRequest.RequestID)
	}
	if len(captured.Attendees) != 1 || captured.Attendees[0].Email != "alice@example.com" {
		t.Errorf("attendees = %+v", captured.Attendees)
	}
	if event.MeetLink != "https://meet.google.com/abc" {
		t.Errorf("meet link = %q", event.MeetLink)
	}
}

func TestDeleteEventReturnsClassifiedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 404, "message": "Not Found"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	err := c.DeleteEvent(context.Background(), "gone")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T, want *APIError", err)
	}
	if apiErr.Kind() != FailureNotFound {
		t.Errorf("kind = %v, want not found", apiErr.Kind())
	}
}

func TestGetEventFetchesByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/primary/events/ev-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "ev-1",
			"summary": "Team Sync",
			"start":   map[string]string{"dateTime": "2026-08-27T10:00:00Z"},
			"end":     map[string]string{"dateTime": "2026-08-27T11:00:00Z"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	event, err := c.GetEvent(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if event.ID != "ev-1" || event.Summary != "Team Sync" {
		t.Errorf("event = %+v", event)
	}
}

func TestFreeBusy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/freeBusy" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Items []map[string]string `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Items) != 1 || req.Items[0]["id"] != "alice@example.com" {
			t.Errorf("items = %v", req.Items)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"calendars": map[string]interface{}{
				"alice@example.com": map[string]interface{}{
					"busy": []map[string]string{
						{"start": "2026-08-27T10:30:00Z", "end": "2026-08-27T11:30:00Z"},
					},
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	busy, err := c.FreeBusy(context.Background(), FreeBusyParams{
		TimeMin:    time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		TimeMax:    time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC),
		CalendarID: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("FreeBusy: %v", err)
	}
	if len(busy) != 1 || busy[0].Start.Hour() != 10 || busy[0].Start.Minute() != 30 {
		t.Errorf("busy = %+v", busy)
	}
}

func TestFreeBusyCalendarNotVisible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"calendars": map[string]interface{}{
				"bob@external.io": map[string]interface{}{
					"errors": []map[string]string{{"reason": "notFound"}},
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	_, err := c.FreeBusy(context.Background(), FreeBusyParams{
		TimeMin:    time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		TimeMax:    time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC),
		CalendarID: "bob@external.io",
	})
	if err == nil {
		t.Fatal("expected error for an invisible calendar")
	}
}

func TestAPIErrorKinds(t *testing.T) {
	tests := []struct {
		code int
		want FailureKind
	}{
		{401, FailureAuth},
		{403, FailurePermission},
		{404, FailureNotFound},
		{429, FailureRateLimit},
		{500, FailureGeneric},
	}

	for _, tt := range tests {
		err := &APIError{Code: tt.code, Message: "x"}
		if got := err.Kind(); got != tt.want {
			t.Errorf("Kind(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestUpdateEventTimePatchesWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" {
			t.Errorf("method = %s", r.Method)
		}
		var patch googleEvent
		json.NewDecoder(r.Body).Decode(&patch)
		if patch.Start == nil || patch.Start.DateTime == "" {
			t.Error("patch missing start")
		}
		if patch.Summary != "" {
			t.Error("patch must only carry the new window")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "ev-1",
			"start": map[string]string{"dateTime": "2026-08-28T15:00:00Z"},
			"end":   map[string]string{"dateTime": "2026-08-28T16:00:00Z"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, "primary")
	event, err := c.UpdateEventTime(context.Background(), "ev-1",
		time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("UpdateEventTime: %v", err)
	}
	if event.Start.Hour() != 15 {
		t.Errorf("start = %v", event.Start)
	}
}
