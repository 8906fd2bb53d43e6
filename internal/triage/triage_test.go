package triage

import (
	"context"
	"strings"
	"testing"
	"time"

	"calassist/internal/extract"
	"calassist/internal/session"
)

type fakeInbox struct {
	emails  []Email
	lastMax int64
}

func (f *fakeInbox) Recent(_ context.Context, max int64) ([]Email, error) {
	f.lastMax = max
	return f.emails, nil
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name         string
		email        Email
		wantUrgency  string
		wantCategory string
		wantMeeting  bool
	}{
		{
			"urgent meeting request",
			Email{Subject: "URGENT: schedule a call", Body: "Can we meet asap?"},
			"high", "meeting", true,
		},
		{
			"plain meeting request",
			Email{Subject: "Coffee chat?", Body: "Would love to schedule a meeting next week"},
			"medium", "meeting", true,
		},
		{
			"task email",
			Email{Subject: "Review the project deliverable", Body: "Please complete by Friday"},
			"medium", "information", false,
		},
		{
			"spam",
			Email{Subject: "Congratulations, you are a winner!", Body: "Click here to unsubscribe"},
			"low", "spam", false,
		},
		{
			"personal sender",
			Email{Sender: "friend@gmail.com", Subject: "weekend", Body: "see you saturday"},
			"low", "personal", false,
		},
		{
			"newsletter",
			Email{Sender: "news@corp.io", Subject: "Changelog", Body: "What shipped this month"},
			"low", "information", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.email)
			if got.Urgency != tt.wantUrgency {
				t.Errorf("urgency = %q, want %q", got.Urgency, tt.wantUrgency)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.IsMeetingRequest != tt.wantMeeting {
				t.Errorf("is meeting = %v, want %v", got.IsMeetingRequest, tt.wantMeeting)
			}
		})
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		request string
		want    int64
	}{
		{"check my emails", defaultBatchSize},
		{"process 5 emails", 5},
		{"show all emails", maxBatchSize},
		{"fetch 9999 emails", maxBatchSize},
	}

	for _, tt := range tests {
		if got := batchSize(tt.request); got != tt.want {
			t.Errorf("batchSize(%q) = %d, want %d", tt.request, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	inbox := &fakeInbox{emails: []Email{
		{Sender: "boss@corp.io", Subject: "URGENT: deadline today", Body: "need this now"},
		{Sender: "alice@example.com", Subject: "Schedule a sync", Body: "can we meet tomorrow at 2 PM?"},
		{Sender: "news@corp.io", Subject: "Weekly digest", Body: "what happened this week"},
	}}
	tr := New(inbox, nil, extract.NewRulesOnly())
	tr.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }

	summary, err := tr.Summary(context.Background(), "process 10 emails")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if inbox.lastMax != 10 {
		t.Errorf("fetched %d, want 10", inbox.lastMax)
	}
	if !strings.Contains(summary, "3 messages") {
		t.Errorf("summary = %q, want message count", summary)
	}
	if !strings.Contains(summary, "High priority: 1") {
		t.Errorf("summary = %q, want one high-priority email", summary)
	}
	if !strings.Contains(summary, "Meeting requests: 1") {
		t.Errorf("summary = %q, want one meeting request", summary)
	}
	if !strings.Contains(summary, "Schedule a sync") {
		t.Errorf("summary = %q, want the meeting subject listed", summary)
	}
	// Each listed meeting request carries its extracted scheduling details
	if !strings.Contains(summary, "Proposed: with alice@example.com on 2026-08-27 at 2 PM") {
		t.Errorf("summary = %q, want the proposed meeting details", summary)
	}
}

func TestSummaryEmptyInbox(t *testing.T) {
	tr := New(&fakeInbox{}, nil, extract.NewRulesOnly())
	summary, err := tr.Summary(context.Background(), "check my emails")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !strings.Contains(summary, "No emails") {
		t.Errorf("summary = %q", summary)
	}
}

func TestMeetingDetails(t *testing.T) {
	tr := New(&fakeInbox{}, nil, extract.NewRulesOnly())
	tr.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }

	rec := tr.MeetingDetails(Email{
		Sender:  "Alice Smith <alice@example.com>",
		Subject: "Project kickoff",
		Body:    "Can we meet tomorrow at 2 PM?",
	})

	if rec[session.FieldParticipantEmail] != "alice@example.com" {
		t.Errorf("participant_email = %q", rec[session.FieldParticipantEmail])
	}
	if rec[session.FieldEventName] != "Project kickoff" {
		t.Errorf("event_name = %q", rec[session.FieldEventName])
	}
	if rec[session.FieldEventDate] != "2026-08-27" {
		t.Errorf("event_date = %q", rec[session.FieldEventDate])
	}
	if rec[session.FieldEventTime] != "2 PM" {
		t.Errorf("event_time = %q", rec[session.FieldEventTime])
	}
}
