package validate

import (
	"testing"
	"time"

	"calassist/internal/session"
)

var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"alice@example.com", true},
		{"  bob.smith+test@sub.corp.io  ", true},
		{"not-an-email", false},
		{"@example.com", false},
		{"alice@", false},
		{"", false},
		{"meet alice@example.com tomorrow", false}, // must be the whole value
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got.OK != tt.ok {
				t.Errorf("Email(%q).OK = %v, want %v", tt.input, got.OK, tt.ok)
			}
			if got.OK && got.Normalized == "" {
				t.Error("accepted value missing normalized form")
			}
			if !got.OK && got.Message == "" {
				t.Error("rejected value missing corrective message")
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		want  string
	}{
		{"today", true, "2026-08-26"},
		{"tomorrow", true, "2026-08-27"},
		{"yesterday", false, ""},
		{"gibberish", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Date(tt.input, testNow)
			if got.OK != tt.ok {
				t.Fatalf("Date(%q).OK = %v, want %v", tt.input, got.OK, tt.ok)
			}
			if got.OK && got.Normalized != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got.Normalized, tt.want)
			}
		})
	}
}

func TestTime(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2 PM", true},
		{"10:00 AM to 11:00 AM", true},
		{"morning", true},
		{"14:30", true},
		{"sometime", false},
		{"", false},
	}

	for _, tt := range tests {
		got := Time(tt.input)
		if got.OK != tt.ok {
			t.Errorf("Time(%q).OK = %v, want %v", tt.input, got.OK, tt.ok)
		}
	}
}

func TestEventName(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"Team Sync", true},
		{"Project Review", true},
		{"  spaced out  ", true},
		{"meeting", false}, // bare intent words are not names
		{"cancel", false},
		{"", false},
	}

	for _, tt := range tests {
		got := EventName(tt.input)
		if got.OK != tt.ok {
			t.Errorf("EventName(%q).OK = %v, want %v", tt.input, got.OK, tt.ok)
		}
	}
}

func TestFieldDispatch(t *testing.T) {
	if got := Field(session.FieldParticipantEmail, "alice@example.com", testNow); !got.OK {
		t.Error("participant_email dispatch failed")
	}
	if got := Field(session.FieldNewDate, "tomorrow", testNow); !got.OK || got.Normalized != "2026-08-27" {
		t.Errorf("new_date dispatch = %+v", got)
	}
	if got := Field(session.FieldNewTime, "3 PM", testNow); !got.OK {
		t.Error("new_time dispatch failed")
	}
	if got := Field("bogus_field", "anything", testNow); got.OK {
		t.Error("unknown field must be rejected")
	}
}
