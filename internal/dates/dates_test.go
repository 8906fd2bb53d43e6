package dates

import (
	"testing"
	"time"
)

// Wednesday, noon
var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func TestParseDateRelativeWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"today", "2026-08-26", true},
		{"tomorrow", "2026-08-27", true},
		{"meeting today at 5", "2026-08-26", true},
		{"schedule it for tomorrow afternoon", "2026-08-27", true},
		{"yesterday", "", false},
		{"", "", false},
		{"no date in this sentence", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input, testNow)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.Format(ISODate) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(ISODate), tt.want)
			}
		})
	}
}

func TestParseDateISORoundTrip(t *testing.T) {
	got, ok := ParseDate("2026-09-15", testNow)
	if !ok {
		t.Fatal("expected ISO date to parse")
	}
	if got.Format(ISODate) != "2026-09-15" {
		t.Errorf("got %s, want 2026-09-15", got.Format(ISODate))
	}

	// A past ISO date never matches
	if _, ok := ParseDate("2026-08-25", testNow); ok {
		t.Error("expected past ISO date to be rejected")
	}
}

func TestParseDateWeekdayPrefersFuture(t *testing.T) {
	got, ok := ParseDate("friday", testNow)
	if !ok {
		t.Fatal("expected weekday to parse")
	}
	today := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	if got.Before(today) {
		t.Errorf("resolved weekday %s is in the past", got.Format(ISODate))
	}
	if got.Weekday() != time.Friday {
		t.Errorf("resolved weekday = %s, want Friday", got.Weekday())
	}
	if got.Sub(today) > 7*24*time.Hour {
		t.Errorf("resolved weekday %s is more than a week out", got.Format(ISODate))
	}
}

func TestExtractTime(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"meet at 2 PM", "2 PM", true},
		{"from 10:00 AM to 11:00 AM", "10:00 AM to 11:00 AM", true},
		{"2 pm - 3 pm works for me", "2 pm - 3 pm", true},
		{"the standup is at 14:00", "14:00", true},
		{"sometime in the morning", "morning", true},
		{"around noon would be great", "noon", true},
		{"no time mentioned here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("ExtractTime(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ExtractTime(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLooksLikeTime(t *testing.T) {
	if !LooksLikeTime("2 PM") {
		t.Error("expected 2 PM to look like a time")
	}
	if LooksLikeTime("next tuesday") {
		t.Error("expected next tuesday to not look like a time")
	}
}

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		timeExpr  string
		wantStart string
		wantEnd   string
	}{
		{"explicit range", "2026-08-27", "10:00 AM to 11:00 AM",
			"2026-08-27T10:00", "2026-08-27T11:00"},
		{"bare start gets one hour", "2026-08-27", "2 PM",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"start inherits pm from end", "2026-08-27", "2 to 3 pm",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"natural word window", "2026-08-27", "afternoon",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"24h clock", "2026-08-27", "14:00",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"noon", "2026-08-27", "noon",
			"2026-08-27T12:00", "2026-08-27T13:00"},
		{"natural word in a sentence", "2026-08-27", "sometime in the afternoon",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"time embedded in a sentence", "2026-08-27", "let's do 2 PM",
			"2026-08-27T14:00", "2026-08-27T15:00"},
		{"unreadable date falls back to tomorrow", "not a date", "2 PM",
			"2026-08-27T14:00", "2026-08-27T15:00"},
	}

	const layout = "2006-01-02T15:04"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ResolveWindow(tt.date, tt.timeExpr, testNow)
			if err != nil {
				t.Fatalf("ResolveWindow returned error: %v", err)
			}
			if start.Format(layout) != tt.wantStart {
				t.Errorf("start = %s, want %s", start.Format(layout), tt.wantStart)
			}
			if end.Format(layout) != tt.wantEnd {
				t.Errorf("end = %s, want %s", end.Format(layout), tt.wantEnd)
			}
		})
	}
}

func TestResolveWindowAfternoonNeverYieldsNoon(t *testing.T) {
	// "afternoon" contains "noon"; the substitution must pick the longer word
	// every time, not whichever happens to be checked first.
	for i := 0; i < 50; i++ {
		start, _, err := ResolveWindow("2026-08-27", "afternoon", testNow)
		if err != nil {
			t.Fatalf("ResolveWindow returned error: %v", err)
		}
		if start.Hour() != 14 {
			t.Fatalf("iteration %d: afternoon resolved to %d:00, want 14:00", i, start.Hour())
		}
	}
}

func TestResolveWindowAcceptsWhateverValidationAccepts(t *testing.T) {
	// Any value the time validator lets into a record must resolve.
	for _, value := range []string{"let's do 2 PM", "how about 10:00 to 11:00", "maybe in the evening"} {
		if !LooksLikeTime(value) {
			t.Fatalf("LooksLikeTime(%q) = false, test premise broken", value)
		}
		if _, _, err := ResolveWindow("2026-08-27", value, testNow); err != nil {
			t.Errorf("ResolveWindow(%q) returned error: %v", value, err)
		}
	}
}

func TestResolveWindowRejectsUnreadableTime(t *testing.T) {
	if _, _, err := ResolveWindow("2026-08-27", "banana", testNow); err == nil {
		t.Fatal("expected error for unreadable time expression")
	}
}
