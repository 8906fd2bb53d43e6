// Package validate checks a single collected field value and produces either
// a normalized value or a field-specific corrective message. Validation
// failure is never fatal: the dialog manager re-prompts and the session stays
// in the same awaited-field state.
package validate

import (
	"regexp"
	"strings"
	"time"

	"calassist/internal/dates"
	"calassist/internal/session"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var intentWords = map[string]bool{
	"schedule": true, "meet": true, "meeting": true, "appointment": true,
	"book": true, "plan": true,
	"update": true, "change": true, "reschedule": true, "modify": true,
	"move": true, "shift": true, "postpone": true, "advance": true,
	"edit": true, "alter": true,
	"delete": true, "cancel": true, "remove": true,
	"none": true, "null": true,
}

// Result is the outcome of validating one field value.
type Result struct {
	OK         bool
	Normalized string // value to store when OK
	Message    string // corrective prompt when not OK
}

func accept(value string) Result { return Result{OK: true, Normalized: value} }
func reject(msg string) Result   { return Result{Message: msg} }

// Email validates an email address.
func Email(raw string) Result {
	raw = strings.TrimSpace(raw)
	if emailPattern.MatchString(raw) {
		return accept(raw)
	}
	return reject("That doesn't look like a valid email address. Please enter it as name@example.com.")
}

// Date validates a date expression with future-preferring parsing. Today is
// valid, yesterday never is. Accepted dates normalize to YYYY-MM-DD.
func Date(raw string, now time.Time) Result {
	day, ok := dates.ParseDate(raw, now)
	if !ok {
		return reject("Please enter a valid future date (e.g., 'tomorrow', 'April 15', 'next Monday').")
	}
	return accept(day.Format(dates.ISODate))
}

// Time validates a time expression. The accepted value is stored literally
// since downstream datetime resolution re-parses it.
func Time(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw != "" && dates.LooksLikeTime(raw) {
		return accept(raw)
	}
	return reject("Please enter a valid time (e.g., '2 PM', '10:00 AM to 11:00 AM', 'morning').")
}

// EventName validates an event name for update/delete: non-empty after
// trimming and not itself an intent keyword.
func EventName(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" || intentWords[strings.ToLower(raw)] {
		return reject("Please enter a valid event name (e.g., 'Team Meeting', 'Project Review').")
	}
	return accept(raw)
}

// Field validates a raw value against the named field.
func Field(field, raw string, now time.Time) Result {
	switch field {
	case session.FieldParticipantEmail:
		return Email(raw)
	case session.FieldEventDate, session.FieldNewDate:
		return Date(raw, now)
	case session.FieldEventTime, session.FieldNewTime:
		return Time(raw)
	case session.FieldEventName:
		return EventName(raw)
	default:
		return reject("I didn't understand that value.")
	}
}
