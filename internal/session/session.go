package session

import (
	"fmt"
	"strings"
)

// Intent is the single conversational goal governing which fields are required.
// It is set once per conversation and stays fixed until the conversation
// terminates.
type Intent string

const (
	IntentNone     Intent = ""
	IntentSchedule Intent = "schedule"
	IntentUpdate   Intent = "update"
	IntentDelete   Intent = "delete"
)

// Field names used in a FieldRecord
const (
	FieldParticipantEmail = "participant_email"
	FieldEventName        = "event_name"
	FieldEventDate        = "event_date"
	FieldEventTime        = "event_time"
	FieldNewDate          = "new_date"
	FieldNewTime          = "new_time"
)

// requiredFields lists, in declaration order, the fields each intent must
// collect before its action can run. The order determines which field is
// prompted for next.
var requiredFields = map[Intent][]string{
	IntentSchedule: {FieldParticipantEmail, FieldEventName, FieldEventDate, FieldEventTime},
	IntentUpdate:   {FieldEventName, FieldNewDate, FieldNewTime},
	IntentDelete:   {FieldEventName},
}

// RequiredFields returns the required field names for an intent in
// declaration order.
func RequiredFields(intent Intent) []string {
	return requiredFields[intent]
}

// FieldRecord maps field names to collected string values, scoped to the
// active intent. Keys outside the intent's required set are rejected at the
// boundary via Set.
type FieldRecord map[string]string

// Has reports whether the field exists and is non-empty after trimming.
func (r FieldRecord) Has(field string) bool {
	return strings.TrimSpace(r[field]) != ""
}

// Get returns the trimmed value of a field.
func (r FieldRecord) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Set stores a value for a field, rejecting fields that are not in the
// intent's required set.
func (r FieldRecord) Set(intent Intent, field, value string) error {
	for _, f := range requiredFields[intent] {
		if f == field {
			r[field] = strings.TrimSpace(value)
			return nil
		}
	}
	return fmt.Errorf("field %q not valid for intent %q", field, intent)
}

// Missing returns the required fields for the intent that are still absent,
// in declaration order.
func (r FieldRecord) Missing(intent Intent) []string {
	var missing []string
	for _, f := range requiredFields[intent] {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every required field for the intent is present.
func (r FieldRecord) Complete(intent Intent) bool {
	return len(r.Missing(intent)) == 0
}

// Candidate is one event offered for numeric selection during delete, when a
// name maps to more than one calendar event (or no name was given yet).
type Candidate struct {
	Name         string `json:"name"`
	When         string `json:"when"`
	EventID      string `json:"event_id"`
	HasAttendees bool   `json:"has_attendees"`
}

// Conversation is the per-session dialogue state that survives across HTTP
// requests. It is mutated only by the dialog manager, one message at a time.
type Conversation struct {
	Intent       Intent      `json:"intent"`
	Fields       FieldRecord `json:"fields"`
	AwaitedField string      `json:"awaited_field"`
	Candidates   []Candidate `json:"candidates,omitempty"`

	// ResolvedEventID pins the exact calendar event after a candidate
	// selection, since names alone can collide.
	ResolvedEventID string `json:"resolved_event_id,omitempty"`
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{Fields: FieldRecord{}}
}

// Clear resets the whole conversation in one step. Clearing is all-or-nothing:
// no field of the session is ever partially cleared.
func (c *Conversation) Clear() {
	c.Intent = IntentNone
	c.Fields = FieldRecord{}
	c.AwaitedField = ""
	c.Candidates = nil
	c.ResolvedEventID = ""
}

// Active reports whether an intent is in progress.
func (c *Conversation) Active() bool {
	return c.Intent != IntentNone
}
