package session

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreGetReturnsFreshConversation(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.Get("unknown-session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if conv.Active() || len(conv.Fields) != 0 {
		t.Errorf("expected empty conversation, got %+v", conv)
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	conv := NewConversation()
	conv.Intent = IntentSchedule
	conv.Fields.Set(IntentSchedule, FieldParticipantEmail, "alice@example.com")
	conv.AwaitedField = FieldEventName

	if err := store.Put("s1", conv); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Intent != IntentSchedule {
		t.Errorf("intent = %q, want schedule", got.Intent)
	}
	if got.Fields.Get(FieldParticipantEmail) != "alice@example.com" {
		t.Errorf("participant_email = %q", got.Fields.Get(FieldParticipantEmail))
	}
	if got.AwaitedField != FieldEventName {
		t.Errorf("awaited field = %q, want event_name", got.AwaitedField)
	}

	// Overwrite updates in place
	conv.AwaitedField = FieldEventDate
	if err := store.Put("s1", conv); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	got, _ = store.Get("s1")
	if got.AwaitedField != FieldEventDate {
		t.Errorf("after overwrite awaited field = %q, want event_date", got.AwaitedField)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	conv := NewConversation()
	conv.Intent = IntentDelete
	store.Put("s1", conv)

	if err := store.Delete("s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if got.Active() {
		t.Error("deleted session still has an active conversation")
	}

	// Deleting a nonexistent session is not an error
	if err := store.Delete("never-existed"); err != nil {
		t.Errorf("Delete(nonexistent): %v", err)
	}
}

func TestStoreMeetings(t *testing.T) {
	store := newTestStore(t)

	if err := store.TrackMeeting(Meeting{
		ID:               "m1",
		ParticipantEmail: "alice@example.com",
		EventName:        "Team Sync",
		EventDate:        "2026-08-27",
		EventTime:        "10:00 AM to 11:00 AM",
		CalendarEventID:  "ev-123",
	}); err != nil {
		t.Fatalf("TrackMeeting: %v", err)
	}

	meetings, err := store.Meetings()
	if err != nil {
		t.Fatalf("Meetings: %v", err)
	}
	if len(meetings) != 1 {
		t.Fatalf("got %d meetings, want 1", len(meetings))
	}
	if meetings[0].EventName != "Team Sync" || meetings[0].CalendarEventID != "ev-123" {
		t.Errorf("unexpected meeting %+v", meetings[0])
	}
	if meetings[0].CreatedAt.IsZero() {
		t.Error("created_at was not defaulted")
	}

	if err := store.UntrackEvent("ev-123"); err != nil {
		t.Fatalf("UntrackEvent: %v", err)
	}
	meetings, _ = store.Meetings()
	if len(meetings) != 0 {
		t.Errorf("meeting survived untrack: %v", meetings)
	}
}
