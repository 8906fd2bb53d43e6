// Package dialog implements the slot-filling conversation state machine. One
// user message advances the conversation by at most one field; when every
// required field for the active intent is present the action executor runs
// exactly once and the session clears, whatever the outcome.
package dialog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"calassist/internal/executor"
	"calassist/internal/extract"
	"calassist/internal/logging"
	"calassist/internal/session"
	"calassist/internal/validate"
)

// Runner executes a complete action and resolves delete candidates. eventID
// carries the exact event pinned by a candidate selection, or "".
type Runner interface {
	Run(ctx context.Context, intent session.Intent, fields session.FieldRecord, eventID string) executor.Outcome
	CandidatesByName(ctx context.Context, name string) ([]session.Candidate, error)
	DeletableEvents(ctx context.Context) ([]session.Candidate, error)
}

// Triager summarizes the inbox on an explicit email-processing request.
// Optional: when absent, the request gets a polite refusal.
type Triager interface {
	Summary(ctx context.Context, request string) (string, error)
}

// Manager drives one conversation session through intent detection, field
// collection and action execution.
type Manager struct {
	extractor *extract.Extractor
	runner    Runner
	triager   Triager
	prompts   map[string]string
	fallbacks map[string]string
	now       func() time.Time
}

// Options configure a Manager beyond its collaborators.
type Options struct {
	Prompts   map[string]string // overrides keyed "intent.field"
	Fallbacks map[string]string // free-form reply overrides keyed by substring
	Now       func() time.Time  // for tests
}

// New creates a dialog manager. triager may be nil.
func New(extractor *extract.Extractor, runner Runner, triager Triager, opts Options) *Manager {
	m := &Manager{
		extractor: extractor,
		runner:    runner,
		triager:   triager,
		prompts:   opts.Prompts,
		fallbacks: opts.Fallbacks,
		now:       opts.Now,
	}
	if m.prompts == nil {
		m.prompts = map[string]string{}
	}
	if m.fallbacks == nil {
		m.fallbacks = map[string]string{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Process handles one user message against the session's conversation state
// and returns the reply. The conversation is mutated in place; the caller
// persists it. Every path yields a reply; the state machine never returns an
// error to the web layer.
func (m *Manager) Process(ctx context.Context, conv *session.Conversation, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Please enter a message."
	}
	text = extract.CorrectSpelling(text)

	if conv.Active() && extract.IsCancel(text) {
		conv.Clear()
		return cancelledReply
	}

	if !conv.Active() {
		if reply, handled := m.startConversation(ctx, conv, text); handled {
			return reply
		}
	} else if conv.AwaitedField != "" {
		if reply, done := m.fillAwaitedField(conv, text); done {
			return reply
		}
	}

	return m.advance(ctx, conv)
}

// startConversation classifies the first message of a conversation. Returns
// a terminal reply when the message is email processing or free-form chat;
// otherwise seeds the field record and lets advance take over.
func (m *Manager) startConversation(ctx context.Context, conv *session.Conversation, text string) (string, bool) {
	if extract.IsEmailProcessing(text) {
		if m.triager == nil {
			return "Email processing is not configured. I can still schedule, update or delete meetings.", true
		}
		summary, err := m.triager.Summary(ctx, text)
		if err != nil {
			logging.Warn("dialog", "email triage failed: %v", err)
			return "I couldn't reach your inbox just now. Please try again.", true
		}
		return summary, true
	}

	intent := extract.DetectIntent(text)
	if intent == session.IntentNone {
		// Free-form conversation: terminal no-op for the state machine
		return m.fallbackReply(text), true
	}

	conv.Intent = intent
	now := m.now()

	var seeded session.FieldRecord
	switch intent {
	case session.IntentSchedule:
		seeded = m.extractor.EventDetails(text, now)
	case session.IntentUpdate:
		seeded = m.extractor.UpdateDetails(text, now)
	case session.IntentDelete:
		seeded = m.extractor.DeleteDetails(text, now)
	}
	for field, value := range seeded {
		if err := conv.Fields.Set(intent, field, value); err != nil {
			logging.Debug("dialog", "dropping extracted field: %v", err)
		}
	}
	logging.Debug("dialog", "intent %s seeded with %d field(s)", intent, len(conv.Fields))
	return "", false
}

// fillAwaitedField applies the incoming message to the awaited field. Returns
// (reply, true) when the turn ends here because the value was rejected, and
// (_, false) when the field was filled and collection should continue.
func (m *Manager) fillAwaitedField(conv *session.Conversation, text string) (string, bool) {
	field := conv.AwaitedField

	if len(conv.Candidates) > 0 && field == session.FieldEventName {
		if reply, rejected := m.selectCandidate(conv, text); rejected {
			return reply, true
		}
		return "", false
	}

	result := validate.Field(field, text, m.now())
	if !result.OK {
		// Same awaited field, no other state change
		return result.Message, true
	}

	if err := conv.Fields.Set(conv.Intent, field, result.Normalized); err != nil {
		logging.Warn("dialog", "awaited field rejected: %v", err)
		return "I didn't understand that. " + m.promptFor(conv.Intent, field), true
	}
	conv.AwaitedField = ""
	return "", false
}

// selectCandidate resolves a pending candidate list by 1-based number or
// literal name match. Returns (reply, true) on rejection.
func (m *Manager) selectCandidate(conv *session.Conversation, text string) (string, bool) {
	text = strings.TrimSpace(text)

	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 || n > len(conv.Candidates) {
			return "Invalid event number. Please try again.", true
		}
		chosen := conv.Candidates[n-1]
		conv.Fields.Set(conv.Intent, session.FieldEventName, chosen.Name)
		conv.ResolvedEventID = chosen.EventID
		conv.AwaitedField = ""
		conv.Candidates = nil
		return "", false
	}

	for _, c := range conv.Candidates {
		if strings.EqualFold(c.Name, text) {
			conv.Fields.Set(conv.Intent, session.FieldEventName, c.Name)
			conv.ResolvedEventID = c.EventID
			conv.AwaitedField = ""
			conv.Candidates = nil
			return "", false
		}
	}

	// Not a selection: treat as a fresh event name
	result := validate.EventName(text)
	if !result.OK {
		return result.Message, true
	}
	conv.Fields.Set(conv.Intent, session.FieldEventName, result.Normalized)
	conv.ResolvedEventID = ""
	conv.AwaitedField = ""
	conv.Candidates = nil
	return "", false
}

// advance recomputes the missing fields, prompts for the first one, or runs
// the action when the record is complete.
func (m *Manager) advance(ctx context.Context, conv *session.Conversation) string {
	missing := conv.Fields.Missing(conv.Intent)
	if len(missing) > 0 {
		field := missing[0]
		conv.AwaitedField = field

		// Delete with no name yet: offer the user's own upcoming events
		if conv.Intent == session.IntentDelete && field == session.FieldEventName && len(conv.Candidates) == 0 {
			if candidates, err := m.runner.DeletableEvents(ctx); err == nil && len(candidates) > 0 {
				conv.Candidates = candidates
				return candidateList("Your deletable events:", candidates)
			}
		}
		return m.promptFor(conv.Intent, field)
	}

	// For delete, an ambiguous name needs resolving before anything runs.
	// A pinned event id means a selection already settled it.
	if conv.Intent == session.IntentDelete && conv.ResolvedEventID == "" {
		name := conv.Fields.Get(session.FieldEventName)
		candidates, err := m.runner.CandidatesByName(ctx, name)
		if err == nil && len(candidates) > 1 {
			conv.Fields.Set(conv.Intent, session.FieldEventName, "")
			conv.AwaitedField = session.FieldEventName
			conv.Candidates = candidates
			return candidateList("That name matches more than one event:", candidates)
		}
		if err == nil && len(candidates) == 1 {
			conv.ResolvedEventID = candidates[0].EventID
		}
	}

	outcome := m.runner.Run(ctx, conv.Intent, conv.Fields, conv.ResolvedEventID)
	// The session never straddles two attempts at the same action
	conv.Clear()
	return outcome.Message
}
