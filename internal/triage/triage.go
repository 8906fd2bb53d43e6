// Package triage categorizes recent inbox email by urgency and type and
// surfaces meeting requests. Categorization is rule-based with an optional
// LLM refinement; the rules always produce an answer on their own.
package triage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"calassist/internal/dates"
	"calassist/internal/extract"
	"calassist/internal/llm"
	"calassist/internal/logging"
	"calassist/internal/session"
)

const (
	defaultBatchSize = 20
	maxBatchSize     = 200
)

// Email is one inbox message in the shape triage needs.
type Email struct {
	ID      string
	Sender  string
	Subject string
	Snippet string
	Body    string
}

// Inbox fetches recent messages.
type Inbox interface {
	Recent(ctx context.Context, max int64) ([]Email, error)
}

// Category is the triage verdict for one email.
type Category struct {
	Urgency          string  // low, medium, high
	Category         string  // meeting, task, spam, personal, information
	ActionRequired   bool
	IsMeetingRequest bool
	Confidence       float64
	Reason           string
}

var (
	highUrgencyKeywords = []string{
		"urgent", "asap", "emergency", "critical", "deadline", "immediate",
		"important", "!!!", "priority", "expires", "due today",
	}
	meetingKeywords = []string{
		"meeting", "schedule", "appointment", "call", "conference",
		"zoom", "teams", "meet", "calendar", "booking", "available",
	}
	taskKeywords = []string{
		"task", "todo", "action", "review", "complete", "deadline",
		"project", "assignment", "deliverable",
	}
	spamKeywords = []string{
		"unsubscribe", "promotion", "offer", "deal", "discount",
		"free", "winner", "congratulations", "click here",
	}
	personalDomains = []string{"gmail.com", "yahoo.com", "hotmail.com"}
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Categorize applies the keyword rules to one email.
func Categorize(email Email) Category {
	text := strings.ToLower(email.Subject + " " + email.Body + " " + email.Snippet)

	urgency := "low"
	if containsAny(text, highUrgencyKeywords) {
		urgency = "high"
	} else if containsAny(text, meetingKeywords) || containsAny(text, taskKeywords) {
		urgency = "medium"
	}

	category := "information"
	isMeeting := false
	switch {
	case containsAny(text, spamKeywords):
		category = "spam"
	case containsAny(text, meetingKeywords):
		category = "meeting"
		isMeeting = true
	case containsAny(strings.ToLower(email.Sender), personalDomains):
		category = "personal"
	}

	return Category{
		Urgency:          urgency,
		Category:         category,
		ActionRequired:   urgency == "high" || category == "meeting" || category == "task",
		IsMeetingRequest: isMeeting,
		Confidence:       0.7,
		Reason:           fmt.Sprintf("rule-based: %s with %s urgency", category, urgency),
	}
}

// Triager fetches and categorizes the inbox. The LLM client is optional.
type Triager struct {
	inbox     Inbox
	model     *llm.Client
	extractor *extract.Extractor
	now       func() time.Time
}

// New creates a triager. model may be nil.
func New(inbox Inbox, model *llm.Client, extractor *extract.Extractor) *Triager {
	return &Triager{inbox: inbox, model: model, extractor: extractor, now: time.Now}
}

var categoryLabels = []string{"meeting", "task", "spam", "personal", "information"}

// categorize runs the rules, then lets the model refine the category when it
// is available. The rules' verdict survives any model failure.
func (t *Triager) categorize(ctx context.Context, email Email) Category {
	verdict := Categorize(email)
	if t.model == nil {
		return verdict
	}

	label, err := t.model.Classify(ctx, email.Subject+"\n"+email.Snippet, categoryLabels)
	if err != nil {
		logging.Debug("triage", "model classify failed, keeping rules: %v", err)
		return verdict
	}
	if label != "not_matched" && label != verdict.Category {
		verdict.Category = label
		verdict.IsMeetingRequest = label == "meeting"
		verdict.Confidence = 0.9
		verdict.Reason = "model-refined: " + label
	}
	return verdict
}

// batchSize reads an explicit batch size out of the request text.
func batchSize(request string) int64 {
	lower := strings.ToLower(request)
	if strings.Contains(lower, "all emails") || strings.Contains(lower, "all my emails") {
		return maxBatchSize
	}
	for _, word := range strings.Fields(lower) {
		if n, err := strconv.Atoi(word); err == nil && n > 0 {
			if n > maxBatchSize {
				return maxBatchSize
			}
			return int64(n)
		}
	}
	return defaultBatchSize
}

// Summary fetches recent email, triages it and renders a one-message report.
func (t *Triager) Summary(ctx context.Context, request string) (string, error) {
	emails, err := t.inbox.Recent(ctx, batchSize(request))
	if err != nil {
		return "", fmt.Errorf("fetch inbox: %w", err)
	}
	if len(emails) == 0 {
		return "No emails found in your inbox.", nil
	}

	var highPriority, actionRequired int
	var meetings []Email
	for _, email := range emails {
		verdict := t.categorize(ctx, email)
		if verdict.Urgency == "high" {
			highPriority++
		}
		if verdict.ActionRequired {
			actionRequired++
		}
		if verdict.IsMeetingRequest {
			meetings = append(meetings, email)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Email summary (%d messages):\n", len(emails))
	fmt.Fprintf(&sb, "- High priority: %d\n", highPriority)
	fmt.Fprintf(&sb, "- Action required: %d\n", actionRequired)
	fmt.Fprintf(&sb, "- Meeting requests: %d\n", len(meetings))

	if len(meetings) > 0 {
		sb.WriteString("\nMeeting requests detected:\n")
		for i, email := range meetings {
			if i == 3 {
				break
			}
			fmt.Fprintf(&sb, "%d. %s (from %s)\n", i+1, email.Subject, email.Sender)
			if line := describeMeeting(t.MeetingDetails(email)); line != "" {
				fmt.Fprintf(&sb, "   %s\n", line)
			}
		}
	}
	return sb.String(), nil
}

// describeMeeting renders the scheduling fields extracted from a meeting
// request as one summary line, skipping whatever could not be read.
func describeMeeting(rec session.FieldRecord) string {
	var parts []string
	if v := rec.Get(session.FieldParticipantEmail); v != "" {
		parts = append(parts, "with "+v)
	}
	if v := rec.Get(session.FieldEventDate); v != "" {
		parts = append(parts, "on "+v)
	}
	if v := rec.Get(session.FieldEventTime); v != "" {
		parts = append(parts, "at "+v)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Proposed: " + strings.Join(parts, " ")
}

// MeetingDetails extracts scheduling fields from a meeting-request email:
// the sender becomes the participant, the subject the event name, and the
// body is scanned for a date and time.
func (t *Triager) MeetingDetails(email Email) session.FieldRecord {
	now := t.now()
	rec := session.FieldRecord{}

	if sender := extract.FirstEmailAddress(email.Sender); sender != "" {
		rec[session.FieldParticipantEmail] = sender
	}

	name := strings.TrimSpace(email.Subject)
	if name == "" || strings.Contains(name, "Re:") {
		name = "Meeting Request"
	}
	rec[session.FieldEventName] = name

	text := email.Subject + " " + email.Body + " " + email.Snippet
	if day, ok := dates.ParseDate(text, now); ok {
		rec[session.FieldEventDate] = day.Format(dates.ISODate)
	}
	if timeExpr, ok := dates.ExtractTime(text); ok {
		rec[session.FieldEventTime] = timeExpr
	}
	return rec
}
