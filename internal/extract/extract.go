// Package extract turns raw user text into partially filled field records
// using an ordered list of named pattern strategies. Extraction never fails:
// at worst it returns an empty record and the dialog manager prompts for the
// missing pieces one turn at a time.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/tsawler/prose/v3"

	"calassist/internal/dates"
	"calassist/internal/logging"
	"calassist/internal/session"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// nameStrategy is one named event-name pattern. Strategies are tried in
// order; the first one that yields an acceptable name wins.
type nameStrategy struct {
	name string
	re   *regexp.Regexp
}

var eventNameStrategies = []nameStrategy{
	{"meeting-with-to", regexp.MustCompile(`(?i)meeting with (.+?) to\b`)},
	{"meet-with-at", regexp.MustCompile(`(?i)meet with (.+?) at\b`)},
	{"schedule-a-x-meeting", regexp.MustCompile(`(?i)schedule a (.+?) meeting`)},
	{"quoted", regexp.MustCompile(`["']([^"']+)["']`)},
	{"the-x-meeting", regexp.MustCompile(`(?i)\bthe\s+(.+?)\s+(?:meeting|event|appointment)\b`)},
}

var updateNameStrategies = []nameStrategy{
	{"verb-the-x-tail", regexp.MustCompile(`(?i)(?:update|change|reschedule|modify|move)\s+(?:the\s+)?(.+?)\s+(?:meeting|event|appointment)\b`)},
	{"verb-x-to", regexp.MustCompile(`(?i)(?:update|change|reschedule|modify|move)\s+(?:the\s+)?(.+?)\s+to\b`)},
	{"quoted", regexp.MustCompile(`["']([^"']+)["']`)},
	{"the-x-meeting", regexp.MustCompile(`(?i)\bthe\s+(.+?)\s+(?:meeting|event|appointment)\b`)},
}

var deleteNameStrategies = []nameStrategy{
	{"verb-the-x-tail", regexp.MustCompile(`(?i)(?:delete|cancel|remove)\s+(?:the\s+)?(.+?)\s+(?:meeting|event|appointment)\b`)},
	{"verb-the-event-x", regexp.MustCompile(`(?i)(?:delete|cancel|remove)\s+the\s+event\s+(.+)$`)},
	{"quoted", regexp.MustCompile(`["']([^"']+)["']`)},
}

var updateDateStrategies = []nameStrategy{
	{"to-relative", regexp.MustCompile(`(?i)\bto\s+(tomorrow|today|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)},
	{"to-numeric", regexp.MustCompile(`(?i)\bto\s+(\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?)`)},
	{"to-month-day", regexp.MustCompile(`(?i)\bto\s+(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*(?:\s+\d{2,4})?|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+\d{1,2}(?:\s+\d{2,4})?)`)},
	{"on-for-relative", regexp.MustCompile(`(?i)\b(?:on|for)\s+(tomorrow|today|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)},
	{"on-for-numeric", regexp.MustCompile(`(?i)\b(?:on|for)\s+(\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?)`)},
}

// Extractor extracts typed fields from free text. The optional NER pass via
// prose is best effort: the regex strategies always run first and the
// extractor works identically with NER disabled.
type Extractor struct {
	useNER bool
}

// New returns an extractor with NER enrichment enabled.
func New() *Extractor {
	return &Extractor{useNER: true}
}

// NewRulesOnly returns an extractor that uses only pattern strategies.
func NewRulesOnly() *Extractor {
	return &Extractor{}
}

func firstMatch(text string, strategies []nameStrategy) (string, string) {
	for _, s := range strategies {
		if m := s.re.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) > 2 && !isIntentKeyword(candidate) && !emailPattern.MatchString(candidate) {
				return candidate, s.name
			}
		}
	}
	return "", ""
}

// FirstEmailAddress returns the first email address found in text, or "".
func FirstEmailAddress(text string) string {
	return emailPattern.FindString(text)
}

// EventDetails extracts schedule fields from a message: participant email,
// event name, date and time. Fields that cannot be read are simply absent.
func (e *Extractor) EventDetails(text string, now time.Time) session.FieldRecord {
	rec := session.FieldRecord{}

	if m := emailPattern.FindString(text); m != "" {
		rec[session.FieldParticipantEmail] = m
	}

	if name, strategy := firstMatch(text, eventNameStrategies); name != "" {
		rec[session.FieldEventName] = name
		logging.Debug("extract", "event name %q via %s", name, strategy)
	} else if e.useNER {
		if name := e.nerEventName(text); name != "" {
			rec[session.FieldEventName] = name
			logging.Debug("extract", "event name %q via ner", name)
		}
	}

	if day, ok := dates.ParseDate(text, now); ok {
		rec[session.FieldEventDate] = day.Format(dates.ISODate)
	}

	if t, ok := dates.ExtractTime(text); ok {
		rec[session.FieldEventTime] = t
	}

	return rec
}

// UpdateDetails extracts update fields from a message. The generic
// name/date/time output is mapped onto {event_name, new_date, new_time}.
func (e *Extractor) UpdateDetails(text string, now time.Time) session.FieldRecord {
	rec := session.FieldRecord{}

	if name, strategy := firstMatch(text, updateNameStrategies); name != "" {
		rec[session.FieldEventName] = name
		logging.Debug("extract", "update target %q via %s", name, strategy)
	}

	for _, s := range updateDateStrategies {
		if m := s.re.FindStringSubmatch(text); m != nil {
			if day, ok := dates.ParseDate(m[1], now); ok {
				rec[session.FieldNewDate] = day.Format(dates.ISODate)
				break
			}
		}
	}

	if t, ok := dates.ExtractTime(text); ok {
		rec[session.FieldNewTime] = t
	}

	return rec
}

// DeleteDetails extracts the target event name from a delete request.
func (e *Extractor) DeleteDetails(text string, _ time.Time) session.FieldRecord {
	rec := session.FieldRecord{}
	if name, strategy := firstMatch(text, deleteNameStrategies); name != "" {
		rec[session.FieldEventName] = name
		logging.Debug("extract", "delete target %q via %s", name, strategy)
	}
	return rec
}

// nerEventName asks the prose NER model for an event-like entity when none of
// the phrase patterns matched. Errors are swallowed: NER is a hint, never a
// requirement.
func (e *Extractor) nerEventName(text string) string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return ""
	}
	for _, ent := range doc.Entities() {
		label := strings.ToUpper(ent.Label)
		if label != "EVENT" && label != "ORG" && label != "WORK_OF_ART" {
			continue
		}
		candidate := strings.TrimSpace(ent.Text)
		if len(candidate) > 2 && !isIntentKeyword(candidate) && !emailPattern.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}
