package extract

import (
	"regexp"
	"strings"

	"calassist/internal/session"
)

// Intent keyword sets. Classification runs in fixed priority order
// (email processing, schedule, update, delete); first match wins.
var (
	scheduleKeywords = []string{"schedule", "meet", "meeting", "appointment", "book", "plan"}
	updateKeywords   = []string{"update", "change", "reschedule", "modify", "move", "shift", "postpone", "advance", "edit", "alter"}
	deleteKeywords   = []string{"delete", "cancel", "remove"}
	cancelPhrases    = []string{"cancel", "never mind", "nevermind", "forget it", "stop", "abort", "start over", "reset"}

	emailPhrases = []string{
		"check emails", "show emails", "process emails", "email dashboard",
		"my emails", "recent emails", "inbox messages", "check my inbox",
		"show my inbox", "process my emails", "fetch emails", "get emails",
	}
)

var keywordPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, kw := range append(append(append([]string{}, scheduleKeywords...), updateKeywords...), deleteKeywords...) {
		keywordPatterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
}

func hasKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if keywordPatterns[kw].MatchString(text) {
			return true
		}
	}
	return false
}

// IsEmailProcessing reports whether the message explicitly asks to triage the
// inbox. A bare email address never triggers it.
func IsEmailProcessing(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if emailPattern.MatchString(lower) && !strings.Contains(lower, " ") {
		return false
	}
	for _, phrase := range emailPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsCancel reports whether the message is an explicit cancellation of an
// in-progress conversation.
func IsCancel(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range cancelPhrases {
		if lower == phrase || strings.HasPrefix(lower, phrase+" ") {
			return true
		}
	}
	return false
}

// DetectIntent classifies a message into a conversational intent. Returns
// IntentNone when nothing matches; the message is then handled as free-form
// conversation.
func DetectIntent(text string) session.Intent {
	switch {
	case hasKeyword(text, scheduleKeywords):
		return session.IntentSchedule
	case hasKeyword(text, updateKeywords):
		return session.IntentUpdate
	case hasKeyword(text, deleteKeywords):
		return session.IntentDelete
	default:
		return session.IntentNone
	}
}

// isIntentKeyword reports whether a candidate event name is itself an intent
// keyword, which disqualifies it.
func isIntentKeyword(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, kw := range updateKeywords {
		if lower == kw {
			return true
		}
	}
	for _, kw := range deleteKeywords {
		if lower == kw {
			return true
		}
	}
	for _, kw := range scheduleKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

// spellingCorrections fixes common misspellings before intent detection and
// extraction run.
var spellingCorrections = map[string]string{
	"schdule":  "schedule",
	"shedule":  "schedule",
	"schedual": "schedule",
	"meting":   "meeting",
	"meating":  "meeting",
	"tommorow": "tomorrow",
	"tomorow":  "tomorrow",
}

var correctionPatterns = func() map[*regexp.Regexp]string {
	m := make(map[*regexp.Regexp]string, len(spellingCorrections))
	for wrong, right := range spellingCorrections {
		m[regexp.MustCompile(`(?i)\b`+wrong+`\b`)] = right
	}
	return m
}()

// CorrectSpelling normalizes common misspellings of scheduling vocabulary.
func CorrectSpelling(text string) string {
	for re, right := range correctionPatterns {
		text = re.ReplaceAllString(text, right)
	}
	return text
}
