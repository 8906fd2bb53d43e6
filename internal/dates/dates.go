// Package dates resolves natural-language date and time expressions for the
// scheduling flows. Dates are parsed with a future-preferring policy: among
// ambiguous readings, the one that is today or later wins, and a strictly
// past date is treated as no match.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ISODate is the normalized date layout stored in field records.
const ISODate = "2006-01-02"

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

var weekdayWords = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var monthWords = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
}

// ParseDate resolves a date expression to a calendar date (midnight in now's
// location). Returns false when no date can be read or the resolved date is
// strictly before today.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	lower := strings.ToLower(text)
	today := midnight(now)

	// Already-normalized dates round-trip without the language parser
	if t, err := time.Parse(ISODate, text); err == nil {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(today) {
			return time.Time{}, false
		}
		return day, true
	}

	// Literal relative words take precedence over the generic parser
	if strings.Contains(lower, "today") {
		return today, true
	}
	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}

	r, err := parser.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}

	parsed := midnight(r.Time)
	if !parsed.Before(today) {
		return parsed, true
	}

	// Future-preferring correction for ambiguous expressions
	if containsAny(lower, weekdayWords) {
		bumped := parsed.AddDate(0, 0, 7)
		if !bumped.Before(today) {
			return bumped, true
		}
	}
	if containsAny(lower, monthWords) && !yearPattern.MatchString(lower) {
		bumped := parsed.AddDate(1, 0, 0)
		if !bumped.Before(today) {
			return bumped, true
		}
	}

	// Strictly past and unambiguous: no match
	return time.Time{}, false
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// naturalWindows maps natural-language time words to explicit one-hour
// ranges. Substitution runs in declaration order so "afternoon" is never
// shadowed by its "noon" suffix.
var naturalWindows = []struct {
	word, window string
}{
	{"morning", "9:00 am to 10:00 am"},
	{"afternoon", "2:00 pm to 3:00 pm"},
	{"evening", "6:00 pm to 7:00 pm"},
	{"noon", "12:00 pm to 1:00 pm"},
}

// Time extraction patterns, most specific first. The first match in the text
// wins; explicit clock expressions beat natural words.
var timePatterns = []*regexp.Regexp{
	// Explicit range with meridiems: "10:00 AM to 11:00 AM", "2 pm - 3 pm"
	regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\s*(?:to|-|till)\s*\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`),
	// Range without meridiems: "10:00 to 11:00"
	regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:to|-|till)\s*\d{1,2}:\d{2}\b`),
	// Single time with meridiem: "2 PM", "10:30am"
	regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`),
	// Single 24h clock time: "14:00"
	regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
	// Natural words
	regexp.MustCompile(`(?i)\b(?:morning|afternoon|evening|noon)\b`),
}

// ExtractTime finds the first recognizable time expression in the text.
// A bare start time (no range) is returned as-is; window resolution defaults
// the duration to one hour downstream.
func ExtractTime(text string) (string, bool) {
	for _, re := range timePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// LooksLikeTime reports whether a value is a recognizable time expression.
func LooksLikeTime(value string) bool {
	_, ok := ExtractTime(value)
	return ok
}

var rangeSplit = regexp.MustCompile(`(?i)\s*(?:\bto\b|\btill\b|-)\s*`)

var clockPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*$`)

// parseClock reads a clock expression like "10:00 AM", "2 pm" or "14:30".
func parseClock(expr string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ResolveWindow turns a stored date string and time expression into concrete
// start and end instants. A bare start time yields a one-hour meeting.
// Unparsable pieces fall back to sensible defaults (tomorrow, 10:00) rather
// than failing, mirroring how users phrase loose requests.
func ResolveWindow(dateStr, timeStr string, now time.Time) (time.Time, time.Time, error) {
	day, ok := ParseDate(dateStr, now)
	if !ok {
		day = midnight(now).AddDate(0, 0, 1)
	}

	// Stored values are accepted whenever a time expression can be found in
	// them, so resolution re-derives the expression the same way before
	// reading the clock. "let's do 2 pm" resolves exactly like "2 pm".
	if expr, found := ExtractTime(timeStr); found {
		timeStr = expr
	}
	timeStr = strings.ToLower(strings.TrimSpace(timeStr))
	for _, nw := range naturalWindows {
		if strings.Contains(timeStr, nw.word) {
			timeStr = nw.window
			break
		}
	}

	parts := rangeSplit.Split(timeStr, 2)

	startHour, startMin, ok := parseClock(parts[0])
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized time %q", timeStr)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, day.Location())

	end := start.Add(time.Hour)
	if len(parts) == 2 {
		endHour, endMin, ok := parseClock(parts[1])
		if ok {
			// A range like "10 to 11" with no meridiem on the start inherits
			// the end's half of the day when it would otherwise run backwards
			if !strings.Contains(parts[0], "am") && !strings.Contains(parts[0], "pm") &&
				strings.Contains(parts[1], "pm") && startHour < 12 && startHour+12 <= endHour+1 {
				start = start.Add(12 * time.Hour)
			}
			end = time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, day.Location())
			if !end.After(start) {
				end = start.Add(time.Hour)
			}
		}
	}

	return start, end, nil
}
