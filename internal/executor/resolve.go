package executor

import (
	"context"
	"sort"
	"strings"
	"time"

	"calassist/internal/calendar"
	"calassist/internal/logging"
	"calassist/internal/session"
)

// Search window for name resolution: recent past through the next six months.
const (
	searchPast   = 30 * 24 * time.Hour
	searchFuture = 180 * 24 * time.Hour
)

// matchStrategy is one step of the name-resolution ladder. Strategies run in
// order of preference and the first one with any matches wins.
type matchStrategy struct {
	name  string
	match func(summary, query string) bool
}

var matchStrategies = []matchStrategy{
	{"exact", func(summary, query string) bool {
		return strings.EqualFold(summary, query)
	}},
	{"contains", func(summary, query string) bool {
		return strings.Contains(strings.ToLower(summary), strings.ToLower(query))
	}},
	{"contained-by", func(summary, query string) bool {
		return summary != "" && strings.Contains(strings.ToLower(query), strings.ToLower(summary))
	}},
	{"word-overlap", func(summary, query string) bool {
		lower := strings.ToLower(summary)
		for _, word := range strings.Fields(strings.ToLower(query)) {
			if len(word) > 2 && strings.Contains(lower, word) {
				return true
			}
		}
		return false
	}},
}

// findByName resolves an event name against the calendar. Returns the
// matches from the first strategy that produced any, plus the full event list
// for suggestion ranking.
func (x *Executor) findByName(ctx context.Context, name string) (matches, all []calendar.Event, err error) {
	now := x.now()
	all, err = x.cal.ListEvents(ctx, calendar.ListEventsParams{
		TimeMin:    now.Add(-searchPast),
		TimeMax:    now.Add(searchFuture),
		MaxResults: 50,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, strategy := range matchStrategies {
		for _, event := range all {
			if strategy.match(event.Summary, name) {
				matches = append(matches, event)
			}
		}
		if len(matches) > 0 {
			logging.Debug("executor", "resolved %q via %s (%d match(es))", name, strategy.name, len(matches))
			return matches, all, nil
		}
	}
	return nil, all, nil
}

// wordOverlap counts how many words the two names share (words of 3+ chars).
func wordOverlap(a, b string) int {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(a)) {
		if len(w) > 2 {
			words[w] = true
		}
	}
	count := 0
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if len(w) > 2 && words[w] {
			count++
		}
	}
	return count
}

// suggestions ranks events by word overlap with the requested name and
// returns up to three suggestions, best first.
func suggestions(all []calendar.Event, name string) []string {
	type scored struct {
		summary string
		score   int
	}
	var ranked []scored
	for _, event := range all {
		if event.Summary == "" {
			continue
		}
		if score := wordOverlap(name, event.Summary); score > 0 {
			ranked = append(ranked, scored{event.Summary, score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var out []string
	for _, s := range ranked {
		if len(out) == 3 {
			break
		}
		out = append(out, s.summary)
	}
	return out
}

// eventSummaries formats up to three events, date included, for a
// disambiguation reply.
func eventSummaries(events []calendar.Event) []string {
	var out []string
	for i := range events {
		if len(out) == 3 {
			break
		}
		out = append(out, events[i].FormatEventSummary())
	}
	return out
}

func toCandidates(events []calendar.Event) []session.Candidate {
	candidates := make([]session.Candidate, 0, len(events))
	for _, e := range events {
		when := e.Start.Format("Jan 2, 2006 at 3:04 PM")
		if e.AllDay {
			when = e.Start.Format("Jan 2, 2006")
		}
		candidates = append(candidates, session.Candidate{
			Name:         e.Summary,
			When:         when,
			EventID:      e.ID,
			HasAttendees: len(e.Attendees) > 1,
		})
	}
	return candidates
}

// CandidatesByName returns the delete candidates an event name maps to. More
// than one candidate means the dialog manager must ask the user to pick.
func (x *Executor) CandidatesByName(ctx context.Context, name string) ([]session.Candidate, error) {
	matches, _, err := x.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toCandidates(matches), nil
}

// DeletableEvents lists upcoming events the user organizes or created, for
// the delete flow's numbered selection prompt.
func (x *Executor) DeletableEvents(ctx context.Context) ([]session.Candidate, error) {
	now := x.now()
	events, err := x.cal.ListEvents(ctx, calendar.ListEventsParams{
		TimeMin:    now.Add(-24 * time.Hour),
		TimeMax:    now.Add(30 * 24 * time.Hour),
		MaxResults: 20,
	})
	if err != nil {
		return nil, err
	}

	var owned []calendar.Event
	for _, e := range events {
		if e.Summary != "" && e.OwnedBy(x.userEmail) {
			owned = append(owned, e)
		}
		if len(owned) == 8 {
			break
		}
	}
	return toCandidates(owned), nil
}
