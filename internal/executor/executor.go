// Package executor performs the externally visible action once a field
// record is complete: create, move or delete a calendar event, with conflict
// checking and attendee notification. It performs exactly one action per
// invocation and never partially applies one silently; when a side effect
// half-succeeds, the outcome message says so.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"calassist/internal/calendar"
	"calassist/internal/dates"
	"calassist/internal/logging"
	"calassist/internal/mail"
	"calassist/internal/session"
)

// Calendar is the calendar collaborator consumed by the executor.
type Calendar interface {
	ListEvents(ctx context.Context, params calendar.ListEventsParams) ([]calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, params calendar.CreateEventParams) (*calendar.Event, error)
	UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	FreeBusy(ctx context.Context, params calendar.FreeBusyParams) ([]calendar.BusyPeriod, error)
}

// Tracker records scheduled meetings for the dashboard. Optional.
type Tracker interface {
	TrackMeeting(m session.Meeting) error
	UntrackEvent(calendarEventID string) error
}

// Outcome is the terminal result of an action: a success flag plus a
// human-readable message for the user.
type Outcome struct {
	OK      bool
	Message string
}

// Executor sequences calendar and mail side effects for a complete record.
type Executor struct {
	cal       Calendar
	mailer    mail.Sender
	tracker   Tracker
	userEmail string
	now       func() time.Time
}

// New creates an executor. tracker may be nil.
func New(cal Calendar, mailer mail.Sender, tracker Tracker, userEmail string) *Executor {
	return &Executor{
		cal:       cal,
		mailer:    mailer,
		tracker:   tracker,
		userEmail: userEmail,
		now:       time.Now,
	}
}

// Run executes the action for a complete field record. eventID, when set, is
// an event pinned by an earlier candidate selection; only delete uses it. The
// caller (the dialog manager) clears the session afterwards regardless of the
// outcome.
func (x *Executor) Run(ctx context.Context, intent session.Intent, fields session.FieldRecord, eventID string) Outcome {
	switch intent {
	case session.IntentSchedule:
		return x.schedule(ctx, fields)
	case session.IntentUpdate:
		return x.update(ctx, fields)
	case session.IntentDelete:
		return x.delete(ctx, fields, eventID)
	default:
		return Outcome{Message: "Nothing to do."}
	}
}

func (x *Executor) schedule(ctx context.Context, fields session.FieldRecord) Outcome {
	participant := fields.Get(session.FieldParticipantEmail)
	eventName := fields.Get(session.FieldEventName)

	start, end, err := dates.ResolveWindow(fields.Get(session.FieldEventDate), fields.Get(session.FieldEventTime), x.now())
	if err != nil {
		return Outcome{Message: fmt.Sprintf("I couldn't work out the meeting time: %v. Please start over with a valid time.", err)}
	}

	conflicted, err := x.hasConflict(ctx, participant, start, end)
	if err != nil {
		return x.failure("checking the calendar", err)
	}
	if conflicted {
		notice := mail.ConflictNotice(eventName, start, end)
		if err := x.mailer.Send(ctx, participant, notice.Subject, notice.Plain, notice.HTML); err != nil {
			logging.Warn("executor", "conflict notification to %s failed: %v", participant, err)
			return Outcome{Message: fmt.Sprintf(
				"%s has a scheduling conflict at that time. I could not deliver the conflict notification email.", participant)}
		}
		return Outcome{Message: fmt.Sprintf(
			"%s has a scheduling conflict at the requested time. They have been notified about the conflict.", participant)}
	}

	event, err := x.cal.CreateEvent(ctx, calendar.CreateEventParams{
		Summary:   eventName,
		Start:     start,
		End:       end,
		Attendees: []string{participant},
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return x.failure("creating the event", err)
	}

	invite := mail.Invitation(eventName, start, end, event.MeetLink)
	inviteErr := x.mailer.Send(ctx, participant, invite.Subject, invite.Plain, invite.HTML)

	if x.tracker != nil {
		if err := x.tracker.TrackMeeting(session.Meeting{
			ID:               uuid.NewString(),
			ParticipantEmail: participant,
			EventName:        eventName,
			EventDate:        fields.Get(session.FieldEventDate),
			EventTime:        fields.Get(session.FieldEventTime),
			MeetingLink:      event.MeetLink,
			CalendarEventID:  event.ID,
		}); err != nil {
			logging.Warn("executor", "failed to track meeting: %v", err)
		}
	}

	msg := fmt.Sprintf("Event '%s' scheduled successfully with %s.", eventName, participant)
	if event.MeetLink != "" {
		msg += fmt.Sprintf("\nMeeting link: %s", event.MeetLink)
	}
	if inviteErr != nil {
		logging.Warn("executor", "invitation email to %s failed: %v", participant, inviteErr)
		msg += "\nThe calendar invite was created, but the invitation email could not be delivered."
	} else {
		msg += "\nA calendar invitation has been sent with meeting details."
	}
	return Outcome{OK: true, Message: msg}
}

func (x *Executor) update(ctx context.Context, fields session.FieldRecord) Outcome {
	eventName := fields.Get(session.FieldEventName)

	matches, all, err := x.findByName(ctx, eventName)
	if err != nil {
		return x.failure("searching the calendar", err)
	}
	if len(matches) == 0 {
		return Outcome{Message: notFoundMessage(eventName, suggestions(all, eventName))}
	}
	if len(matches) > 1 {
		// Never silently pick one of several matches
		return Outcome{Message: ambiguousMessage(eventName, matches)}
	}
	event := matches[0]

	start, end, err := dates.ResolveWindow(fields.Get(session.FieldNewDate), fields.Get(session.FieldNewTime), x.now())
	if err != nil {
		return Outcome{Message: fmt.Sprintf("I couldn't work out the new time: %v.", err)}
	}

	// Check every attendee except the user for conflicts at the new time
	var conflicted []string
	for _, attendee := range event.Attendees {
		if strings.EqualFold(attendee.Email, x.userEmail) {
			continue
		}
		has, err := x.hasConflict(ctx, attendee.Email, start, end)
		if err != nil {
			return x.failure("checking attendee calendars", err)
		}
		if has {
			conflicted = append(conflicted, attendee.Email)
		}
	}
	if len(conflicted) > 0 {
		notice := mail.ConflictNotice(event.Summary, start, end)
		for _, email := range conflicted {
			if err := x.mailer.Send(ctx, email, notice.Subject, notice.Plain, notice.HTML); err != nil {
				logging.Warn("executor", "conflict notification to %s failed: %v", email, err)
			}
		}
		return Outcome{Message: "Scheduling conflicts detected at the new time. The affected participants have been notified; the event was not changed."}
	}

	// Notify attendees before mutating, as the invite update follows anyway
	notice := mail.RescheduleNotice(event.Summary, start, end)
	notified := 0
	for _, attendee := range event.Attendees {
		if strings.EqualFold(attendee.Email, x.userEmail) {
			continue
		}
		if err := x.mailer.Send(ctx, attendee.Email, notice.Subject, notice.Plain, notice.HTML); err != nil {
			logging.Warn("executor", "reschedule notification to %s failed: %v", attendee.Email, err)
		} else {
			notified++
		}
	}

	if _, err := x.cal.UpdateEventTime(ctx, event.ID, start, end); err != nil {
		out := x.failure("updating the event", err)
		if notified > 0 {
			out.Message += " Attendees were already notified of the attempted change."
		}
		return out
	}

	msg := fmt.Sprintf("Event '%s' updated to %s at %s.",
		event.Summary, fields.Get(session.FieldNewDate), fields.Get(session.FieldNewTime))
	if notified > 0 {
		msg += " Participants have been notified."
	}
	return Outcome{OK: true, Message: msg}
}

func (x *Executor) delete(ctx context.Context, fields session.FieldRecord, eventID string) Outcome {
	eventName := fields.Get(session.FieldEventName)

	var event calendar.Event
	if eventID != "" {
		// A candidate selection pinned the exact event. Two events can share
		// a summary, so fetch by ID instead of re-resolving the name.
		got, err := x.cal.GetEvent(ctx, eventID)
		if err != nil {
			var apiErr *calendar.APIError
			if errors.As(err, &apiErr) && apiErr.Kind() == calendar.FailureNotFound {
				return Outcome{OK: true, Message: fmt.Sprintf("Event '%s' has already been deleted.", eventName)}
			}
			return x.failure("looking up the event", err)
		}
		event = *got
	} else {
		matches, all, err := x.findByName(ctx, eventName)
		if err != nil {
			return x.failure("searching the calendar", err)
		}
		if len(matches) == 0 {
			return Outcome{Message: notFoundMessage(eventName, suggestions(all, eventName))}
		}
		if len(matches) > 1 {
			return Outcome{Message: ambiguousMessage(eventName, matches)}
		}
		event = matches[0]
	}

	// Cancellation notices go out before the delete
	notice := mail.CancellationNotice(event.Summary, "Event cancelled by organizer")
	for _, attendee := range event.Attendees {
		if strings.EqualFold(attendee.Email, x.userEmail) {
			continue
		}
		if err := x.mailer.Send(ctx, attendee.Email, notice.Subject, notice.Plain, notice.HTML); err != nil {
			logging.Warn("executor", "cancellation notification to %s failed: %v", attendee.Email, err)
		}
	}

	if err := x.cal.DeleteEvent(ctx, event.ID); err != nil {
		var apiErr *calendar.APIError
		if errors.As(err, &apiErr) && apiErr.Kind() == calendar.FailureNotFound {
			// Already gone: the goal is achieved
			logging.Info("executor", "event %s already deleted", event.ID)
		} else {
			return x.failure("deleting the event", err)
		}
	}

	if x.tracker != nil {
		if err := x.tracker.UntrackEvent(event.ID); err != nil {
			logging.Warn("executor", "failed to untrack event: %v", err)
		}
	}

	return Outcome{OK: true, Message: fmt.Sprintf("Event '%s' has been deleted and attendees notified.", event.Summary)}
}

// hasConflict reports whether the participant already has an event
// overlapping the window. A free/busy query against the participant's
// calendar answers directly when their availability is shared; otherwise the
// user's own calendar is scanned for events the participant attends.
func (x *Executor) hasConflict(ctx context.Context, participantEmail string, start, end time.Time) (bool, error) {
	busy, err := x.cal.FreeBusy(ctx, calendar.FreeBusyParams{
		TimeMin:    start,
		TimeMax:    end,
		CalendarID: participantEmail,
	})
	if err == nil {
		return len(busy) > 0, nil
	}
	logging.Debug("executor", "free/busy for %s unavailable, scanning events: %v", participantEmail, err)

	events, err := x.cal.ListEvents(ctx, calendar.ListEventsParams{
		TimeMin: start,
		TimeMax: end,
	})
	if err != nil {
		return false, err
	}
	for _, event := range events {
		if event.HasAttendee(participantEmail) {
			return true, nil
		}
	}
	return false, nil
}

func notFoundMessage(eventName string, suggested []string) string {
	if len(suggested) == 0 {
		return fmt.Sprintf("Event '%s' not found. Please check the event name.", eventName)
	}
	return fmt.Sprintf("Event '%s' not found. Did you mean: %s?", eventName, strings.Join(suggested, ", "))
}

// ambiguousMessage lists the events a name matched. Overlap ranking can drop
// substring matches that share no whole word with the query, so an empty
// ranking falls back to the matches themselves.
func ambiguousMessage(eventName string, matches []calendar.Event) string {
	suggested := suggestions(matches, eventName)
	if len(suggested) == 0 {
		suggested = eventSummaries(matches)
	}
	return fmt.Sprintf("'%s' matches more than one event: %s. Please be more specific.",
		eventName, strings.Join(suggested, "; "))
}

// failure maps a collaborator error onto a user-facing outcome by failure
// class.
func (x *Executor) failure(doing string, err error) Outcome {
	logging.Warn("executor", "error while %s: %v", doing, err)

	var apiErr *calendar.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind() {
		case calendar.FailureAuth:
			return Outcome{Message: "Authentication error while " + doing + ". Please re-authenticate with Google Calendar."}
		case calendar.FailurePermission:
			return Outcome{Message: "Permission denied while " + doing + ". You may not have rights to this event."}
		case calendar.FailureNotFound:
			return Outcome{Message: "The event no longer exists."}
		case calendar.FailureRateLimit:
			return Outcome{Message: "The calendar service is rate limiting requests. Please try again in a moment."}
		}
	}
	return Outcome{Message: fmt.Sprintf("Something went wrong while %s. Please try again.", doing)}
}
