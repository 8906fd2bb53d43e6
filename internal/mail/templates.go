package mail

import (
	"fmt"
	"time"
)

// Notification is a rendered email ready to send.
type Notification struct {
	Subject string
	Plain   string
	HTML    string
}

func formatWindow(start, end time.Time) (string, string) {
	date := start.Format("Monday, January 2, 2006")
	window := fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
	return date, window
}

func card(title, heading, detail string) string {
	return fmt.Sprintf(`<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1d4ed8;">%s</h1>
  <div style="background-color: #f0f9ff; padding: 20px; border-radius: 8px; border-left: 5px solid #3b82f6;">
    <h2 style="margin-top: 0;">%s</h2>
    %s
  </div>
</div>
</body></html>`, title, heading, detail)
}

// Invitation announces a newly scheduled meeting.
func Invitation(eventName string, start, end time.Time, meetLink string) Notification {
	date, window := formatWindow(start, end)
	plain := fmt.Sprintf("You have been invited to '%s'.\n\nDate: %s\nTime: %s\n", eventName, date, window)
	detail := fmt.Sprintf("<p><strong>Date:</strong> %s</p><p><strong>Time:</strong> %s</p>", date, window)
	if meetLink != "" {
		plain += fmt.Sprintf("Meeting link: %s\n", meetLink)
		detail += fmt.Sprintf(`<p><a href="%s">Join the meeting</a></p>`, meetLink)
	}
	plain += "\nA calendar invitation will follow shortly.\n\nBest regards"
	return Notification{
		Subject: fmt.Sprintf("Meeting Invitation: %s", eventName),
		Plain:   plain,
		HTML:    card("Meeting Invitation", eventName, detail),
	}
}

// ConflictNotice informs a participant that a proposed time conflicts with
// their calendar.
func ConflictNotice(eventName string, start, end time.Time) Notification {
	date, window := formatWindow(start, end)
	plain := fmt.Sprintf(
		"A meeting '%s' was proposed for %s, %s, but it conflicts with an existing commitment on your calendar.\n\nPlease suggest an alternative time.\n\nBest regards",
		eventName, date, window)
	detail := fmt.Sprintf(
		"<p>The proposed time <strong>%s, %s</strong> conflicts with an existing commitment on your calendar.</p><p>Please suggest an alternative time.</p>",
		date, window)
	return Notification{
		Subject: fmt.Sprintf("Scheduling Conflict: %s", eventName),
		Plain:   plain,
		HTML:    card("Scheduling Conflict", eventName, detail),
	}
}

// RescheduleNotice informs an attendee that a meeting has moved.
func RescheduleNotice(eventName string, start, end time.Time) Notification {
	date, window := formatWindow(start, end)
	plain := fmt.Sprintf(
		"The meeting '%s' has been rescheduled.\n\nNew Date: %s\nNew Time: %s\n\nYou will receive an updated calendar invitation shortly.\n\nBest regards",
		eventName, date, window)
	detail := fmt.Sprintf(
		"<p><strong>New Date:</strong> %s</p><p><strong>New Time:</strong> %s</p><p>You will receive an updated calendar invitation shortly.</p>",
		date, window)
	return Notification{
		Subject: fmt.Sprintf("Meeting Rescheduled: %s", eventName),
		Plain:   plain,
		HTML:    card("Meeting Rescheduled", eventName, detail),
	}
}

// CancellationNotice informs an attendee that a meeting has been cancelled.
func CancellationNotice(eventName, reason string) Notification {
	plain := fmt.Sprintf("The meeting '%s' has been cancelled.", eventName)
	detail := "<p>This meeting has been cancelled by the organizer.</p>"
	if reason != "" {
		plain += fmt.Sprintf("\n\nReason: %s", reason)
		detail += fmt.Sprintf("<p><strong>Reason:</strong> %s</p>", reason)
	}
	plain += "\n\nBest regards"
	return Notification{
		Subject: fmt.Sprintf("Meeting Cancelled: %s", eventName),
		Plain:   plain,
		HTML:    card("Meeting Cancelled", eventName, detail),
	}
}
