package dialog

import (
	"fmt"
	"strings"

	"calassist/internal/session"
)

// defaultPrompts maps "intent.field" to the question asked when that field is
// missing. A reply config file may override any of them.
var defaultPrompts = map[string]string{
	"schedule.participant_email": "Please specify the missing information: What is the participant's email address?",
	"schedule.event_name":        "Please specify the missing information: What should be the event name?",
	"schedule.event_date":        "Please specify the missing information: When is the meeting? (e.g., today, tomorrow, August 15, or April 8 2025)",
	"schedule.event_time":        "Please specify the missing information: What time is the meeting? (e.g., 10:00 AM to 11:00 AM)",
	"update.event_name":          "What is the event name you want to update?",
	"update.new_date":            "What is the new date? (e.g., today, tomorrow, August 15, or April 8 2025)",
	"update.new_time":            "What is the new time? (e.g., 10:00 AM to 11:00 AM)",
	"delete.event_name":          "What is the name of the event you want to delete?",
}

// defaultFallbacks answer free-form messages that carry no intent. Keys are
// matched as substrings of the lowercased message.
var defaultFallbacks = map[string]string{
	"hello":  "Hello! I'm your calendar assistant. I can help you schedule meetings, update events, delete appointments, or check your emails. What would you like to do?",
	"hi":     "Hello! I'm your calendar assistant. I can help you schedule meetings, update events, delete appointments, or check your emails. What would you like to do?",
	"help":   "I can help you with:\n- Schedule a meeting: 'Schedule a meeting with john@example.com tomorrow at 2 PM'\n- Update an event: 'Reschedule the team sync to Friday at 3 PM'\n- Delete an event: 'Delete the project review meeting'\n- Check emails: 'Check my emails'",
	"thanks": "You're welcome! Is there anything else I can help you with?",
	"bye":    "Goodbye! Feel free to return whenever you need help with your calendar or emails.",
}

const defaultUnknownReply = "I can help you schedule meetings, update events, delete appointments, or check your emails. Say 'help' for examples."

const cancelledReply = "Okay, I've cancelled that. Let me know if there's anything else you need."

func (m *Manager) promptFor(intent session.Intent, field string) string {
	key := string(intent) + "." + field
	if p, ok := m.prompts[key]; ok {
		return p
	}
	if p, ok := defaultPrompts[key]; ok {
		return p
	}
	return fmt.Sprintf("Please provide a value for %s.", field)
}

func (m *Manager) fallbackReply(text string) string {
	lower := strings.ToLower(text)
	for key, reply := range m.fallbacks {
		if strings.Contains(lower, key) {
			return reply
		}
	}
	for key, reply := range defaultFallbacks {
		if strings.Contains(lower, key) {
			return reply
		}
	}
	return defaultUnknownReply
}

// candidateList renders a numbered list of events the user can pick from by
// name or number.
func candidateList(header string, candidates []session.Candidate) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for i, c := range candidates {
		marker := ""
		if c.HasAttendees {
			marker = " (attendees will be notified)"
		}
		fmt.Fprintf(&sb, "%d. %s - %s%s\n", i+1, c.Name, c.When, marker)
	}
	sb.WriteString("\nEnter the event name or number:")
	return sb.String()
}
