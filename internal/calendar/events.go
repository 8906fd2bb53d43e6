package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Event represents a calendar event
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	AllDay      bool       `json:"all_day"`
	Status      string     `json:"status"` // confirmed, tentative, cancelled
	Organizer   string     `json:"organizer,omitempty"`
	Creator     string     `json:"creator,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	HtmlLink    string     `json:"html_link,omitempty"`
	MeetLink    string     `json:"meet_link,omitempty"`
}

// Attendee represents an event attendee
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"display_name,omitempty"`
	ResponseStatus string `json:"response_status"` // needsAction, declined, tentative, accepted
	Self           bool   `json:"self,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

// HasAttendee reports whether the event lists the email as an attendee.
func (e *Event) HasAttendee(email string) bool {
	for _, a := range e.Attendees {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// OwnedBy reports whether the given user is the event's organizer or creator.
func (e *Event) OwnedBy(email string) bool {
	if email == "" {
		return false
	}
	return strings.EqualFold(e.Organizer, email) || strings.EqualFold(e.Creator, email)
}

// googleEvent represents the Google Calendar API event format
type googleEvent struct {
	ID             string           `json:"id,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Description    string           `json:"description,omitempty"`
	Location       string           `json:"location,omitempty"`
	Status         string           `json:"status,omitempty"`
	HtmlLink       string           `json:"htmlLink,omitempty"`
	Start          *googleDateTime  `json:"start,omitempty"`
	End            *googleDateTime  `json:"end,omitempty"`
	Organizer      *googlePerson    `json:"organizer,omitempty"`
	Creator        *googlePerson    `json:"creator,omitempty"`
	Attendees      []googleAttendee `json:"attendees,omitempty"`
	ConferenceData *conferenceData  `json:"conferenceData,omitempty"`
}

type googleDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googlePerson struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type googleAttendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Self           bool   `json:"self,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

type conferenceData struct {
	CreateRequest *conferenceCreateRequest `json:"createRequest,omitempty"`
	EntryPoints   []entryPoint             `json:"entryPoints,omitempty"`
}

type conferenceCreateRequest struct {
	RequestID             string            `json:"requestId"`
	ConferenceSolutionKey map[string]string `json:"conferenceSolutionKey"`
}

type entryPoint struct {
	EntryPointType string `json:"entryPointType"`
	URI            string `json:"uri"`
}

type eventsResponse struct {
	Items []googleEvent `json:"items"`
}

// ListEventsParams for querying events
type ListEventsParams struct {
	TimeMin    time.Time // Start of time range (required)
	TimeMax    time.Time // End of time range (required)
	MaxResults int       // Max events to return (default 100)
	Query      string    // Free text search
}

// ListEvents retrieves events in the specified time range
func (c *Client) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	if params.MaxResults == 0 {
		params.MaxResults = 100
	}

	queryParams := url.Values{}
	queryParams.Set("timeMin", params.TimeMin.Format(time.RFC3339))
	queryParams.Set("timeMax", params.TimeMax.Format(time.RFC3339))
	queryParams.Set("maxResults", fmt.Sprintf("%d", params.MaxResults))
	queryParams.Set("singleEvents", "true")
	queryParams.Set("orderBy", "startTime")
	if params.Query != "" {
		queryParams.Set("q", params.Query)
	}

	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(c.calendarID), queryParams.Encode())
	data, err := c.request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp eventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		event, err := convertEvent(&item)
		if err != nil {
			continue // Skip malformed events
		}
		events = append(events, event)
	}

	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.calendarID), url.PathEscape(eventID))
	data, err := c.request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	event, err := convertEvent(&item)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// CreateEventParams for creating a new event
type CreateEventParams struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string // Email addresses
	RequestID   string   // conference create request id; empty skips the meet link
}

// CreateEvent creates a new calendar event, requesting a meet link when a
// RequestID is supplied. Attendees are invited via sendUpdates=all.
func (c *Client) CreateEvent(ctx context.Context, params CreateEventParams) (*Event, error) {
	event := googleEvent{
		Summary:     params.Summary,
		Description: params.Description,
		Start: &googleDateTime{
			DateTime: params.Start.Format(time.RFC3339),
			TimeZone: params.Start.Location().String(),
		},
		End: &googleDateTime{
			DateTime: params.End.Format(time.RFC3339),
			TimeZone: params.End.Location().String(),
		},
	}

	for _, email := range params.Attendees {
		event.Attendees = append(event.Attendees, googleAttendee{Email: email})
	}

	queryParams := url.Values{}
	queryParams.Set("sendUpdates", "all")
	if params.RequestID != "" {
		queryParams.Set("conferenceDataVersion", "1")
		event.ConferenceData = &conferenceData{
			CreateRequest: &conferenceCreateRequest{
				RequestID:             params.RequestID,
				ConferenceSolutionKey: map[string]string{"type": "hangoutsMeet"},
			},
		}
	}

	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(c.calendarID), queryParams.Encode())
	data, err := c.request(ctx, "POST", path, event)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse created event: %w", err)
	}

	result, err := convertEvent(&item)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// UpdateEventTime moves an existing event to a new start/end window and
// notifies all attendees.
func (c *Client) UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*Event, error) {
	patch := googleEvent{
		Start: &googleDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: start.Location().String(),
		},
		End: &googleDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: end.Location().String(),
		},
	}

	path := fmt.Sprintf("/calendars/%s/events/%s?sendUpdates=all",
		url.PathEscape(c.calendarID), url.PathEscape(eventID))
	data, err := c.request(ctx, "PATCH", path, patch)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse updated event: %w", err)
	}

	result, err := convertEvent(&item)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteEvent removes an event, notifying attendees. A 404 means the event is
// already gone, which callers treat as success (idempotent deletion).
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s?sendUpdates=all",
		url.PathEscape(c.calendarID), url.PathEscape(eventID))
	_, err := c.request(ctx, "DELETE", path, nil)
	return err
}

// FreeBusyParams for checking availability. CalendarID defaults to the
// client's calendar; set it to an attendee's email to query their calendar.
type FreeBusyParams struct {
	TimeMin    time.Time
	TimeMax    time.Time
	CalendarID string
}

// BusyPeriod represents a period when the calendar is busy
type BusyPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FreeBusy returns the busy periods overlapping the window for one calendar.
func (c *Client) FreeBusy(ctx context.Context, params FreeBusyParams) ([]BusyPeriod, error) {
	calendarID := params.CalendarID
	if calendarID == "" {
		calendarID = c.calendarID
	}

	reqBody := map[string]interface{}{
		"timeMin": params.TimeMin.Format(time.RFC3339),
		"timeMax": params.TimeMax.Format(time.RFC3339),
		"items": []map[string]string{
			{"id": calendarID},
		},
	}

	data, err := c.request(ctx, "POST", "/freeBusy", reqBody)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"calendars"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse freebusy response: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %q not in freebusy response", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy lookup for %q failed: %s", calendarID, cal.Errors[0].Reason)
	}

	periods := make([]BusyPeriod, 0, len(cal.Busy))
	for _, busy := range cal.Busy {
		start, err := time.Parse(time.RFC3339, busy.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, busy.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end: %w", err)
		}
		periods = append(periods, BusyPeriod{Start: start, End: end})
	}

	return periods, nil
}

// convertEvent converts a Google Calendar event to our Event type
func convertEvent(item *googleEvent) (Event, error) {
	event := Event{
		ID:          item.ID,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		HtmlLink:    item.HtmlLink,
	}

	// Parse start time
	if item.Start != nil {
		if item.Start.DateTime != "" {
			t, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				return Event{}, fmt.Errorf("parse start time: %w", err)
			}
			event.Start = t
		} else if item.Start.Date != "" {
			t, err := time.Parse("2006-01-02", item.Start.Date)
			if err != nil {
				return Event{}, fmt.Errorf("parse start date: %w", err)
			}
			event.Start = t
			event.AllDay = true
		}
	}

	// Parse end time
	if item.End != nil {
		if item.End.DateTime != "" {
			t, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				return Event{}, fmt.Errorf("parse end time: %w", err)
			}
			event.End = t
		} else if item.End.Date != "" {
			t, err := time.Parse("2006-01-02", item.End.Date)
			if err != nil {
				return Event{}, fmt.Errorf("parse end date: %w", err)
			}
			event.End = t
		}
	}

	if item.Organizer != nil {
		event.Organizer = item.Organizer.Email
	}
	if item.Creator != nil {
		event.Creator = item.Creator.Email
	}

	if len(item.Attendees) > 0 {
		event.Attendees = make([]Attendee, len(item.Attendees))
		for i, a := range item.Attendees {
			event.Attendees[i] = Attendee{
				Email:          a.Email,
				DisplayName:    a.DisplayName,
				ResponseStatus: a.ResponseStatus,
				Self:           a.Self,
				Organizer:      a.Organizer,
			}
		}
	}

	// Extract Google Meet link
	if item.ConferenceData != nil {
		for _, entry := range item.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" {
				event.MeetLink = entry.URI
				break
			}
		}
	}

	return event, nil
}

// FormatEventSummary returns a human-readable summary of an event
func (e *Event) FormatEventSummary() string {
	timeStr := e.Start.Format("Jan 2, 2006 at 3:04 PM")
	if e.AllDay {
		timeStr = e.Start.Format("Jan 2, 2006") + " (all day)"
	}

	summary := fmt.Sprintf("%s - %s", e.Summary, timeStr)
	if e.MeetLink != "" {
		summary += " (has video call)"
	}

	return summary
}
