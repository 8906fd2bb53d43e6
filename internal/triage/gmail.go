package triage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"calassist/internal/logging"
)

// GmailInbox reads recent inbox messages through the Gmail API.
type GmailInbox struct {
	service *gmail.Service
}

// NewGmailInbox wraps an authenticated Gmail service.
func NewGmailInbox(service *gmail.Service) *GmailInbox {
	return &GmailInbox{service: service}
}

// Recent returns up to max inbox messages, newest first.
func (g *GmailInbox) Recent(ctx context.Context, max int64) ([]Email, error) {
	list, err := g.service.Users.Messages.List("me").
		LabelIds("INBOX").MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	emails := make([]Email, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.service.Users.Messages.Get("me", ref.Id).
			Format("full").Context(ctx).Do()
		if err != nil {
			logging.Warn("triage", "fetch message %s: %v", ref.Id, err)
			continue
		}
		emails = append(emails, parseMessage(msg))
	}
	return emails, nil
}

func parseMessage(msg *gmail.Message) Email {
	email := Email{ID: msg.Id, Snippet: msg.Snippet}
	if msg.Payload == nil {
		return email
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			email.Sender = h.Value
		case "Subject":
			email.Subject = h.Value
		}
	}
	email.Body = extractBody(msg.Payload)
	return email
}

// extractBody walks the payload tree and returns the first text/plain part.
func extractBody(part *gmail.MessagePart) string {
	if part.Body != nil && part.Body.Data != "" && strings.HasPrefix(part.MimeType, "text/plain") {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			decoded, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
			if err != nil {
				return ""
			}
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := extractBody(child); body != "" {
			return body
		}
	}
	return ""
}
