// Package mail sends notification emails through the Gmail API. It is the
// mail collaborator for the action executor; the executor decides what to
// send and when, this package only delivers.
package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"calassist/internal/logging"
)

// Sender delivers notification emails on behalf of the authenticated user.
type Sender interface {
	Send(ctx context.Context, to, subject, plain, html string) error
	UserEmail(ctx context.Context) (string, error)
}

// GmailSender sends mail via the Gmail API.
type GmailSender struct {
	service *gmail.Service
}

// NewGmailSender builds a sender from OAuth client credentials and a stored
// token file, the same flow the calendar sync tools use.
func NewGmailSender(ctx context.Context, credentialsFile, tokenFile string) (*GmailSender, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(data, gmail.GmailSendScope, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &GmailSender{service: service}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

// Service exposes the underlying Gmail service so read-side collaborators
// can share the authenticated client.
func (s *GmailSender) Service() *gmail.Service {
	return s.service
}

// UserEmail returns the authenticated user's address.
func (s *GmailSender) UserEmail(ctx context.Context) (string, error) {
	profile, err := s.service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Send delivers a multipart plain+HTML message to a single recipient.
func (s *GmailSender) Send(ctx context.Context, to, subject, plain, html string) error {
	raw, err := buildMessage(to, subject, plain, html)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	_, err = s.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.RawURLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	logging.Info("mail", "Sent %q to %s", logging.Truncate(subject, 60), to)
	return nil
}

// buildMessage assembles an RFC 2822 message with plain and HTML parts.
func buildMessage(to, subject, plain, html string) ([]byte, error) {
	var sb strings.Builder
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(part, plain)

	if html != "" {
		part, err = writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=UTF-8"},
		})
		if err != nil {
			return nil, err
		}
		fmt.Fprint(part, html)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", writer.Boundary())
	sb.WriteString(body.String())

	return []byte(sb.String()), nil
}
