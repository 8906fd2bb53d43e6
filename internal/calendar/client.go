// Package calendar is a Google Calendar API client using service account
// authentication. It is the calendar collaborator for the action executor:
// list, create, update and delete events, with API failures classified so
// callers can map them to user-facing messages.
package calendar

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	baseURL     = "https://www.googleapis.com/calendar/v3"
	tokenURL    = "https://oauth2.googleapis.com/token"
	tokenExpiry = 55 * time.Minute // Refresh before 1 hour expiry
)

// FailureKind classifies an API failure for user-facing reporting.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureAuth
	FailurePermission
	FailureNotFound
	FailureRateLimit
)

// APIError is a classified Google Calendar API failure.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar API error (%d): %s", e.Code, e.Message)
}

// Kind maps the HTTP status code onto a failure class.
func (e *APIError) Kind() FailureKind {
	switch e.Code {
	case 401:
		return FailureAuth
	case 403:
		return FailurePermission
	case 404:
		return FailureNotFound
	case 429:
		return FailureRateLimit
	default:
		return FailureGeneric
	}
}

// Client is a Google Calendar API client using service account authentication
type Client struct {
	httpClient  *http.Client
	baseURL     string
	calendarID  string
	credentials *serviceAccountCredentials

	// Token caching
	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

// serviceAccountCredentials holds the service account JSON key
type serviceAccountCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

// Config holds calendar client configuration
type Config struct {
	CredentialsFile string // Path to service account JSON file
	CalendarID      string // Calendar ID to access (usually an email address)
}

// NewClient creates a new Google Calendar client from environment variables
func NewClient() (*Client, error) {
	credsFile := os.Getenv("GOOGLE_CALENDAR_CREDENTIALS_FILE")
	if credsFile == "" {
		return nil, fmt.Errorf("GOOGLE_CALENDAR_CREDENTIALS_FILE not set")
	}

	calendarID := os.Getenv("GOOGLE_CALENDAR_ID")
	if calendarID == "" {
		return nil, fmt.Errorf("GOOGLE_CALENDAR_ID not set")
	}

	return NewClientWithConfig(Config{
		CredentialsFile: credsFile,
		CalendarID:      calendarID,
	})
}

// NewClientWithConfig creates a new client with explicit configuration
func NewClientWithConfig(cfg Config) (*Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds serviceAccountCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials file must be a service account key (got %s)", creds.Type)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		calendarID:  cfg.CalendarID,
		credentials: &creds,
	}, nil
}

// newTestClient builds a client pointed at a test server, bypassing auth.
func newTestClient(serverURL, calendarID string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     serverURL,
		calendarID:  calendarID,
		accessToken: "test-token",
		expiresAt:   time.Now().Add(time.Hour),
	}
}

// getAccessToken returns a valid access token, refreshing if needed
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	// Create JWT assertion
	now := time.Now()
	claims := map[string]interface{}{
		"iss":   c.credentials.ClientEmail,
		"scope": "https://www.googleapis.com/auth/calendar.readonly https://www.googleapis.com/auth/calendar.events",
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	jwt, err := c.signJWT(claims)
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}

	// Exchange JWT for access token
	data := url.Values{}
	data.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	data.Set("assertion", jwt)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.expiresAt = now.Add(tokenExpiry)

	return c.accessToken, nil
}

// signJWT creates a signed JWT assertion
func (c *Client) signJWT(claims map[string]interface{}) (string, error) {
	block, _ := pem.Decode([]byte(c.credentials.PrivateKey))
	if block == nil {
		return "", fmt.Errorf("failed to parse PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return "", fmt.Errorf("private key is not RSA")
	}

	header := map[string]string{
		"alg": "RS256",
		"typ": "JWT",
	}

	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)

	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)

	signingInput := headerB64 + "." + claimsB64

	hash := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(nil, rsaKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	signatureB64 := base64.RawURLEncoding.EncodeToString(signature)

	return signingInput + "." + signatureB64, nil
}

// request makes an authenticated request to the Calendar API. Failures with
// an HTTP status are returned as *APIError so callers can classify them.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, &APIError{Code: resp.StatusCode, Message: errResp.Error.Message}
		}
		return nil, &APIError{Code: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// CalendarID returns the configured calendar ID
func (c *Client) CalendarID() string {
	return c.calendarID
}
