// Package llm is an optional Ollama-backed classifier used to enrich email
// triage. Everything that consumes it must work with the client absent or
// failing; rule-based fallbacks always exist.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls a local Ollama instance for text generation.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a new Ollama client.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second, // generation can take longer
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a prompt and returns the raw model response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}

	return strings.TrimSpace(result.Response), nil
}

// Classify asks the model to pick one label from the list. Anything the model
// returns outside the list maps to "not_matched".
func (c *Client) Classify(ctx context.Context, content string, labels []string) (string, error) {
	prompt := fmt.Sprintf(`Classify the following message into one of these labels: %s

If the message doesn't match any label, respond with "not_matched".
Respond with ONLY the label, nothing else.

Message: %s`, strings.Join(labels, ", "), content)

	response, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	answer := strings.ToLower(strings.TrimSpace(response))
	for _, label := range labels {
		if strings.ToLower(label) == answer {
			return label, nil
		}
	}
	return "not_matched", nil
}
