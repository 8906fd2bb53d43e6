// Package config loads runtime configuration from the environment and an
// optional templates file for custom prompt and reply text.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"calassist/internal/logging"
)

// Config is everything main needs to wire the assistant together.
type Config struct {
	Addr      string
	StatePath string

	CalendarCredentialsFile string
	CalendarID              string

	GmailCredentialsFile string
	GmailTokenFile       string

	OllamaURL   string
	OllamaModel string

	TemplatesFile string
	UseNER        bool
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logging.Info("config", "No .env file found, using environment variables")
	} else {
		logging.Info("config", "Loaded .env file")
	}

	cfg := Config{
		Addr:                    getenv("LISTEN_ADDR", ":8080"),
		StatePath:               getenv("STATE_PATH", "state"),
		CalendarCredentialsFile: os.Getenv("GOOGLE_CALENDAR_CREDENTIALS_FILE"),
		CalendarID:              getenv("GOOGLE_CALENDAR_ID", "primary"),
		GmailCredentialsFile:    os.Getenv("GMAIL_CREDENTIALS_FILE"),
		GmailTokenFile:          getenv("GMAIL_TOKEN_FILE", "gmail_token.json"),
		OllamaURL:               os.Getenv("OLLAMA_URL"),
		OllamaModel:             os.Getenv("OLLAMA_MODEL"),
		TemplatesFile:           os.Getenv("TEMPLATES_FILE"),
		UseNER:                  os.Getenv("USE_NER") != "false",
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Templates overrides the built-in prompt and reply text. Keys in Prompts are
// "intent.field" pairs, keys in Fallbacks are greeting words.
type Templates struct {
	Prompts   map[string]string `yaml:"prompts"`
	Fallbacks map[string]string `yaml:"fallbacks"`
}

// LoadTemplates parses the YAML templates file at path.
func LoadTemplates(path string) (Templates, error) {
	var t Templates
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read templates file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse templates file: %w", err)
	}
	return t, nil
}
