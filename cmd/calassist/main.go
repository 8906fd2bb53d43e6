package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calassist/internal/calendar"
	"calassist/internal/config"
	"calassist/internal/dialog"
	"calassist/internal/executor"
	"calassist/internal/extract"
	"calassist/internal/llm"
	"calassist/internal/logging"
	"calassist/internal/mail"
	"calassist/internal/session"
	"calassist/internal/triage"
	"calassist/internal/web"
)

func main() {
	log.Println("calassist - calendar and email assistant")
	log.Println("========================================")

	cfg := config.Load()
	ctx := context.Background()

	os.MkdirAll(cfg.StatePath, 0755)

	store, err := session.OpenStore(cfg.StatePath)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	if cfg.CalendarCredentialsFile == "" {
		log.Fatal("GOOGLE_CALENDAR_CREDENTIALS_FILE environment variable required")
	}
	cal, err := calendar.NewClientWithConfig(calendar.Config{
		CredentialsFile: cfg.CalendarCredentialsFile,
		CalendarID:      cfg.CalendarID,
	})
	if err != nil {
		log.Fatalf("Failed to create calendar client: %v", err)
	}

	var mailer mail.Sender
	var inbox triage.Inbox
	userEmail := os.Getenv("USER_EMAIL")
	if cfg.GmailCredentialsFile != "" {
		gm, err := mail.NewGmailSender(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
		if err != nil {
			log.Fatalf("Failed to create gmail sender: %v", err)
		}
		mailer = gm
		inbox = triage.NewGmailInbox(gm.Service())
		if userEmail == "" {
			userEmail, err = gm.UserEmail(ctx)
			if err != nil {
				log.Fatalf("Failed to look up user email: %v", err)
			}
		}
	} else {
		logging.Warn("main", "GMAIL_CREDENTIALS_FILE not set, notifications will only be logged")
		mailer = logOnlySender{}
		if userEmail == "" {
			userEmail = cfg.CalendarID
		}
	}

	var model *llm.Client
	if cfg.OllamaURL != "" || cfg.OllamaModel != "" {
		model = llm.NewClient(cfg.OllamaURL, cfg.OllamaModel)
		logging.Info("main", "Ollama enrichment enabled (model %s)", cfg.OllamaModel)
	}

	var extractor *extract.Extractor
	if cfg.UseNER {
		extractor = extract.New()
	} else {
		extractor = extract.NewRulesOnly()
	}

	runner := executor.New(cal, mailer, store, userEmail)

	var triager dialog.Triager
	if inbox != nil {
		triager = triage.New(inbox, model, extractor)
	}

	opts := dialog.Options{}
	if cfg.TemplatesFile != "" {
		templates, err := config.LoadTemplates(cfg.TemplatesFile)
		if err != nil {
			log.Fatalf("Failed to load templates: %v", err)
		}
		opts.Prompts = templates.Prompts
		opts.Fallbacks = templates.Fallbacks
	}
	manager := dialog.New(extractor, runner, triager, opts)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: web.New(store, manager).Handler(),
	}

	go func() {
		logging.Info("main", "Listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}

	log.Println("[main] Goodbye!")
}

// logOnlySender stands in for Gmail in development so scheduling still works
// without OAuth credentials.
type logOnlySender struct{}

func (logOnlySender) Send(_ context.Context, to, subject, plain, _ string) error {
	logging.Info("mail", "Would send %q to %s: %s", subject, to, logging.Truncate(plain, 120))
	return nil
}

func (logOnlySender) UserEmail(context.Context) (string, error) {
	return os.Getenv("USER_EMAIL"), nil
}
