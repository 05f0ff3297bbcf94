// Package prpilot is the top-level entry point for the PRPilot service.
//
// Use the Builder to compose an application:
//
//	app, err := prpilot.NewBuilder().WithConfig(cfg).Build()
//	app.Start(ctx)
//
// Or swap individual components:
//
//	app, err := prpilot.NewBuilder().
//	    WithConfig(cfg).
//	    WithHost(myHost).
//	    WithLLM(myClient).
//	    Build()
package prpilot

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prpilot/prpilot/agent"
	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/githost/github"
	"github.com/prpilot/prpilot/httpapi"
	"github.com/prpilot/prpilot/internal/config"
	"github.com/prpilot/prpilot/llm"
	"github.com/prpilot/prpilot/notify"
	"github.com/prpilot/prpilot/prcontext"
)

// Builder constructs a PRPilot App.
type Builder struct {
	config   *config.Config
	host     githost.Host
	llm      llm.Client
	notifier notify.Notifier
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig sets the application configuration.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.config = cfg
	return b
}

// WithHost sets the git hosting client.
func (b *Builder) WithHost(h githost.Host) *Builder {
	b.host = h
	return b
}

// WithLLM sets the model client used by both agents.
func (b *Builder) WithLLM(client llm.Client) *Builder {
	b.llm = client
	return b
}

// WithNotifier sets the completion notifier.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// Build creates the App. Missing components are filled from the
// configuration.
func (b *Builder) Build() (*App, error) {
	cfg := b.config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.host == nil {
		b.host = github.NewClient(cfg.GitHubToken)
	}
	if b.llm == nil {
		client, err := llm.New(llm.Config{
			Provider:        cfg.LLMProvider,
			Model:           cfg.LLMModel,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			OpenAIAPIKey:    cfg.OpenAIAPIKey,
		})
		if err != nil {
			return nil, err
		}
		b.llm = client
	}
	if b.notifier == nil {
		if cfg.SlackEnabled() {
			b.notifier = notify.NewSlack(cfg.SlackBotToken, cfg.SlackChannel)
		} else {
			b.notifier = notify.Noop{}
		}
	}

	builder := prcontext.NewBuilder(b.host, prcontext.Options{
		MaxFileChars: cfg.MaxFileChars,
		TestRoot:     cfg.TestRoot,
	})
	review := agent.NewReviewAgent(b.host, b.llm, cfg.ReviewLabel)
	testgen := agent.NewTestGenAgent(b.host, b.llm, cfg.TestGenLabel, cfg.UIPageRoot)

	handler := httpapi.New(builder, review, testgen, b.notifier, httpapi.Options{
		WebhookSecret: cfg.WebhookSecret,
		BotLogin:      cfg.BotLogin,
		ReviewLabel:   cfg.ReviewLabel,
		TestGenLabel:  cfg.TestGenLabel,
	})

	return &App{config: cfg, handler: handler}, nil
}

// App is a running PRPilot application.
type App struct {
	config  *config.Config
	handler *httpapi.Handler
}

// Handler returns the HTTP handler for direct access, e.g. in tests or
// when embedding in another server.
func (a *App) Handler() http.Handler { return a.handler.Router() }

// Start runs the HTTP server. Blocks until ctx is done.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.config.Addr,
		Handler: a.handler.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", a.config.Addr).Msg("PRPilot server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
