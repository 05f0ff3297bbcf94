// Package httpapi provides the HTTP API handler for PRPilot. It parses
// and dispatches GitHub webhook deliveries; all PR work is delegated to
// the agents.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prpilot/prpilot/agent"
	"github.com/prpilot/prpilot/notify"
	"github.com/prpilot/prpilot/prcontext"
)

// Options configures the webhook handler.
type Options struct {
	// WebhookSecret enables signature verification when non-empty.
	WebhookSecret string

	// BotLogin is ignored as a webhook sender so the service does not
	// react to its own commits and comments.
	BotLogin string

	// Trigger labels.
	ReviewLabel  string
	TestGenLabel string
}

// Handler provides the HTTP API for PRPilot.
type Handler struct {
	builder  *prcontext.Builder
	review   *agent.ReviewAgent
	testgen  *agent.TestGenAgent
	notifier notify.Notifier
	opts     Options
	router   chi.Router
}

// New creates a new HTTP API handler.
func New(builder *prcontext.Builder, review *agent.ReviewAgent, testgen *agent.TestGenAgent, notifier notify.Notifier, opts Options) *Handler {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	h := &Handler{
		builder:  builder,
		review:   review,
		testgen:  testgen,
		notifier: notifier,
		opts:     opts,
	}
	h.router = h.buildRouter()
	return h
}

// Router returns the HTTP router.
func (h *Handler) Router() chi.Router {
	return h.router
}

func (h *Handler) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/api/webhooks/github", h.handleGitHubWebhook)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleGitHubWebhook runs the matched agent synchronously before
// acknowledging: a 200 means the run finished (or reported its own
// failure on the PR), not merely that the event was queued.
func (h *Handler) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	logger := log.With().Str("delivery_id", deliveryID).Logger()

	event, err := parseWebhook(r, h.opts.WebhookSecret)
	if err != nil {
		logger.Warn().Err(err).Msg("webhook rejected")
		writeError(w, http.StatusBadRequest, "invalid webhook")
		return
	}

	if event == nil {
		writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
		return
	}

	if h.opts.BotLogin != "" && event.Sender == h.opts.BotLogin {
		logger.Debug().Str("sender", event.Sender).Msg("ignoring own event")
		writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
		return
	}

	kind := h.matchTrigger(event)
	if kind == runNone {
		writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
		return
	}

	logger.Info().
		Str("action", event.Action).
		Str("label", event.Label).
		Str("run", string(kind)).
		Msg("dispatching webhook")

	if err := h.dispatch(r.Context(), kind, event.Payload); err != nil {
		logger.Error().Err(err).Msg("webhook run failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
}

type runKind string

const (
	runNone    runKind = ""
	runReview  runKind = "review"
	runTestGen runKind = "testgen"
)

// matchTrigger maps a webhook event to the agent it should start. A
// freshly opened PR gets a review; label events route by label name.
func (h *Handler) matchTrigger(event *webhookEvent) runKind {
	switch event.Action {
	case "opened":
		return runReview
	case "labeled":
		switch event.Label {
		case h.opts.ReviewLabel:
			return runReview
		case h.opts.TestGenLabel:
			return runTestGen
		}
	}
	return runNone
}

func (h *Handler) dispatch(ctx context.Context, kind runKind, payload []byte) error {
	switch kind {
	case runReview:
		prCtx, err := h.builder.Build(ctx, payload)
		if err != nil {
			return err
		}
		if err := h.review.Run(ctx, prCtx); err != nil {
			return err
		}
		h.notifier.Notify(ctx, notify.ReviewDone(prCtx.Owner, prCtx.Repo, prCtx.PullNumber))
		return nil

	case runTestGen:
		ext, err := h.builder.BuildExtended(ctx, payload)
		if err != nil {
			return err
		}
		outcome, err := h.testgen.Run(ctx, ext)
		if err != nil {
			return err
		}
		h.notifier.Notify(ctx, notify.TestGenDone(ext.Owner, ext.Repo, ext.PullNumber, outcome.Skipped, len(outcome.Committed)))
		return nil
	}
	return errors.New("unknown run kind")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writeJSON encode error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
