package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// webhookEvent is the dispatch envelope of a pull_request delivery. The
// full payload is kept for the context builder.
type webhookEvent struct {
	Action  string
	Label   string
	Sender  string
	Payload []byte
}

// parseWebhook reads and optionally verifies a webhook delivery. Events
// other than pull_request return (nil, nil): they are acknowledged but
// carry nothing to dispatch.
func parseWebhook(r *http.Request, secret string) (*webhookEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	// Verify signature if a secret is configured.
	if secret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if sig == "" {
			return nil, fmt.Errorf("missing webhook signature")
		}
		if !verifySignature(body, sig, secret) {
			return nil, fmt.Errorf("invalid webhook signature")
		}
	}

	if r.Header.Get("X-GitHub-Event") != "pull_request" {
		return nil, nil
	}

	var payload struct {
		Action string `json:"action"`
		Label  struct {
			Name string `json:"name"`
		} `json:"label"`
		Sender struct {
			Login string `json:"login"`
		} `json:"sender"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing pull_request payload: %w", err)
	}

	return &webhookEvent{
		Action:  payload.Action,
		Label:   payload.Label.Name,
		Sender:  payload.Sender.Login,
		Payload: body,
	}, nil
}

// verifySignature checks the HMAC-SHA256 signature from GitHub.
func verifySignature(payload []byte, signature, secret string) bool {
	sig := strings.TrimPrefix(signature, "sha256=")
	decoded, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	return hmac.Equal(decoded, expected)
}
