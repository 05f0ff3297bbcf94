// Package notify posts run-completion notices to a chat channel.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// Notifier receives a short notice after an agent run finishes. Sends
// are best effort: failures are logged, never propagated into the
// webhook path.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Slack posts notices to a fixed Slack channel.
type Slack struct {
	client  *slack.Client
	channel string
}

// NewSlack returns a Slack notifier for the given bot token and channel.
func NewSlack(botToken, channel string) *Slack {
	return &Slack{client: slack.New(botToken), channel: channel}
}

func (s *Slack) Notify(ctx context.Context, text string) {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		log.Warn().Err(err).Str("channel", s.channel).Msg("slack notification failed")
	}
}

// Noop discards all notices. Used when Slack is not configured.
type Noop struct{}

func (Noop) Notify(context.Context, string) {}

// ReviewDone formats the notice for a completed review run.
func ReviewDone(owner, repo string, pr int) string {
	return fmt.Sprintf("🤖 Posted AI review on %s/%s#%d", owner, repo, pr)
}

// TestGenDone formats the notice for a completed test generation run.
func TestGenDone(owner, repo string, pr int, skipped bool, committed int) string {
	if skipped {
		return fmt.Sprintf("🧪 Test generation skipped on %s/%s#%d", owner, repo, pr)
	}
	return fmt.Sprintf("🧪 Committed %d generated test file(s) on %s/%s#%d", committed, owner, repo, pr)
}
