package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/llm"
	"github.com/prpilot/prpilot/model"
)

const (
	reviewPlaceholderBody = "🤖 AI code review in progress..."
	reviewFailureBody     = "⚠️ The automated code review failed. Check the service logs for details."
)

// reviewFailureSummary replaces the review body when the model call
// itself fails; parsing failures are handled by the parser's defaults.
const reviewFailureSummary = "The review could not be completed because the model request failed."

// ReviewAgent posts an AI code review as a single evolving PR comment:
// a placeholder goes up before the model is called, then is edited in
// place with the result.
type ReviewAgent struct {
	host  githost.Host
	llm   llm.Client
	label string
}

func NewReviewAgent(host githost.Host, client llm.Client, triggerLabel string) *ReviewAgent {
	return &ReviewAgent{host: host, llm: client, label: triggerLabel}
}

// Run executes the review flow. Failures after the placeholder comment
// exists are reported by overwriting it and are not returned; only a
// failure to create the placeholder propagates.
func (a *ReviewAgent) Run(ctx context.Context, prCtx *model.PRContext) error {
	commentID, err := a.host.CreateComment(ctx, prCtx.Owner, prCtx.Repo, prCtx.PullNumber, reviewPlaceholderBody)
	if err != nil {
		return fmt.Errorf("create review placeholder: %w", err)
	}

	if err := a.run(ctx, prCtx, commentID); err != nil {
		log.Error().Err(err).
			Str("repo", prCtx.Owner+"/"+prCtx.Repo).
			Int("pr", prCtx.PullNumber).
			Msg("review failed")
		if uerr := a.host.UpdateComment(ctx, prCtx.Owner, prCtx.Repo, commentID, reviewFailureBody); uerr != nil {
			log.Error().Err(uerr).Int64("comment_id", commentID).Msg("overwrite review placeholder with failure notice")
		}
	}
	return nil
}

func (a *ReviewAgent) run(ctx context.Context, prCtx *model.PRContext, commentID int64) error {
	var review model.Review
	text, err := a.llm.GenerateText(ctx, buildReviewPrompt(prCtx))
	if err != nil {
		log.Warn().Err(err).Int("pr", prCtx.PullNumber).Msg("review model call failed")
		review = model.Review{Summary: reviewFailureSummary}
	} else {
		review = ParseReview(text)
	}

	if err := a.host.UpdateComment(ctx, prCtx.Owner, prCtx.Repo, commentID, renderReviewComment(review)); err != nil {
		return fmt.Errorf("update review comment: %w", err)
	}

	if err := a.host.RemoveLabel(ctx, prCtx.Owner, prCtx.Repo, prCtx.PullNumber, a.label); err != nil {
		log.Warn().Err(err).Str("label", a.label).Int("pr", prCtx.PullNumber).Msg("remove review trigger label")
	}
	return nil
}

// renderReviewComment produces the final comment body. Section headings
// are always present so the comment shape is stable even for sparse
// reviews.
func renderReviewComment(review model.Review) string {
	var b strings.Builder
	b.WriteString("## 🤖 AI Code Review\n\n")

	b.WriteString("### Summary\n\n")
	if review.Summary != "" {
		b.WriteString(review.Summary)
		b.WriteString("\n")
	} else {
		b.WriteString("_No summary provided._\n")
	}

	b.WriteString("\n### File Analyses\n\n")
	if len(review.FileAnalyses) == 0 {
		b.WriteString("_No file analyses provided._\n")
	}
	for _, fa := range review.FileAnalyses {
		fmt.Fprintf(&b, "**`%s`**\n\n%s\n\n", fa.Path, fa.Analysis)
	}

	b.WriteString("\n### Suggestions\n\n")
	if len(review.Suggestions) == 0 {
		b.WriteString("_No suggestions provided._\n")
	}
	for _, s := range review.Suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	return b.String()
}
