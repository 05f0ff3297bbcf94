package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/llm"
	"github.com/prpilot/prpilot/model"
)

const (
	testgenPlaceholderBody = "🧪 AI test generation in progress..."
	testgenFailureBody     = "⚠️ Automated test generation failed. The trigger label was left in place; apply it again to retry after checking the service logs."

	gatingFailureReason = "error in gating check"
)

// gatingDecision is the structured verdict of the gating step.
type gatingDecision struct {
	ShouldGenerateTests bool   `json:"shouldGenerateTests" jsonschema:"required,description=Whether the change warrants generating or updating tests"`
	Reasoning           string `json:"reasoning" jsonschema:"required,description=Why tests should or should not be generated"`
	Recommendation      string `json:"recommendation" jsonschema:"description=Guidance for the generation step when tests are warranted"`
}

// TestGenOutcome summarizes a test generation run for callers that
// report on it.
type TestGenOutcome struct {
	Skipped   bool
	Reason    string
	Committed []string
}

// TestGenAgent gates, generates, and commits frontend test files for a
// PR, reporting progress through a single evolving comment.
type TestGenAgent struct {
	host       githost.Host
	llm        llm.Client
	label      string
	uiPageRoot string
}

func NewTestGenAgent(host githost.Host, client llm.Client, triggerLabel, uiPageRoot string) *TestGenAgent {
	return &TestGenAgent{host: host, llm: client, label: triggerLabel, uiPageRoot: uiPageRoot}
}

// Run executes the test generation flow. As with reviews, only a
// failure to create the placeholder comment propagates; later failures
// overwrite the placeholder and leave the trigger label in place so the
// run can be retried.
func (a *TestGenAgent) Run(ctx context.Context, ext *model.ExtendedPRContext) (*TestGenOutcome, error) {
	commentID, err := a.host.CreateComment(ctx, ext.Owner, ext.Repo, ext.PullNumber, testgenPlaceholderBody)
	if err != nil {
		return nil, fmt.Errorf("create test generation placeholder: %w", err)
	}

	outcome, err := a.run(ctx, ext, commentID)
	if outcome == nil {
		outcome = &TestGenOutcome{}
	}
	if err != nil {
		log.Error().Err(err).
			Str("repo", ext.Owner+"/"+ext.Repo).
			Int("pr", ext.PullNumber).
			Msg("test generation failed")
		if uerr := a.host.UpdateComment(ctx, ext.Owner, ext.Repo, commentID, testgenFailureBody); uerr != nil {
			log.Error().Err(uerr).Int64("comment_id", commentID).Msg("overwrite test generation placeholder with failure notice")
		}
		return outcome, nil
	}
	return outcome, nil
}

func (a *TestGenAgent) run(ctx context.Context, ext *model.ExtendedPRContext, commentID int64) (*TestGenOutcome, error) {
	decision := a.gate(ctx, ext)
	if !decision.ShouldGenerateTests {
		log.Info().Int("pr", ext.PullNumber).Str("reason", model.Truncate(decision.Reasoning, 200)).Msg("test generation skipped")
		body := renderSkipComment(decision.Reasoning)
		if err := a.host.UpdateComment(ctx, ext.Owner, ext.Repo, commentID, body); err != nil {
			return nil, fmt.Errorf("update skip comment: %w", err)
		}
		// The trigger label stays on the PR so the run can be retried.
		return &TestGenOutcome{Skipped: true, Reason: decision.Reasoning}, nil
	}

	var proposals []model.TestProposal
	text, err := a.llm.GenerateText(ctx, buildGenerationPrompt(ext, decision.Recommendation))
	if err != nil {
		log.Warn().Err(err).Int("pr", ext.PullNumber).Msg("test generation model call failed")
	} else {
		proposals = ParseTestProposals(text)
	}
	proposals = finalizeProposals(&ext.PRContext, proposals, a.uiPageRoot)

	committed, err := a.commitProposals(ctx, ext, proposals)
	if err != nil {
		return &TestGenOutcome{Committed: committed}, fmt.Errorf("commit test proposals: %w", err)
	}

	if err := a.host.UpdateComment(ctx, ext.Owner, ext.Repo, commentID, renderTestGenComment(committed)); err != nil {
		return &TestGenOutcome{Committed: committed}, fmt.Errorf("update test generation comment: %w", err)
	}

	if err := a.host.RemoveLabel(ctx, ext.Owner, ext.Repo, ext.PullNumber, a.label); err != nil {
		log.Warn().Err(err).Str("label", a.label).Int("pr", ext.PullNumber).Msg("remove test generation trigger label")
	}
	return &TestGenOutcome{Committed: committed}, nil
}

// gate asks the model whether generating tests is worthwhile. Any
// failure resolves to a skip so that a flaky gating call never produces
// unwanted commits.
func (a *TestGenAgent) gate(ctx context.Context, ext *model.ExtendedPRContext) gatingDecision {
	var decision gatingDecision
	if err := a.llm.GenerateObject(ctx, buildGatingPrompt(ext), &decision); err != nil {
		log.Warn().Err(err).Int("pr", ext.PullNumber).Msg("gating check failed")
		return gatingDecision{ShouldGenerateTests: false, Reasoning: gatingFailureReason}
	}
	return decision
}

// commitProposals applies proposals in order as individual commits on
// the PR head branch. A rename deletes the old path before writing the
// new one. The first hard failure aborts the loop; files already
// committed are returned so callers can report the partial result.
func (a *TestGenAgent) commitProposals(ctx context.Context, ext *model.ExtendedPRContext, proposals []model.TestProposal) ([]string, error) {
	var committed []string
	for _, p := range proposals {
		if p.Action == model.ActionRename && p.OldFilename != "" && p.OldFilename != p.Filename {
			oldSHA, err := a.host.GetContentSHA(ctx, ext.Owner, ext.Repo, p.OldFilename, ext.HeadRef)
			switch {
			case errors.Is(err, githost.ErrNotFound):
				// Nothing to delete; the old path never existed on this branch.
			case err != nil:
				return committed, fmt.Errorf("resolve %s for rename: %w", p.OldFilename, err)
			default:
				msg := fmt.Sprintf("test: remove %s (renamed to %s)", p.OldFilename, p.Filename)
				if err := a.host.DeleteFile(ctx, ext.Owner, ext.Repo, p.OldFilename, ext.HeadRef, msg, oldSHA); err != nil {
					return committed, fmt.Errorf("delete %s: %w", p.OldFilename, err)
				}
			}
		}

		priorSHA, err := a.host.GetContentSHA(ctx, ext.Owner, ext.Repo, p.Filename, ext.HeadRef)
		if err != nil && !errors.Is(err, githost.ErrNotFound) {
			return committed, fmt.Errorf("resolve %s: %w", p.Filename, err)
		}
		if errors.Is(err, githost.ErrNotFound) {
			priorSHA = ""
		}

		msg := fmt.Sprintf("test: add generated tests for %s", p.Filename)
		if priorSHA != "" {
			msg = fmt.Sprintf("test: update generated tests for %s", p.Filename)
		}
		if err := a.host.CreateOrUpdateFile(ctx, ext.Owner, ext.Repo, p.Filename, ext.HeadRef, msg, p.TestContent, priorSHA); err != nil {
			return committed, fmt.Errorf("write %s: %w", p.Filename, err)
		}
		committed = append(committed, p.Filename)
	}
	return committed, nil
}

func renderSkipComment(reason string) string {
	if strings.TrimSpace(reason) == "" {
		reason = "the change does not appear to need new tests"
	}
	return fmt.Sprintf("## 🧪 AI Test Generation\n\nSkipped: %s\n", reason)
}

func renderTestGenComment(committed []string) string {
	var b strings.Builder
	b.WriteString("## 🧪 AI Test Generation\n\n")
	if len(committed) == 0 {
		b.WriteString("No test proposals were generated for this change.\n")
		return b.String()
	}
	b.WriteString("Committed test files:\n\n")
	for _, f := range committed {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}
	return b.String()
}
