package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpilot/prpilot/githost/githosttest"
	"github.com/prpilot/prpilot/model"
)

// stubLLM is a canned llm.Client for agent tests.
type stubLLM struct {
	TextResponse string
	TextErr      error

	// ObjectJSON is unmarshalled into GenerateObject's target.
	ObjectJSON string
	ObjectErr  error

	TextPrompts   []string
	ObjectPrompts []string
}

func (s *stubLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	s.TextPrompts = append(s.TextPrompts, prompt)
	if s.TextErr != nil {
		return "", s.TextErr
	}
	return s.TextResponse, nil
}

func (s *stubLLM) GenerateObject(_ context.Context, prompt string, out any) error {
	s.ObjectPrompts = append(s.ObjectPrompts, prompt)
	if s.ObjectErr != nil {
		return s.ObjectErr
	}
	return json.Unmarshal([]byte(s.ObjectJSON), out)
}

func reviewPRContext() *model.PRContext {
	return &model.PRContext{
		Owner:      "acme",
		Repo:       "web",
		PullNumber: 42,
		HeadRef:    "feature/date-parse",
		BaseRef:    "main",
		Title:      "Fix date parsing",
		ChangedFiles: []model.ChangedFile{
			{Filename: "app/utils/date.ts", Status: model.StatusModified, Patch: "@@ -1 +1 @@", Content: "export {}"},
		},
		CommitMessages: []string{"fix tz handling"},
	}
}

func TestReviewRunHappyPath(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{TextResponse: `<review><summary>Nice fix.</summary></review>`}
	agent := NewReviewAgent(host, client, "ready-for-review")

	err := agent.Run(context.Background(), reviewPRContext())
	require.NoError(t, err)

	require.Len(t, host.CreatedComments, 1)
	assert.Equal(t, reviewPlaceholderBody, host.CreatedComments[0])

	require.Len(t, host.UpdatedComments, 1)
	assert.Equal(t, int64(1), host.UpdatedComments[0].ID, "the placeholder comment is edited in place")
	assert.Contains(t, host.UpdatedComments[0].Body, "Nice fix.")
	assert.Contains(t, host.UpdatedComments[0].Body, "### Suggestions", "sections render even when empty")

	assert.Equal(t, []string{"ready-for-review"}, host.RemovedLabels)
}

func TestReviewRunModelFailure(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{TextErr: errors.New("model unavailable")}
	agent := NewReviewAgent(host, client, "ready-for-review")

	err := agent.Run(context.Background(), reviewPRContext())
	require.NoError(t, err, "model failures are reported in the comment, not returned")

	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, reviewFailureSummary)
	assert.Equal(t, []string{"ready-for-review"}, host.RemovedLabels, "the label is still removed after a canned review")
}

func TestReviewRunPlaceholderFailure(t *testing.T) {
	host := githosttest.New()
	host.CreateCommentErr = errors.New("comments disabled")
	agent := NewReviewAgent(host, &stubLLM{TextResponse: "<review></review>"}, "ready-for-review")

	err := agent.Run(context.Background(), reviewPRContext())
	assert.Error(t, err, "failing to create the placeholder is the one propagated failure")
	assert.Empty(t, host.UpdatedComments)
	assert.Empty(t, host.RemovedLabels)
}

func TestReviewRunLabelRemovalFailureIsTolerated(t *testing.T) {
	host := githosttest.New()
	host.RemoveLabelErr = errors.New("label already gone")
	agent := NewReviewAgent(host, &stubLLM{TextResponse: `<review><summary>ok</summary></review>`}, "ready-for-review")

	err := agent.Run(context.Background(), reviewPRContext())
	require.NoError(t, err)
	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "ok")
}

func TestReviewPromptIncludesExcludedMarker(t *testing.T) {
	prCtx := reviewPRContext()
	prCtx.ChangedFiles = append(prCtx.ChangedFiles, model.ChangedFile{
		Filename: "package-lock.json",
		Status:   model.StatusModified,
		Excluded: true,
	})

	prompt := buildReviewPrompt(prCtx)
	assert.Contains(t, prompt, excludedContentMarker)
	assert.Contains(t, prompt, "fix tz handling")
	assert.Contains(t, prompt, "app/utils/date.ts")
}
