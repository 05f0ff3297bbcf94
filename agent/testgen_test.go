package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpilot/prpilot/githost/githosttest"
	"github.com/prpilot/prpilot/model"
)

func testgenContext() *model.ExtendedPRContext {
	return &model.ExtendedPRContext{
		PRContext: model.PRContext{
			Owner:      "acme",
			Repo:       "web",
			PullNumber: 42,
			HeadRef:    "feature/date-parse",
			BaseRef:    "main",
			Title:      "Fix date parsing",
			ChangedFiles: []model.ChangedFile{
				{Filename: "lib/date.ts", Status: model.StatusModified, Content: "export const parse = () => null;"},
			},
		},
		ExistingTestFiles: []model.TestFile{
			{Filename: "__tests__/date.test.ts", Content: `test("old", () => {});`},
		},
	}
}

const approveGating = `{"shouldGenerateTests": true, "reasoning": "behavior changed", "recommendation": "cover DST"}`

func TestTestGenHappyPath(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{
		ObjectJSON: approveGating,
		TextResponse: `<tests><testProposals><proposal>
			<filename>__tests__/date.test.ts</filename>
			<testContent>test("new", () => {});</testContent>
			<actions><action>create</action></actions>
		</proposal></testProposals></tests>`,
	}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, []string{"__tests__/date.test.ts"}, outcome.Committed)

	require.Len(t, host.Writes, 1)
	assert.Equal(t, "feature/date-parse", host.Writes[0].Branch, "commits land on the PR head branch")
	assert.Empty(t, host.Writes[0].PriorSHA, "file did not exist on the branch yet")

	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "`__tests__/date.test.ts`")
	assert.Equal(t, []string{"ready-for-tests"}, host.RemovedLabels)

	if assert.Len(t, client.ObjectPrompts, 1) {
		assert.Contains(t, client.ObjectPrompts[0], `test("old", () => {});`, "gating sees existing tests")
	}
	if assert.Len(t, client.TextPrompts, 1) {
		assert.Contains(t, client.TextPrompts[0], "cover DST", "generation sees the gating recommendation")
	}
}

func TestTestGenGatingDeclines(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{ObjectJSON: `{"shouldGenerateTests": false, "reasoning": "docs only"}`}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, "docs only", outcome.Reason)

	assert.Empty(t, host.Writes, "no files are written on a skip")
	assert.Empty(t, host.RemovedLabels, "the trigger label stays for a retry")
	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "docs only")
	assert.Empty(t, client.TextPrompts, "generation is never attempted")
}

func TestTestGenGatingFailure(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{ObjectErr: errors.New("schema rejected")}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	assert.True(t, outcome.Skipped, "a failed gating call resolves to a skip")
	assert.Equal(t, gatingFailureReason, outcome.Reason)
	assert.Empty(t, host.Writes)
	assert.Empty(t, host.RemovedLabels)
}

func TestTestGenRenameDeletesBeforeWrite(t *testing.T) {
	host := githosttest.New()
	host.Files["__tests__/index.test.ts"] = `test("old", () => {});`
	client := &stubLLM{
		ObjectJSON: approveGating,
		TextResponse: `<tests><testProposals><proposal>
			<filename>__tests__/home.test.ts</filename>
			<testContent>test("home", () => {});</testContent>
			<actions><action>rename</action><oldFilename>__tests__/index.test.ts</oldFilename></actions>
		</proposal></testProposals></tests>`,
	}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"__tests__/home.test.ts"}, outcome.Committed)

	require.Len(t, host.Deletes, 1)
	assert.Equal(t, "sha-__tests__/index.test.ts", host.Deletes[0].SHA)
	assert.Equal(t, []string{"delete:__tests__/index.test.ts", "write:__tests__/home.test.ts"}, host.Ops)
}

func TestTestGenRenameMissingOldFileIsBenign(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{
		ObjectJSON: approveGating,
		TextResponse: `<tests><testProposals><proposal>
			<filename>__tests__/home.test.ts</filename>
			<testContent>test("home", () => {});</testContent>
			<actions><action>rename</action><oldFilename>__tests__/gone.test.ts</oldFilename></actions>
		</proposal></testProposals></tests>`,
	}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	assert.Empty(t, host.Deletes)
	assert.Equal(t, []string{"__tests__/home.test.ts"}, outcome.Committed)
}

func TestTestGenPartialCommitAborts(t *testing.T) {
	host := githosttest.New()
	host.WriteErrors["__tests__/b.test.ts"] = errors.New("branch moved")
	client := &stubLLM{
		ObjectJSON: approveGating,
		TextResponse: `<tests><testProposals>
			<proposal><filename>__tests__/a.test.ts</filename><testContent>a</testContent></proposal>
			<proposal><filename>__tests__/b.test.ts</filename><testContent>b</testContent></proposal>
			<proposal><filename>__tests__/c.test.ts</filename><testContent>c</testContent></proposal>
		</testProposals></tests>`,
	}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err, "the failure is reported through the comment")
	assert.Equal(t, []string{"__tests__/a.test.ts"}, outcome.Committed, "commits before the failure stay")

	require.Len(t, host.Writes, 1, "the loop stops at the first failure")
	assert.Empty(t, host.RemovedLabels, "the label survives a failed run")
	require.Len(t, host.UpdatedComments, 1)
	assert.Equal(t, testgenFailureBody, host.UpdatedComments[0].Body)
}

func TestTestGenUpdateExistingFileUsesPriorSHA(t *testing.T) {
	host := githosttest.New()
	host.Files["__tests__/date.test.ts"] = `test("old", () => {});`
	client := &stubLLM{
		ObjectJSON: approveGating,
		TextResponse: `<tests><testProposals><proposal>
			<filename>__tests__/date.test.ts</filename>
			<testContent>test("new", () => {});</testContent>
			<actions><action>update</action></actions>
		</proposal></testProposals></tests>`,
	}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	_, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	require.Len(t, host.Writes, 1)
	assert.Equal(t, "sha-__tests__/date.test.ts", host.Writes[0].PriorSHA)
}

func TestTestGenNoProposals(t *testing.T) {
	host := githosttest.New()
	client := &stubLLM{ObjectJSON: approveGating, TextResponse: "nothing usable"}
	agent := NewTestGenAgent(host, client, "ready-for-tests", "app/")

	outcome, err := agent.Run(context.Background(), testgenContext())
	require.NoError(t, err)
	assert.Empty(t, outcome.Committed)
	assert.Empty(t, host.Writes)
	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "No test proposals")
	assert.Equal(t, []string{"ready-for-tests"}, host.RemovedLabels)
}

func TestTestGenPlaceholderFailure(t *testing.T) {
	host := githosttest.New()
	host.CreateCommentErr = errors.New("comments disabled")
	agent := NewTestGenAgent(host, &stubLLM{}, "ready-for-tests", "app/")

	_, err := agent.Run(context.Background(), testgenContext())
	assert.Error(t, err)
	assert.Empty(t, host.Writes)
}
