// End-to-end tests for the PRPilot server stack.
//
// These exercise the full stack: real HTTP router (chi), real context
// builder, real agents and prompt/parse pipeline. Only the git host and
// the LLM backend are faked. Does NOT require API keys or network
// access.
package prpilot_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prpilot "github.com/prpilot/prpilot"
	"github.com/prpilot/prpilot/githost/githosttest"
	"github.com/prpilot/prpilot/internal/config"
	"github.com/prpilot/prpilot/model"
)

// fakeLLM returns canned responses for both call shapes.
type fakeLLM struct {
	text   string
	object string
}

func (f *fakeLLM) GenerateText(context.Context, string) (string, error) {
	return f.text, nil
}

func (f *fakeLLM) GenerateObject(_ context.Context, _ string, out any) error {
	return json.Unmarshal([]byte(f.object), out)
}

func testConfig() *config.Config {
	return &config.Config{
		Addr:            ":0",
		GitHubToken:     "ghp_test",
		AnthropicAPIKey: "sk-test",
		BotLogin:        "prpilot[bot]",
		ReviewLabel:     "ready-for-review",
		TestGenLabel:    "ready-for-tests",
		TestRoot:        "__tests__",
		UIPageRoot:      "app/",
		MaxFileChars:    32000,
	}
}

func buildApp(t *testing.T, host *githosttest.FakeHost, llm *fakeLLM) http.Handler {
	t.Helper()
	app, err := prpilot.NewBuilder().
		WithConfig(testConfig()).
		WithHost(host).
		WithLLM(llm).
		Build()
	require.NoError(t, err)
	return app.Handler()
}

const labelPayload = `{
	"action": "labeled",
	"number": 7,
	"label": {"name": "ready-for-tests"},
	"sender": {"login": "octocat"},
	"pull_request": {
		"title": "Add signup form",
		"head": {"ref": "feature/signup"},
		"base": {"ref": "main"}
	},
	"repository": {"name": "web", "owner": {"login": "acme"}}
}`

func TestEndToEndTestGeneration(t *testing.T) {
	host := githosttest.New()
	host.ChangedFiles = []model.ChangedFile{
		{Filename: "app/signup/page.tsx", Status: model.StatusAdded},
	}
	host.Files["app/signup/page.tsx"] = `import React from "react"; export default function Signup() { return null; }`
	host.Files["__tests__/smoke.test.ts"] = `test("smoke", () => {});`
	host.Commits = []string{"add signup page"}

	llm := &fakeLLM{
		object: `{"shouldGenerateTests": true, "reasoning": "new page", "recommendation": "render test"}`,
		text: `<tests><testProposals><proposal>
			<filename>__tests__/signup.test.ts</filename>
			<testContent>test("renders", () => {});</testContent>
			<actions><action>create</action></actions>
		</proposal></testProposals></tests>`,
	}
	handler := buildApp(t, host, llm)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/github", strings.NewReader(labelPayload))
	req.Header.Set("X-GitHub-Event", "pull_request")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"OK"}`, rec.Body.String())

	require.Len(t, host.Writes, 1)
	assert.Equal(t, "__tests__/signup.test.tsx", host.Writes[0].Path, "UI page change finalizes to .test.tsx")
	assert.Equal(t, "feature/signup", host.Writes[0].Branch)
	assert.Equal(t, []string{"ready-for-tests"}, host.RemovedLabels)

	require.Len(t, host.CreatedComments, 1)
	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "__tests__/signup.test.tsx")
}

func TestEndToEndReviewOnOpen(t *testing.T) {
	host := githosttest.New()
	host.ChangedFiles = []model.ChangedFile{
		{Filename: "lib/validate.ts", Status: model.StatusModified, Patch: "@@ -1 +1 @@"},
	}
	host.Files["lib/validate.ts"] = "export const ok = () => true;"

	llm := &fakeLLM{text: `<review><summary>Straightforward change.</summary></review>`}
	handler := buildApp(t, host, llm)

	payload := strings.Replace(labelPayload, `"labeled"`, `"opened"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/github", strings.NewReader(payload))
	req.Header.Set("X-GitHub-Event", "pull_request")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, host.Writes, "opening a PR only reviews")
	require.Len(t, host.UpdatedComments, 1)
	assert.Contains(t, host.UpdatedComments[0].Body, "Straightforward change.")
	assert.Equal(t, []string{"ready-for-review"}, host.RemovedLabels)
}
