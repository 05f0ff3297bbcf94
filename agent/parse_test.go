package agent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/prpilot/prpilot/model"
)

func TestParseReviewFullResponse(t *testing.T) {
	response := `Here is my review of the change.

<review>
  <summary>Solid refactor with one risky spot.</summary>
  <fileAnalyses>
    <file>
      <path>app/utils/date.ts</path>
      <analysis>The new parser drops the timezone offset.</analysis>
    </file>
    <file>
      <path>app/page.tsx</path>
      <analysis>Looks good.</analysis>
    </file>
  </fileAnalyses>
  <overallSuggestions>
    <suggestion>Add a regression test for DST boundaries.</suggestion>
    <suggestion>Consider extracting the formatter.</suggestion>
  </overallSuggestions>
</review>

Let me know if you need anything else.`

	got := ParseReview(response)
	want := model.Review{
		Summary: "Solid refactor with one risky spot.",
		FileAnalyses: []model.FileAnalysis{
			{Path: "app/utils/date.ts", Analysis: "The new parser drops the timezone offset."},
			{Path: "app/page.tsx", Analysis: "Looks good."},
		},
		Suggestions: []string{
			"Add a regression test for DST boundaries.",
			"Consider extracting the formatter.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("review mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReviewMissingBlock(t *testing.T) {
	got := ParseReview("I could not produce a review this time, sorry.")
	assert.Equal(t, noReviewSummary, got.Summary)
	assert.Empty(t, got.FileAnalyses)
	assert.Empty(t, got.Suggestions)
}

func TestParseReviewPartialBlock(t *testing.T) {
	// No fileAnalyses, empty suggestions, summary only.
	got := ParseReview(`<review><summary>Fine.</summary><overallSuggestions><suggestion>  </suggestion></overallSuggestions></review>`)
	assert.Equal(t, "Fine.", got.Summary)
	assert.Empty(t, got.FileAnalyses)
	assert.Empty(t, got.Suggestions, "blank suggestions are dropped")
}

func TestParseReviewUnescapedContent(t *testing.T) {
	// Code in element bodies must not break the parse.
	got := ParseReview(`<review><summary>Uses a < b comparison & "quotes".</summary></review>`)
	assert.Equal(t, `Uses a < b comparison & "quotes".`, got.Summary)
}

func TestParseTestProposals(t *testing.T) {
	response := `<tests>
  <testProposals>
    <proposal>
      <filename>__tests__/unit/date.test.ts</filename>
      <testType>unit</testType>
      <testContent>import { parse } from "../app/utils/date";
test("parses", () => { expect(parse("2024-01-01")).toBeTruthy(); });</testContent>
      <actions>
        <action>create</action>
      </actions>
    </proposal>
    <proposal>
      <filename>__tests__/e2e/home.test.ts</filename>
      <testType>e2e</testType>
      <testContent>test("loads", async () => {});</testContent>
      <actions>
        <action>rename</action>
        <oldFilename>__tests__/e2e/index.test.ts</oldFilename>
      </actions>
    </proposal>
  </testProposals>
</tests>`

	got := ParseTestProposals(response)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "__tests__/unit/date.test.ts", got[0].Filename)
		assert.Equal(t, model.TestTypeUnit, got[0].TestType)
		assert.Equal(t, model.ActionCreate, got[0].Action)
		assert.Contains(t, got[0].TestContent, `import { parse }`)

		assert.Equal(t, model.TestTypeE2E, got[1].TestType)
		assert.Equal(t, model.ActionRename, got[1].Action)
		assert.Equal(t, "__tests__/e2e/index.test.ts", got[1].OldFilename)
	}
}

func TestParseTestProposalsDefaultsAndSkips(t *testing.T) {
	response := `<tests><testProposals>
    <proposal>
      <filename>__tests__/ok.test.ts</filename>
      <testType>integration</testType>
      <testContent>test("x", () => {});</testContent>
      <actions><action>replace</action></actions>
    </proposal>
    <proposal>
      <filename></filename>
      <testContent>test("y", () => {});</testContent>
    </proposal>
    <proposal>
      <filename>__tests__/empty.test.ts</filename>
      <testContent>   </testContent>
    </proposal>
  </testProposals></tests>`

	got := ParseTestProposals(response)
	if assert.Len(t, got, 1, "proposals without filename or content are dropped") {
		assert.Equal(t, model.TestTypeUnit, got[0].TestType, "unknown test type defaults to unit")
		assert.Equal(t, model.ActionCreate, got[0].Action, "unknown action defaults to create")
	}
}

func TestParseTestProposalsRenameRequiresDistinctOldFilename(t *testing.T) {
	response := `<tests><testProposals>
    <proposal>
      <filename>a.test.ts</filename>
      <testContent>x</testContent>
      <actions><action>rename</action></actions>
    </proposal>
    <proposal>
      <filename>b.test.ts</filename>
      <testContent>x</testContent>
      <actions><action>rename</action><oldFilename>b.test.ts</oldFilename></actions>
    </proposal>
  </testProposals></tests>`

	got := ParseTestProposals(response)
	if assert.Len(t, got, 2) {
		assert.Equal(t, model.ActionCreate, got[0].Action, "rename without oldFilename downgrades to create")
		assert.Equal(t, model.ActionCreate, got[1].Action, "rename onto itself downgrades to create")
		assert.Empty(t, got[1].OldFilename)
	}
}

func TestParseTestProposalsMissingBlock(t *testing.T) {
	assert.Empty(t, ParseTestProposals("no tests today"))
	assert.Empty(t, ParseTestProposals("<tests>nothing inside</tests>"))
}

func TestExtractTagUnterminated(t *testing.T) {
	_, ok := extractTag("<summary>never closed", "summary")
	assert.False(t, ok)
}
