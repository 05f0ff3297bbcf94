package agent

import (
	"fmt"
	"strings"

	"github.com/prpilot/prpilot/model"
)

const excludedContentMarker = "[file content excluded: removed, generated, or too large]"

const reviewInstructions = `You are an expert code reviewer. Review the pull request below and respond with exactly this structure:

<review>
  <summary>A concise summary of the change and its overall quality.</summary>
  <fileAnalyses>
    <file>
      <path>path/to/file</path>
      <analysis>Your analysis of this file's changes.</analysis>
    </file>
  </fileAnalyses>
  <overallSuggestions>
    <suggestion>A concrete, actionable improvement.</suggestion>
  </overallSuggestions>
</review>

Focus on correctness, clarity, and maintainability. Do not include anything outside the <review> block.`

const gatingInstructions = `You decide whether a pull request warrants generating or updating frontend tests. Skip documentation-only changes, configuration tweaks, and changes with no testable behavior. Consider the existing test files when judging coverage.`

const generationInstructions = `You are an expert in writing Jest tests with React Testing Library for TypeScript projects. Unit tests live alongside the existing test files; end-to-end tests cover full page behavior. Prefer updating an existing test file over creating a parallel one, and use the rename action when a test file should move. Respond with exactly this structure:

<tests>
  <testProposals>
    <proposal>
      <filename>path/to/file.test.ts</filename>
      <testType>unit</testType>
      <testContent>The complete contents of the test file.</testContent>
      <actions>
        <action>create</action>
        <oldFilename>path/of/previous/file, only when action is rename</oldFilename>
      </actions>
    </proposal>
  </testProposals>
</tests>

testType must be unit or e2e. action must be create, update, or rename. Do not include anything outside the <tests> block.`

func buildReviewPrompt(prCtx *model.PRContext) string {
	var b strings.Builder
	b.WriteString(reviewInstructions)
	b.WriteString("\n\n")
	writePRContext(&b, prCtx)
	return b.String()
}

func buildGatingPrompt(ext *model.ExtendedPRContext) string {
	var b strings.Builder
	b.WriteString(gatingInstructions)
	b.WriteString("\n\n")
	writePRContext(&b, &ext.PRContext)
	writeExistingTests(&b, ext.ExistingTestFiles)
	return b.String()
}

func buildGenerationPrompt(ext *model.ExtendedPRContext, recommendation string) string {
	var b strings.Builder
	b.WriteString(generationInstructions)
	b.WriteString("\n\n")
	if recommendation = strings.TrimSpace(recommendation); recommendation != "" {
		fmt.Fprintf(&b, "Guidance from the gating step: %s\n\n", recommendation)
	}
	writePRContext(&b, &ext.PRContext)
	writeExistingTests(&b, ext.ExistingTestFiles)
	return b.String()
}

func writePRContext(b *strings.Builder, prCtx *model.PRContext) {
	fmt.Fprintf(b, "Pull request: %s\n", prCtx.Title)
	fmt.Fprintf(b, "Branch: %s -> %s\n\n", prCtx.HeadRef, prCtx.BaseRef)

	if len(prCtx.CommitMessages) > 0 {
		b.WriteString("Commit messages:\n")
		for _, msg := range prCtx.CommitMessages {
			fmt.Fprintf(b, "- %s\n", msg)
		}
		b.WriteString("\n")
	}

	b.WriteString("Changed files:\n")
	for _, f := range prCtx.ChangedFiles {
		fmt.Fprintf(b, "\nFile: %s (%s, +%d/-%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		if f.Patch != "" {
			fmt.Fprintf(b, "Patch:\n%s\n", f.Patch)
		}
		if f.Excluded {
			fmt.Fprintf(b, "Content: %s\n", excludedContentMarker)
		} else if f.Content != "" {
			fmt.Fprintf(b, "Content:\n%s\n", f.Content)
		}
	}
}

func writeExistingTests(b *strings.Builder, tests []model.TestFile) {
	if len(tests) == 0 {
		b.WriteString("\nThere are no existing test files.\n")
		return
	}
	b.WriteString("\nExisting test files:\n")
	for _, t := range tests {
		fmt.Fprintf(b, "\nFile: %s\n%s\n", t.Filename, t.Content)
	}
}
