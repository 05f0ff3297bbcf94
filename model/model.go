// Package model defines the core domain types shared across all prpilot
// packages. It has zero dependencies on other prpilot packages.
package model

// FileStatus is the change status of a file as reported by the host.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusRemoved  FileStatus = "removed"
	StatusRenamed  FileStatus = "renamed"
)

// ChangedFile is a single file touched by a pull request.
type ChangedFile struct {
	// Filename is the repository-relative path, unique within one context.
	Filename string `json:"filename"`

	// Patch is the textual diff. Empty for binary or rename-only changes.
	Patch string `json:"patch,omitempty"`

	// Status is the host-reported change status.
	Status FileStatus `json:"status"`

	Additions int `json:"additions"`
	Deletions int `json:"deletions"`

	// Content is the full file text at the head ref. Empty when the file
	// was removed, denylisted, oversized, or failed to fetch.
	Content string `json:"content,omitempty"`

	// Excluded is true whenever Content was intentionally omitted. The
	// prompt builder renders an explicit excluded marker for such files so
	// the model knows a file changed but was not shown.
	Excluded bool `json:"excluded"`
}

// PRContext is a normalized snapshot of a pull request, built once per
// triggering event and immutable afterwards. It lives only for the
// duration of one pipeline run.
type PRContext struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	PullNumber int    `json:"pull_number"`

	// HeadRef and BaseRef are the source and target branch names.
	HeadRef string `json:"head_ref"`
	BaseRef string `json:"base_ref"`

	Title string `json:"title"`

	// ChangedFiles preserves the host-reported order for prompt stability.
	ChangedFiles []ChangedFile `json:"changed_files"`

	// CommitMessages are in commit order.
	CommitMessages []string `json:"commit_messages"`
}

// TestFile is an existing test file collected by the test-root walk.
type TestFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// ExtendedPRContext is a PRContext plus the existing test tree. Used only
// by the test-generation path.
type ExtendedPRContext struct {
	PRContext

	ExistingTestFiles []TestFile `json:"existing_test_files"`
}

// FileAnalysis is the model's review of a single changed file.
type FileAnalysis struct {
	Path     string `json:"path"`
	Analysis string `json:"analysis"`
}

// Review is the structured result parsed from the model's review response.
type Review struct {
	Summary      string         `json:"summary"`
	FileAnalyses []FileAnalysis `json:"file_analyses"`
	Suggestions  []string       `json:"suggestions"`
}

// TestType classifies a generated test.
type TestType string

const (
	TestTypeUnit TestType = "unit"
	TestTypeE2E  TestType = "e2e"
)

// ProposalAction says how a test proposal is applied to the branch.
type ProposalAction string

const (
	ActionCreate ProposalAction = "create"
	ActionUpdate ProposalAction = "update"
	ActionRename ProposalAction = "rename"
)

// TestProposal is a single file the model proposes to write, parsed from
// its generation response and consumed within the same pipeline run.
type TestProposal struct {
	// Filename is the target path. After finalization it always ends in
	// .test.ts or .test.tsx, regardless of what the model emitted.
	Filename string `json:"filename"`

	TestType TestType `json:"test_type"`

	// TestContent is the full file text to write, not a diff.
	TestContent string `json:"test_content"`

	Action ProposalAction `json:"action"`

	// OldFilename is set only for rename actions.
	OldFilename string `json:"old_filename,omitempty"`
}

// Truncate shortens a string to maxLen runes, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		r := []rune(s)
		if len(r) <= maxLen {
			return s
		}
		return string(r[:maxLen])
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
