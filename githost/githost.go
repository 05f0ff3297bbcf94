// Package githost defines the repository-host capability consumed by the
// pipeline. Agents and the context builder talk only to this interface;
// the concrete GitHub client lives in the github subpackage and an
// in-memory fake for tests lives in githosttest.
package githost

import (
	"context"
	"errors"

	"github.com/prpilot/prpilot/model"
)

// ErrNotFound is returned when a path, label, or directory does not exist
// on the host. Callers treat it as benign in the contexts the pipeline
// expects absence (missing test root, already-removed label, rename of an
// already-deleted file).
var ErrNotFound = errors.New("githost: not found")

// DirEntryType distinguishes files from directories in a listing.
type DirEntryType string

const (
	EntryFile DirEntryType = "file"
	EntryDir  DirEntryType = "dir"
)

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Path string
	Type DirEntryType
}

// Host is the capability surface the pipeline needs from a repository
// host. All mutations of PR state (comments, files, labels) go through
// here; nothing else in the pipeline writes host state.
type Host interface {
	// ListChangedFiles returns the files touched by a pull request, in
	// host-reported order. Content is not populated.
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFile, error)

	// ListCommitMessages returns the PR's commit messages in commit order.
	ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error)

	// GetFileContent returns the decoded content of a file at a ref.
	// Returns ErrNotFound if the path does not exist at that ref.
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)

	// GetContentSHA returns the blob SHA of a file at a ref, used to
	// decide create vs update and to authorize deletes. Returns
	// ErrNotFound if the path does not exist.
	GetContentSHA(ctx context.Context, owner, repo, path, ref string) (string, error)

	// CreateOrUpdateFile writes content to a path on a branch. priorSHA
	// must be the current blob SHA for updates and empty for creates.
	CreateOrUpdateFile(ctx context.Context, owner, repo, path, branch, message, content, priorSHA string) error

	// DeleteFile removes a file from a branch. sha must be the file's
	// current blob SHA.
	DeleteFile(ctx context.Context, owner, repo, path, branch, message, sha string) error

	// CreateComment posts an issue comment on a PR and returns its ID.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)

	// UpdateComment replaces the body of an existing comment.
	UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) error

	// RemoveLabel removes a label from an issue/PR. Removing an absent
	// label is not an error.
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error

	// ListDirectory lists one directory level at a ref. Returns
	// ErrNotFound if the directory does not exist.
	ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]DirEntry, error)
}
