// Package githosttest provides an in-memory githost.Host fake with call
// recording, shared by the pipeline's package tests.
package githosttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/model"
)

// FileWrite records one CreateOrUpdateFile call.
type FileWrite struct {
	Path     string
	Branch   string
	Message  string
	Content  string
	PriorSHA string
}

// FileDelete records one DeleteFile call.
type FileDelete struct {
	Path   string
	Branch string
	SHA    string
}

// CommentUpdate records one UpdateComment call.
type CommentUpdate struct {
	ID   int64
	Body string
}

// FakeHost is an in-memory githost.Host. Seed Files, ChangedFiles, and
// Commits before use; inspect the recorded call slices afterwards. All
// methods are safe for concurrent use.
type FakeHost struct {
	mu sync.Mutex

	// Files maps repository-relative paths to content at any ref.
	Files map[string]string

	// ChangedFiles and Commits seed the PR listing calls.
	ChangedFiles []model.ChangedFile
	Commits      []string

	// ContentErrors injects an error for specific paths on content and
	// SHA reads.
	ContentErrors map[string]error

	// ListDirErrors injects an error for specific paths on ListDirectory.
	ListDirErrors map[string]error

	// WriteErrors injects an error for specific paths on
	// CreateOrUpdateFile.
	WriteErrors map[string]error

	// CreateCommentErr fails CreateComment when set.
	CreateCommentErr error

	// RemoveLabelErr fails RemoveLabel when set.
	RemoveLabelErr error

	nextCommentID int64

	// Recorded calls.
	CreatedComments []string
	UpdatedComments []CommentUpdate
	RemovedLabels   []string
	Writes          []FileWrite
	Deletes         []FileDelete

	// Ops is a chronological log of mutating content calls, entries like
	// "delete:old.test.ts" and "write:new.test.ts". Used to assert
	// ordering (rename must delete before it writes).
	Ops []string
}

var _ githost.Host = (*FakeHost)(nil)

// New returns an empty FakeHost ready for seeding.
func New() *FakeHost {
	return &FakeHost{
		Files:         map[string]string{},
		ContentErrors: map[string]error{},
		ListDirErrors: map[string]error{},
		WriteErrors:   map[string]error{},
	}
}

func (f *FakeHost) ListChangedFiles(_ context.Context, _, _ string, _ int) ([]model.ChangedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ChangedFile, len(f.ChangedFiles))
	copy(out, f.ChangedFiles)
	return out, nil
}

func (f *FakeHost) ListCommitMessages(_ context.Context, _, _ string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Commits))
	copy(out, f.Commits)
	return out, nil
}

func (f *FakeHost) GetFileContent(_ context.Context, _, _, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ContentErrors[path]; ok {
		return "", err
	}
	content, ok := f.Files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, githost.ErrNotFound)
	}
	return content, nil
}

func (f *FakeHost) GetContentSHA(_ context.Context, _, _, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ContentErrors[path]; ok {
		return "", err
	}
	if _, ok := f.Files[path]; !ok {
		return "", fmt.Errorf("%s: %w", path, githost.ErrNotFound)
	}
	return "sha-" + path, nil
}

func (f *FakeHost) CreateOrUpdateFile(_ context.Context, _, _, path, branch, message, content, priorSHA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.WriteErrors[path]; ok {
		return err
	}
	f.Writes = append(f.Writes, FileWrite{
		Path:     path,
		Branch:   branch,
		Message:  message,
		Content:  content,
		PriorSHA: priorSHA,
	})
	f.Ops = append(f.Ops, "write:"+path)
	f.Files[path] = content
	return nil
}

func (f *FakeHost) DeleteFile(_ context.Context, _, _, path, branch, _, sha string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, FileDelete{Path: path, Branch: branch, SHA: sha})
	f.Ops = append(f.Ops, "delete:"+path)
	delete(f.Files, path)
	return nil
}

func (f *FakeHost) CreateComment(_ context.Context, _, _ string, _ int, body string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateCommentErr != nil {
		return 0, f.CreateCommentErr
	}
	f.nextCommentID++
	f.CreatedComments = append(f.CreatedComments, body)
	return f.nextCommentID, nil
}

func (f *FakeHost) UpdateComment(_ context.Context, _, _ string, commentID int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdatedComments = append(f.UpdatedComments, CommentUpdate{ID: commentID, Body: body})
	return nil
}

func (f *FakeHost) RemoveLabel(_ context.Context, _, _ string, _ int, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RemoveLabelErr != nil {
		return f.RemoveLabelErr
	}
	f.RemovedLabels = append(f.RemovedLabels, label)
	return nil
}

// ListDirectory derives a single directory level from the seeded Files.
// A path with no files beneath it returns ErrNotFound, like the real host.
func (f *FakeHost) ListDirectory(_ context.Context, _, _, path, _ string) ([]githost.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ListDirErrors[path]; ok {
		return nil, err
	}

	prefix := strings.TrimSuffix(path, "/") + "/"
	seen := map[string]githost.DirEntry{}
	for file := range f.Files {
		if !strings.HasPrefix(file, prefix) {
			continue
		}
		rest := strings.TrimPrefix(file, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := prefix + rest[:idx]
			seen[dir] = githost.DirEntry{Path: dir, Type: githost.EntryDir}
		} else {
			seen[file] = githost.DirEntry{Path: file, Type: githost.EntryFile}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%s: %w", path, githost.ErrNotFound)
	}

	entries := make([]githost.DirEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
