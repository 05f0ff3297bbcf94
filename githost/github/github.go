// Package github implements the githost.Host capability with the GitHub
// REST API.
package github

import (
	"context"
	"fmt"
	"net/http"

	gogh "github.com/google/go-github/v68/github"

	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/model"
)

// Client wraps the GitHub API for prpilot operations.
type Client struct {
	gh *gogh.Client
}

var _ githost.Host = (*Client)(nil)

// NewClient creates a GitHub client authenticated with the given token.
func NewClient(token string) *Client {
	return &Client{
		gh: gogh.NewClient(nil).WithAuthToken(token),
	}
}

// ListChangedFiles returns the files touched by a pull request, in the
// order GitHub reports them. Content is left empty; the context builder
// fetches it separately.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFile, error) {
	var files []model.ChangedFile
	opts := &gogh.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing changed files: %w", err)
		}
		for _, f := range page {
			files = append(files, model.ChangedFile{
				Filename:  f.GetFilename(),
				Patch:     f.GetPatch(),
				Status:    model.FileStatus(f.GetStatus()),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// ListCommitMessages returns the PR's commit messages in commit order.
func (c *Client) ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var messages []string
	opts := &gogh.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commits: %w", err)
		}
		for _, commit := range page {
			messages = append(messages, commit.GetCommit().GetMessage())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return messages, nil
}

// GetFileContent retrieves a file's decoded content at a ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	opts := &gogh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		if isNotFound(resp) {
			return "", fmt.Errorf("%s@%s: %w", path, ref, githost.ErrNotFound)
		}
		return "", fmt.Errorf("fetching %s@%s: %w", path, ref, err)
	}
	if file == nil {
		// Path exists but is a directory.
		return "", fmt.Errorf("%s@%s is not a file: %w", path, ref, githost.ErrNotFound)
	}

	// GetContent handles base64 decoding internally.
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding content for %s: %w", path, err)
	}
	return content, nil
}

// GetContentSHA returns the blob SHA of a file at a ref.
func (c *Client) GetContentSHA(ctx context.Context, owner, repo, path, ref string) (string, error) {
	opts := &gogh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		if isNotFound(resp) {
			return "", fmt.Errorf("%s@%s: %w", path, ref, githost.ErrNotFound)
		}
		return "", fmt.Errorf("fetching metadata for %s@%s: %w", path, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s@%s is not a file: %w", path, ref, githost.ErrNotFound)
	}
	return file.GetSHA(), nil
}

// CreateOrUpdateFile writes content to a path on a branch. An empty
// priorSHA creates the file; a non-empty one updates the existing blob.
func (c *Client) CreateOrUpdateFile(ctx context.Context, owner, repo, path, branch, message, content, priorSHA string) error {
	opts := &gogh.RepositoryContentFileOptions{
		Message: gogh.Ptr(message),
		Content: []byte(content),
		Branch:  gogh.Ptr(branch),
	}
	if priorSHA == "" {
		if _, _, err := c.gh.Repositories.CreateFile(ctx, owner, repo, path, opts); err != nil {
			return fmt.Errorf("creating %s on %s: %w", path, branch, err)
		}
		return nil
	}
	opts.SHA = gogh.Ptr(priorSHA)
	if _, _, err := c.gh.Repositories.UpdateFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("updating %s on %s: %w", path, branch, err)
	}
	return nil
}

// DeleteFile removes a file from a branch.
func (c *Client) DeleteFile(ctx context.Context, owner, repo, path, branch, message, sha string) error {
	opts := &gogh.RepositoryContentFileOptions{
		Message: gogh.Ptr(message),
		Branch:  gogh.Ptr(branch),
		SHA:     gogh.Ptr(sha),
	}
	if _, _, err := c.gh.Repositories.DeleteFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("deleting %s on %s: %w", path, branch, err)
	}
	return nil
}

// CreateComment posts an issue comment on a PR and returns its ID.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gogh.IssueComment{
		Body: gogh.Ptr(body),
	})
	if err != nil {
		return 0, fmt.Errorf("creating comment on #%d: %w", number, err)
	}
	return comment.GetID(), nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID, &gogh.IssueComment{
		Body: gogh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("updating comment %d: %w", commentID, err)
	}
	return nil
}

// RemoveLabel removes a label from an issue/PR. A 404 (label already
// absent) is swallowed so removal is idempotent.
func (c *Client) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	resp, err := c.gh.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)
	if err != nil {
		if isNotFound(resp) {
			return nil
		}
		return fmt.Errorf("removing label %q from #%d: %w", label, number, err)
	}
	return nil
}

// ListDirectory lists one directory level at a ref.
func (c *Client) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]githost.DirEntry, error) {
	opts := &gogh.RepositoryContentGetOptions{Ref: ref}
	_, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		if isNotFound(resp) {
			return nil, fmt.Errorf("%s@%s: %w", path, ref, githost.ErrNotFound)
		}
		return nil, fmt.Errorf("listing %s@%s: %w", path, ref, err)
	}
	entries := make([]githost.DirEntry, 0, len(dir))
	for _, e := range dir {
		entryType := githost.EntryFile
		if e.GetType() == "dir" {
			entryType = githost.EntryDir
		}
		entries = append(entries, githost.DirEntry{
			Path: e.GetPath(),
			Type: entryType,
		})
	}
	return entries, nil
}

func isNotFound(resp *gogh.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
