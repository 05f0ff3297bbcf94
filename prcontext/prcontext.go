// Package prcontext builds the normalized pull-request snapshot the agents
// feed into their prompts: repository coordinates, title, commit messages,
// and the changed files with size-bounded content. The extended variant
// additionally collects the existing test tree.
package prcontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/prpilot/prpilot/githost"
	"github.com/prpilot/prpilot/model"
)

// ErrMalformedPayload indicates the webhook body is missing required
// pull-request fields. The dispatcher converts it to an error response.
var ErrMalformedPayload = errors.New("prcontext: malformed webhook payload")

// DefaultMaxFileChars is the content size threshold. Files longer than
// this are marked excluded instead of being embedded in the prompt.
const DefaultMaxFileChars = 32000

// DefaultTestRoot is the conventional directory walked for existing tests.
const DefaultTestRoot = "__tests__"

// lockfileNames are generated files whose content is never useful model
// context.
var lockfileNames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
}

// Options configures a Builder. Zero values fall back to the defaults.
type Options struct {
	MaxFileChars int
	TestRoot     string
}

// Builder constructs PR contexts from webhook payloads, reading through
// the host capability.
type Builder struct {
	host githost.Host
	opts Options
}

// NewBuilder creates a Builder. Zero option fields are defaulted.
func NewBuilder(host githost.Host, opts Options) *Builder {
	if opts.MaxFileChars <= 0 {
		opts.MaxFileChars = DefaultMaxFileChars
	}
	if opts.TestRoot == "" {
		opts.TestRoot = DefaultTestRoot
	}
	return &Builder{host: host, opts: opts}
}

// Build extracts the PR coordinates from the raw webhook payload and
// assembles a PRContext: changed files (content fetched concurrently,
// size-bounded, lockfiles and removed files excluded) and commit messages.
func (b *Builder) Build(ctx context.Context, payload []byte) (*model.PRContext, error) {
	prCtx, err := parsePayload(payload)
	if err != nil {
		return nil, err
	}

	files, err := b.host.ListChangedFiles(ctx, prCtx.Owner, prCtx.Repo, prCtx.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}

	// Fetch content for every eligible file concurrently. Fetch failures
	// are soft: the file stays in the context, marked excluded, so the
	// prompt still names it.
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		g.Go(func() error {
			f := &files[i]
			if f.Status == model.StatusRemoved || isLockfile(f.Filename) {
				f.Excluded = true
				return nil
			}
			content, err := b.host.GetFileContent(gctx, prCtx.Owner, prCtx.Repo, f.Filename, prCtx.HeadRef)
			if err != nil {
				log.Warn().Err(err).Str("file", f.Filename).Msg("excluding changed file: content fetch failed")
				f.Excluded = true
				return nil
			}
			// MaxFileChars bounds characters, not bytes, so multibyte
			// content is not penalized.
			if utf8.RuneCountInString(content) > b.opts.MaxFileChars {
				f.Excluded = true
				return nil
			}
			f.Content = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	messages, err := b.host.ListCommitMessages(ctx, prCtx.Owner, prCtx.Repo, prCtx.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}

	prCtx.ChangedFiles = files
	prCtx.CommitMessages = messages
	return prCtx, nil
}

// BuildExtended is Build plus a recursive walk of the test root. A missing
// root yields an empty test list; any other error during the walk logs and
// skips that subtree, so collection is best-effort rather than
// all-or-nothing.
func (b *Builder) BuildExtended(ctx context.Context, payload []byte) (*model.ExtendedPRContext, error) {
	prCtx, err := b.Build(ctx, payload)
	if err != nil {
		return nil, err
	}

	ext := &model.ExtendedPRContext{PRContext: *prCtx}
	ext.ExistingTestFiles = b.collectTestFiles(ctx, prCtx.Owner, prCtx.Repo, b.opts.TestRoot, prCtx.HeadRef)
	return ext, nil
}

// collectTestFiles walks dir recursively, loading every file it can reach.
// Existing test files are loaded whole; test trees are typically small
// enough that no size guard is applied here.
func (b *Builder) collectTestFiles(ctx context.Context, owner, repo, dir, ref string) []model.TestFile {
	entries, err := b.host.ListDirectory(ctx, owner, repo, dir, ref)
	if err != nil {
		if !errors.Is(err, githost.ErrNotFound) {
			log.Warn().Err(err).Str("dir", dir).Msg("skipping test subtree: listing failed")
		}
		return nil
	}

	var files []model.TestFile
	for _, entry := range entries {
		switch entry.Type {
		case githost.EntryDir:
			files = append(files, b.collectTestFiles(ctx, owner, repo, entry.Path, ref)...)
		case githost.EntryFile:
			content, err := b.host.GetFileContent(ctx, owner, repo, entry.Path, ref)
			if err != nil {
				log.Warn().Err(err).Str("file", entry.Path).Msg("skipping test file: content fetch failed")
				continue
			}
			files = append(files, model.TestFile{Filename: entry.Path, Content: content})
		}
	}
	return files
}

// parsePayload pulls the PR coordinates out of the raw webhook body.
func parsePayload(payload []byte) (*model.PRContext, error) {
	var body struct {
		Number      int `json:"number"`
		PullRequest struct {
			Title string `json:"title"`
			Head  struct {
				Ref string `json:"ref"`
			} `json:"head"`
			Base struct {
				Ref string `json:"ref"`
			} `json:"base"`
		} `json:"pull_request"`
		Repository struct {
			Name  string `json:"name"`
			Owner struct {
				Login string `json:"login"`
			} `json:"owner"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if body.Repository.Owner.Login == "" || body.Repository.Name == "" || body.Number == 0 {
		return nil, fmt.Errorf("%w: missing repository coordinates or PR number", ErrMalformedPayload)
	}
	if body.PullRequest.Head.Ref == "" || body.PullRequest.Base.Ref == "" {
		return nil, fmt.Errorf("%w: missing head or base ref", ErrMalformedPayload)
	}

	return &model.PRContext{
		Owner:      body.Repository.Owner.Login,
		Repo:       body.Repository.Name,
		PullNumber: body.Number,
		HeadRef:    body.PullRequest.Head.Ref,
		BaseRef:    body.PullRequest.Base.Ref,
		Title:      body.PullRequest.Title,
	}, nil
}

func isLockfile(path string) bool {
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	return lockfileNames[base] || strings.HasSuffix(base, ".lock")
}
