package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/port"
	"github.com/ProdigyRahul/Codojo/internal/ratelimit"
)

// Snapshot loading keeps its own, lower concurrency ceiling: the tree and
// blob endpoints share the same rate-limit bucket as the rest of the API,
// and a recursive crawl is the easiest way to drain it.
const snapshotConcurrency = 2

// Whole-load retry policy: seed 1s, cap 10s, 3 attempts.
const (
	snapshotRetries   = 3
	snapshotRetrySeed = time.Second
	snapshotRetryCap  = 10 * time.Second
)

// Files that never carry meaning for summarization.
var skipFiles = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
	"go.sum": true, "Cargo.lock": true, "Gemfile.lock": true,
	"composer.lock": true, "poetry.lock": true, "Pipfile.lock": true,
	"bun.lockb": true,
}

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "__pycache__": true,
	"dist": true, "build": true, "target": true, ".next": true,
}

var skipExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".webp": true, ".woff": true, ".woff2": true, ".ttf": true,
	".zip": true, ".gz": true, ".jar": true, ".exe": true, ".so": true,
	".dll": true, ".wasm": true, ".pdf": true, ".lock": true, ".map": true,
}

// LoadSnapshot materializes the full file tree of a branch as (path, content)
// pairs. The whole load is retried with backoff when GitHub rate-limits it;
// once the budget is spent the error recommends supplying an access token.
func (c *Client) LoadSnapshot(ctx context.Context, repoURL, branch, token string) ([]domain.SnapshotFile, error) {
	return c.loadSnapshotWithRetry(ctx, repoURL, branch, token, snapshotRetrySeed)
}

func (c *Client) loadSnapshotWithRetry(ctx context.Context, repoURL, branch, token string, seed time.Duration) ([]domain.SnapshotFile, error) {
	if token == "" {
		token = c.token
	}

	var files []domain.SnapshotFile
	retrier := ratelimit.NewRetrier(snapshotRetries, seed, snapshotRetryCap)
	err := retrier.Do(ctx, func() error {
		var loadErr error
		files, loadErr = c.loadSnapshotOnce(ctx, repoURL, branch, token)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, port.ErrRateLimited) {
			return nil, fmt.Errorf("github rate limit exceeded while loading %s; provide an access token to raise the limit: %w", repoURL, err)
		}
		return nil, err
	}
	return files, nil
}

// loadSnapshotOnce lists the branch tree recursively and fetches every
// non-excluded blob, capped at snapshotConcurrency parallel fetches.
// Results are placed by index so the snapshot keeps tree order regardless
// of fetch completion order.
func (c *Client) loadSnapshotOnce(ctx context.Context, repoURL, branch, token string) ([]domain.SnapshotFile, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	loader := *c
	loader.token = token

	treeURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int    `json:"size"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := loader.getJSON(ctx, treeURL, "", &tree); err != nil {
		return nil, fmt.Errorf("list tree %s/%s@%s: %w", owner, repo, branch, err)
	}

	var paths []string
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || excluded(entry.Path) {
			continue
		}
		paths = append(paths, entry.Path)
	}

	files := make([]domain.SnapshotFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			rawURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
				c.baseURL, url.PathEscape(owner), url.PathEscape(repo), escapePath(p), url.QueryEscape(branch))
			content, err := loader.get(gctx, rawURL, "application/vnd.github.raw+json")
			if err != nil {
				return fmt.Errorf("fetch %s: %w", p, err)
			}
			files[i] = domain.SnapshotFile{Path: p, Content: string(content)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// excluded reports whether a repo path matches the fixed exclusion set.
func excluded(p string) bool {
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if skipDirs[seg] {
			return true
		}
	}
	if skipFiles[path.Base(p)] {
		return true
	}
	return skipExts[strings.ToLower(path.Ext(p))]
}

// escapePath escapes each segment of a repo path without touching slashes.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
