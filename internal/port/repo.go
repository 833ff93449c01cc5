package port

import (
	"context"

	"github.com/ProdigyRahul/Codojo/internal/domain"
)

// RepoProvider abstracts the remote repository host (GitHub).
// Errors are classified with the sentinels in errors.go: rate limiting maps
// to ErrRateLimited, missing repos/commits to ErrNotFound, bad credentials
// to ErrAuthFailed.
type RepoProvider interface {
	// ListRecentCommits returns up to limit of the newest commits on the
	// repository's default branch.
	ListRecentCommits(ctx context.Context, repoURL string, limit int) ([]domain.CommitInfo, error)

	// FetchCommitDiff returns the unified diff text for one commit.
	FetchCommitDiff(ctx context.Context, repoURL, hash string) (string, error)

	// LoadSnapshot materializes the full file tree of a branch, excluding
	// lockfiles, VCS metadata and build output. The returned slice is
	// complete before it is handed back; nothing is lazy.
	LoadSnapshot(ctx context.Context, repoURL, branch, token string) ([]domain.SnapshotFile, error)
}
