package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/metrics"
	"github.com/ProdigyRahul/Codojo/internal/port"
	"github.com/ProdigyRahul/Codojo/internal/ratelimit"
)

// failedSummary is the sentinel persisted when fetch-or-summarize fails for
// a single commit. One bad commit never aborts its siblings.
const failedSummary = "Error generating summary"

// CommitService ingests recent commits for a project: list, filter out
// already-processed hashes, fetch + summarize each diff, persist.
type CommitService struct {
	projects port.ProjectStore
	commits  port.CommitStore
	repo     port.RepoProvider
	ai       port.AIProvider
	retrier  *ratelimit.Retrier
	limiter  *ratelimit.Limiter

	commitLimit int
	batchSize   int
	batchPause  time.Duration
}

// NewCommitService creates a commit ingestion service.
func NewCommitService(projects port.ProjectStore, commits port.CommitStore, repo port.RepoProvider, ai port.AIProvider, retrier *ratelimit.Retrier, limiter *ratelimit.Limiter) *CommitService {
	return &CommitService{
		projects:    projects,
		commits:     commits,
		repo:        repo,
		ai:          ai,
		retrier:     retrier,
		limiter:     limiter,
		commitLimit: 10,
		batchSize:   3,
		batchPause:  500 * time.Millisecond,
	}
}

// IngestCommits runs one ingestion pass for a project and returns the
// records it persisted. Running it again with no new upstream commits
// persists nothing: already-seen hashes are filtered before any remote
// fetch, and the (project_id, commit_hash) uniqueness backs that up.
func (s *CommitService) IngestCommits(ctx context.Context, projectID string) ([]domain.CommitRecord, error) {
	began := time.Now()

	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var commits []domain.CommitInfo
	if err := s.retrier.Do(ctx, func() error {
		var listErr error
		commits, listErr = s.repo.ListRecentCommits(ctx, project.GithubURL, s.commitLimit)
		return listErr
	}); err != nil {
		return nil, fmt.Errorf("list recent commits: %w", err)
	}

	// Newest first; ties keep the provider's original order.
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date.After(commits[j].Date)
	})

	seen, err := s.commits.ListCommitHashes(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list processed hashes: %w", err)
	}
	seenSet := make(map[string]bool, len(seen))
	for _, h := range seen {
		seenSet[h] = true
	}

	unprocessed := make([]domain.CommitInfo, 0, len(commits))
	for _, c := range commits {
		if !seenSet[c.Hash] {
			unprocessed = append(unprocessed, c)
		}
	}
	metrics.RecordCommitsSkipped(len(commits) - len(unprocessed))

	if len(unprocessed) == 0 {
		slog.Info("no new commits", "project_id", projectID)
		return nil, nil
	}

	// Fan out diff-fetch + summarize through the shared limiter. Each
	// result lands at its submission index, never by arrival order.
	summaries := make([]string, len(unprocessed))
	var wg sync.WaitGroup
	for i, commit := range unprocessed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.limiter.Do(ctx, func() error {
				summaries[i] = s.summarizeCommit(ctx, project.GithubURL, commit.Hash)
				return nil
			}); err != nil {
				summaries[i] = failedSummary
			}
		}()
	}
	wg.Wait()

	// Persist in small sequential batches with a pause between them, so a
	// burst of inserts cannot exhaust the connection pool.
	var persisted []domain.CommitRecord
	for lo := 0; lo < len(unprocessed); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(unprocessed))
		for i := lo; i < hi; i++ {
			c := unprocessed[i]
			rec, err := s.commits.InsertCommit(ctx, &domain.CommitRecord{
				ProjectID:    projectID,
				CommitHash:   c.Hash,
				Message:      c.Message,
				AuthorName:   c.AuthorName,
				AuthorAvatar: c.AuthorAvatarURL,
				CommitDate:   c.Date,
				Summary:      summaries[i],
			})
			if err != nil {
				slog.Warn("persist commit failed, skipping", "project_id", projectID, "hash", c.Hash, "error", err)
				continue
			}
			if rec == nil {
				// Raced with a concurrent run; the hash is already there.
				continue
			}
			persisted = append(persisted, *rec)
		}
		if hi < len(unprocessed) && s.batchPause > 0 {
			select {
			case <-ctx.Done():
				return persisted, ctx.Err()
			case <-time.After(s.batchPause):
			}
		}
	}

	metrics.RecordCommitsIngested(len(persisted))
	metrics.RecordCommitIngestionDuration(time.Since(began))
	slog.Info("commit ingestion complete",
		"project_id", projectID,
		"persisted", len(persisted),
		"already_seen", len(commits)-len(unprocessed),
	)
	return persisted, nil
}

// summarizeCommit fetches one commit's diff (with backoff on rate limits)
// and asks the model for a summary. Failures collapse to the sentinel.
func (s *CommitService) summarizeCommit(ctx context.Context, repoURL, hash string) string {
	var diff string
	if err := s.retrier.Do(ctx, func() error {
		var fetchErr error
		diff, fetchErr = s.repo.FetchCommitDiff(ctx, repoURL, hash)
		return fetchErr
	}); err != nil {
		slog.Error("fetch diff failed", "hash", hash, "error", err)
		metrics.RecordSummaryFailed()
		return failedSummary
	}

	summary, err := s.ai.Complete(ctx, diffSummarySystemPrompt, diffSummaryUserPrompt(diff))
	if err != nil || strings.TrimSpace(summary) == "" {
		slog.Error("summarize diff failed", "hash", hash, "error", err)
		metrics.RecordSummaryFailed()
		return failedSummary
	}
	return summary
}
