package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/metrics"
	"github.com/ProdigyRahul/Codojo/internal/port"
	"github.com/ProdigyRahul/Codojo/internal/ratelimit"
)

// maxSummaryInput caps the characters fed to summarization. Embeddings are
// computed on the summary, so the cap only limits summary fidelity for very
// large files, not what gets stored. The full source is persisted.
const maxSummaryInput = 10000

// IndexReport counts what one indexing run did.
type IndexReport struct {
	Files    int `json:"files"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
}

// IndexService materializes a repository snapshot and embeds every file:
// summarize, embed the summary, persist. File failures are isolated: a
// file that cannot be summarized or embedded is skipped, never fatal.
type IndexService struct {
	repo       port.RepoProvider
	ai         port.AIProvider
	embeddings port.EmbeddingStore
	limiter    *ratelimit.Limiter
}

// NewIndexService creates a repository indexing service.
func NewIndexService(repo port.RepoProvider, ai port.AIProvider, embeddings port.EmbeddingStore, limiter *ratelimit.Limiter) *IndexService {
	return &IndexService{
		repo:       repo,
		ai:         ai,
		embeddings: embeddings,
		limiter:    limiter,
	}
}

// IndexRepository loads the full snapshot of githubURL and embeds each file
// independently, bounded by the shared limiter. The snapshot load failing is
// a hard error; individual file failures only show up in the report.
// progress, when non-nil, is called with the running counts after every
// settled file; calls are serialized.
func (s *IndexService) IndexRepository(ctx context.Context, projectID, githubURL, branch, token string, progress func(IndexReport)) (IndexReport, error) {
	began := time.Now()

	files, err := s.repo.LoadSnapshot(ctx, githubURL, branch, token)
	if err != nil {
		return IndexReport{}, fmt.Errorf("load snapshot: %w", err)
	}
	slog.Info("snapshot loaded", "project_id", projectID, "files", len(files))

	report := IndexReport{Files: len(files)}

	// Settle every file, keeping outcomes by submission index; arrival
	// order carries no meaning.
	embedded := make([]bool, len(files))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, file := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.limiter.Do(ctx, func() error {
				return s.embedFile(ctx, projectID, file)
			})
			embedded[i] = err == nil
			if err != nil {
				slog.Warn("file skipped", "project_id", projectID, "file", file.Path, "error", err)
				metrics.RecordFileSkipped()
			} else {
				metrics.RecordFileEmbedded()
			}

			mu.Lock()
			if embedded[i] {
				report.Embedded++
			} else {
				report.Skipped++
			}
			if progress != nil {
				progress(report)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	metrics.RecordSnapshotIndexingDuration(time.Since(began))
	slog.Info("repository indexed",
		"project_id", projectID,
		"files", report.Files,
		"embedded", report.Embedded,
		"skipped", report.Skipped,
	)
	return report, nil
}

// embedFile summarizes one file, embeds the summary and persists the record.
func (s *IndexService) embedFile(ctx context.Context, projectID string, file domain.SnapshotFile) error {
	input := file.Content
	if len(input) > maxSummaryInput {
		input = input[:maxSummaryInput]
	}

	summary, err := s.ai.Complete(ctx, fileSummarySystemPrompt, fileSummaryUserPrompt(file.Path, input))
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		return fmt.Errorf("summarize: empty summary")
	}

	vector, err := s.ai.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	if err := s.embeddings.InsertEmbedding(ctx, &domain.SourceFileEmbedding{
		ProjectID:  projectID,
		FileName:   file.Path,
		SourceCode: file.Content,
		Summary:    summary,
		Embedding:  vector,
	}); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
