package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/metrics"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

// Retrieval defaults: at most topK files above the similarity threshold.
const (
	retrievalTopK      = 10
	retrievalThreshold = 0.5
)

// RAGService answers natural-language questions about a project's code by
// retrieving the most similar embedded files and grounding a streamed
// completion on them.
type RAGService struct {
	ai      port.AIProvider
	vectors port.EmbeddingStore
}

// NewRAGService creates a new RAG service.
func NewRAGService(ai port.AIProvider, vectors port.EmbeddingStore) *RAGService {
	return &RAGService{ai: ai, vectors: vectors}
}

// Answer embeds the question, retrieves citations and opens a streamed
// completion. The citations are complete as soon as Answer returns; they
// never block on the stream, which keeps delivering deltas until it closes
// (or delivers a terminal error delta, per the port contract).
func (s *RAGService) Answer(ctx context.Context, projectID, question string) ([]domain.RankedFile, <-chan port.StreamDelta, error) {
	citations, prompt, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.ai.CompleteStream(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("open answer stream: %w", err)
	}

	metrics.RecordRAGQuery()
	return citations, stream, nil
}

// AnswerSync is the non-streaming variant: same retrieval, one blocking
// completion.
func (s *RAGService) AnswerSync(ctx context.Context, projectID, question string) (string, []domain.RankedFile, error) {
	citations, prompt, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return "", nil, err
	}

	answer, err := s.ai.Complete(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("answer: %w", err)
	}

	metrics.RecordRAGQuery()
	return answer, citations, nil
}

// retrieve embeds the question with the same model the indexer used
// (mixing embedding models breaks similarity comparison), ranks the
// project's files and assembles the grounded prompt.
func (s *RAGService) retrieve(ctx context.Context, projectID, question string) ([]domain.RankedFile, string, error) {
	queryVector, err := s.ai.Embed(ctx, question)
	if err != nil {
		return nil, "", fmt.Errorf("embed question: %w", err)
	}

	citations, err := s.vectors.SearchSimilar(ctx, projectID, queryVector, retrievalThreshold, retrievalTopK)
	if err != nil {
		return nil, "", fmt.Errorf("search similar: %w", err)
	}
	slog.Info("retrieved context", "project_id", projectID, "files", len(citations))

	return citations, answerUserPrompt(buildContextBlock(citations), question), nil
}

// buildContextBlock concatenates the retrieved records in ranked order.
func buildContextBlock(citations []domain.RankedFile) string {
	parts := make([]string, len(citations))
	for i, c := range citations {
		parts[i] = fmt.Sprintf("source: %s\ncode content: %s\nsummary of file: %s", c.FileName, c.SourceCode, c.Summary)
	}
	return strings.Join(parts, "\n\n")
}
