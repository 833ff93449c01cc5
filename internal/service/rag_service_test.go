package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

// seedEmbeddings stores five files whose cosine similarity to the query
// vector (1,0) is known in advance.
func seedEmbeddings(store *fakeEmbeddingStore) {
	sims := map[string]float64{
		"e1.go": 0.9,
		"e2.go": 0.51,
		"e3.go": 0.3,
		"e4.go": 0.6,
		"e5.go": 0.2,
	}
	for name, sim := range sims {
		_ = store.InsertEmbedding(context.Background(), &domain.SourceFileEmbedding{
			ProjectID:  testProjectID,
			FileName:   name,
			SourceCode: "package " + name,
			Summary:    "summary of " + name,
			Embedding:  []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))},
		})
	}
}

func TestRAGService_Answer_CitationsRankedAndThresholded(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	seedEmbeddings(embeddings)
	ai := &fakeAI{streamDeltas: []port.StreamDelta{{Content: "answer"}}}

	s := NewRAGService(ai, embeddings)
	citations, stream, err := s.Answer(context.Background(), testProjectID, "how does the widget work?")
	require.NoError(t, err)

	// Only files above the 0.5 threshold survive, best first.
	require.Len(t, citations, 3)
	assert.Equal(t, "e1.go", citations[0].FileName)
	assert.Equal(t, "e4.go", citations[1].FileName)
	assert.Equal(t, "e2.go", citations[2].FileName)

	// Citations are available before the stream is drained.
	for range stream {
	}
}

func TestRAGService_Answer_EmbedsQuestionWithIndexModel(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	seedEmbeddings(embeddings)
	ai := &fakeAI{streamDeltas: nil}

	s := NewRAGService(ai, embeddings)
	_, _, err := s.Answer(context.Background(), testProjectID, "what is e1?")
	require.NoError(t, err)

	// The question itself is embedded with the indexing model.
	require.Contains(t, ai.embeddedTexts, "what is e1?")
}

func TestBuildContextBlock_Format(t *testing.T) {
	block := buildContextBlock([]domain.RankedFile{
		{SourceFileEmbedding: domain.SourceFileEmbedding{FileName: "a.go", SourceCode: "package a", Summary: "does a"}},
		{SourceFileEmbedding: domain.SourceFileEmbedding{FileName: "b.go", SourceCode: "package b", Summary: "does b"}},
	})

	want := "source: a.go\ncode content: package a\nsummary of file: does a\n\n" +
		"source: b.go\ncode content: package b\nsummary of file: does b"
	assert.Equal(t, want, block)
}

func TestRAGService_Answer_StreamIntegrity(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	seedEmbeddings(embeddings)

	boom := errors.New("upstream reset")
	ai := &fakeAI{streamDeltas: []port.StreamDelta{
		{Content: "Hel"},
		{Content: "lo, "},
		{Content: " world"},
		{Err: boom},
	}}

	s := NewRAGService(ai, embeddings)
	_, stream, err := s.Answer(context.Background(), testProjectID, "question")
	require.NoError(t, err)

	var chunks []string
	var terminal error
	for delta := range stream {
		if delta.Err != nil {
			terminal = delta.Err
			continue
		}
		chunks = append(chunks, delta.Content)
	}

	// All chunks arrive in order, then the terminal error. An errored
	// stream must never be mistaken for a finished one.
	assert.Equal(t, []string{"Hel", "lo, ", " world"}, chunks)
	assert.ErrorIs(t, terminal, boom)
}

func TestRAGService_Answer_EmbedFailurePropagates(t *testing.T) {
	ai := &fakeAI{embedFn: func(string) ([]float32, error) {
		return nil, fmt.Errorf("embed: %w", port.ErrRateLimited)
	}}

	s := NewRAGService(ai, &fakeEmbeddingStore{})
	_, _, err := s.Answer(context.Background(), testProjectID, "question")
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrRateLimited)
}

func TestRAGService_AnswerSync(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	seedEmbeddings(embeddings)
	ai := &fakeAI{completeFn: func(_, user string) (string, error) {
		assert.Contains(t, user, "START CONTEXT BLOCK")
		assert.Contains(t, user, "source: e1.go")
		return "the widget frobs", nil
	}}

	s := NewRAGService(ai, embeddings)
	answer, citations, err := s.AnswerSync(context.Background(), testProjectID, "how?")
	require.NoError(t, err)
	assert.Equal(t, "the widget frobs", answer)
	assert.Len(t, citations, 3)
}
