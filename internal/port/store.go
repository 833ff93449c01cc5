package port

import (
	"context"

	"github.com/ProdigyRahul/Codojo/internal/domain"
)

// ProjectStore resolves registered projects.
type ProjectStore interface {
	// GetProjectByID returns a project or ErrProjectNotFound.
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
}

// CommitStore persists and lists summarized commits.
type CommitStore interface {
	// ListCommitHashes returns the hashes already persisted for a project.
	ListCommitHashes(ctx context.Context, projectID string) ([]string, error)

	// InsertCommit persists one record. Inserting a hash that already
	// exists for the project is a no-op and returns nil, nil.
	InsertCommit(ctx context.Context, rec *domain.CommitRecord) (*domain.CommitRecord, error)

	// ListCommitsByProject returns persisted records, newest first.
	ListCommitsByProject(ctx context.Context, projectID string) ([]domain.CommitRecord, error)
}

// EmbeddingStore persists file embeddings and runs similarity search.
type EmbeddingStore interface {
	// InsertEmbedding persists one embedded file.
	InsertEmbedding(ctx context.Context, e *domain.SourceFileEmbedding) error

	// SearchSimilar ranks stored files for a project by cosine similarity
	// to the query vector, keeps those above threshold and returns at most
	// limit results, best first. The comparison runs as one bulk operation
	// at the storage layer.
	SearchSimilar(ctx context.Context, projectID string, query []float32, threshold float64, limit int) ([]domain.RankedFile, error)
}
