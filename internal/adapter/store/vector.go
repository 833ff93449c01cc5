package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ProdigyRahul/Codojo/internal/domain"
)

// VectorStore handles pgvector-specific operations for file embeddings.
type VectorStore struct {
	store *PostgresStore
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore) *VectorStore {
	return &VectorStore{store: store}
}

// InsertEmbedding persists one embedded source file with its vector.
func (v *VectorStore) InsertEmbedding(ctx context.Context, e *domain.SourceFileEmbedding) error {
	query := `INSERT INTO source_file_embeddings (project_id, file_name, source_code, summary, embedding)
	          VALUES ($1, $2, $3, $4, $5::vector)`

	_, err := v.store.db.ExecContext(ctx, query,
		e.ProjectID, e.FileName, e.SourceCode, e.Summary, vectorToString(e.Embedding),
	)
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}
	return nil
}

// SearchSimilar ranks a project's files by cosine similarity to the query
// vector in a single bulk comparison at the database. Only rows with
// similarity above threshold are returned, best first, at most limit.
func (v *VectorStore) SearchSimilar(ctx context.Context, projectID string, query []float32, threshold float64, limit int) ([]domain.RankedFile, error) {
	vectorStr := vectorToString(query)
	q := `SELECT e.id, e.project_id, e.file_name, e.source_code, e.summary, e.created_at,
	             1 - (e.embedding <=> $1::vector) AS similarity
	      FROM source_file_embeddings e
	      WHERE e.project_id = $2
	        AND 1 - (e.embedding <=> $1::vector) > $3
	      ORDER BY e.embedding <=> $1::vector
	      LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, q, vectorStr, projectID, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []domain.RankedFile
	for rows.Next() {
		var rf domain.RankedFile
		if err := rows.Scan(
			&rf.ID, &rf.ProjectID, &rf.FileName, &rf.SourceCode,
			&rf.Summary, &rf.CreatedAt, &rf.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		results = append(results, rf)
	}
	return results, rows.Err()
}

// CountEmbeddingsByProject returns how many embedded files a project has.
func (v *VectorStore) CountEmbeddingsByProject(ctx context.Context, projectID string) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM source_file_embeddings WHERE project_id = $1`, projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
