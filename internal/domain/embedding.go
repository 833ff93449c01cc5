package domain

import "time"

// SourceFileEmbedding is one embedded source file stored in pgvector.
// The vector is computed over the file summary, not the raw content;
// its dimension is fixed by the embedding model.
type SourceFileEmbedding struct {
	ID         string    `json:"id"          db:"id"`
	ProjectID  string    `json:"project_id"  db:"project_id"`
	FileName   string    `json:"file_name"   db:"file_name"`
	SourceCode string    `json:"source_code" db:"source_code"`
	Summary    string    `json:"summary"     db:"summary"`
	Embedding  []float32 `json:"-"           db:"embedding"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// RankedFile is returned by semantic search, including similarity score.
type RankedFile struct {
	SourceFileEmbedding
	Similarity float64 `json:"similarity"`
}

// SnapshotFile is one (path, content) pair from a repository snapshot.
type SnapshotFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
