package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db        *sql.DB
	dimension int
}

// NewPostgresStore opens a connection, bootstraps the schema and returns a
// store instance. dimension is the embedding vector dimension, fixed by the
// embedding model.
func NewPostgresStore(databaseURL string, dimension int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db, dimension: dimension}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the vector extension, tables and indexes if missing.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			github_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS commit_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES projects(id),
			commit_hash TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			author_name TEXT NOT NULL DEFAULT '',
			author_avatar TEXT NOT NULL DEFAULT '',
			commit_date TIMESTAMPTZ NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, commit_hash)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS source_file_embeddings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES projects(id),
			file_name TEXT NOT NULL,
			source_code TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_commit_records_project ON commit_records(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_project ON source_file_embeddings(project_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Projects ---

// CreateProject registers a new project.
func (s *PostgresStore) CreateProject(ctx context.Context, name, githubURL string) (*domain.Project, error) {
	query := `INSERT INTO projects (name, github_url)
	          VALUES ($1, $2)
	          RETURNING id, name, github_url, created_at`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, name, githubURL).Scan(
		&p.ID, &p.Name, &p.GithubURL, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

// GetProjectByID returns a project or port.ErrProjectNotFound.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, github_url, created_at FROM projects WHERE id = $1`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.GithubURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all registered projects, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT id, name, github_url, created_at FROM projects ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.GithubURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Commits ---

// ListCommitHashes returns the commit hashes already persisted for a project.
func (s *PostgresStore) ListCommitHashes(ctx context.Context, projectID string) ([]string, error) {
	query := `SELECT commit_hash FROM commit_records WHERE project_id = $1`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list commit hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan commit hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// InsertCommit persists one summarized commit. A hash already present for
// the project is left untouched and reported as nil, nil.
func (s *PostgresStore) InsertCommit(ctx context.Context, rec *domain.CommitRecord) (*domain.CommitRecord, error) {
	query := `INSERT INTO commit_records (project_id, commit_hash, message, author_name, author_avatar, commit_date, summary)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (project_id, commit_hash) DO NOTHING
	          RETURNING id, project_id, commit_hash, message, author_name, author_avatar, commit_date, summary, created_at`

	var out domain.CommitRecord
	err := s.db.QueryRowContext(ctx, query,
		rec.ProjectID, rec.CommitHash, rec.Message, rec.AuthorName, rec.AuthorAvatar, rec.CommitDate, rec.Summary,
	).Scan(
		&out.ID, &out.ProjectID, &out.CommitHash, &out.Message,
		&out.AuthorName, &out.AuthorAvatar, &out.CommitDate, &out.Summary, &out.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert commit: %w", err)
	}
	return &out, nil
}

// ListCommitsByProject returns persisted commit records, newest first.
func (s *PostgresStore) ListCommitsByProject(ctx context.Context, projectID string) ([]domain.CommitRecord, error) {
	query := `SELECT id, project_id, commit_hash, message, author_name, author_avatar, commit_date, summary, created_at
	          FROM commit_records WHERE project_id = $1 ORDER BY commit_date DESC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var records []domain.CommitRecord
	for rows.Next() {
		var r domain.CommitRecord
		if err := rows.Scan(
			&r.ID, &r.ProjectID, &r.CommitHash, &r.Message,
			&r.AuthorName, &r.AuthorAvatar, &r.CommitDate, &r.Summary, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
