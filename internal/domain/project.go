package domain

import "time"

// Project is a registered GitHub repository tracked by Codojo.
// All commit records and file embeddings are scoped to a project.
type Project struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	GithubURL string    `json:"github_url" db:"github_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
