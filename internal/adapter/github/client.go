package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

const apiBase = "https://api.github.com"

// Client is a minimal wrapper around GitHub's REST API v3, covering just
// the endpoints the ingestion pipelines require.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient returns a ready-to-use GitHub API client. token may be empty,
// but unauthenticated requests are subject to very low rate limits.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    apiBase,
		token:      token,
	}
}

// ListRecentCommits returns up to limit of the newest commits on the
// repository's default branch.
func (c *Client) ListRecentCommits(ctx context.Context, repoURL string, limit int) ([]domain.CommitInfo, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), limit)

	var raw []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		Author *struct {
			AvatarURL string `json:"avatar_url"`
		} `json:"author"`
	}
	if err := c.getJSON(ctx, u, "", &raw); err != nil {
		return nil, fmt.Errorf("list commits %s/%s: %w", owner, repo, err)
	}

	commits := make([]domain.CommitInfo, len(raw))
	for i, r := range raw {
		info := domain.CommitInfo{
			Hash:       r.SHA,
			Message:    r.Commit.Message,
			AuthorName: r.Commit.Author.Name,
			Date:       r.Commit.Author.Date,
		}
		if r.Author != nil {
			info.AuthorAvatarURL = r.Author.AvatarURL
		}
		commits[i] = info
	}
	return commits, nil
}

// FetchCommitDiff returns the unified diff text for one commit. The diff is
// returned verbatim: the summarizer needs the full text, header lines
// included, to attribute changes correctly.
func (c *Client) FetchCommitDiff(ctx context.Context, repoURL, hash string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(hash))

	body, err := c.get(ctx, u, "application/vnd.github.diff")
	if err != nil {
		return "", fmt.Errorf("fetch diff %s: %w", hash, err)
	}
	return string(body), nil
}

// ParseRepoURL extracts owner and repo from a GitHub URL like
// https://github.com/owner/repo (with or without a trailing .git).
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("parse repo url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo url %q: expected github.com/owner/repo", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// get performs an authenticated GET and returns the raw body.
// Non-2xx statuses are classified onto the port sentinels.
func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if accept == "" {
		accept = "application/vnd.github+json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp, string(body))
	}
	return io.ReadAll(resp.Body)
}

// getJSON performs a GET and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, rawURL, accept string, v interface{}) error {
	body, err := c.get(ctx, rawURL, accept)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}
	return nil
}

// classifyStatus maps GitHub HTTP failures onto the port sentinels.
// GitHub signals primary rate limiting as 403 with a drained
// X-RateLimit-Remaining header, and secondary rate limiting as 429.
func classifyStatus(resp *http.Response, body string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return fmt.Errorf("github API (%d): %w", resp.StatusCode, port.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("github API (%d): %w", resp.StatusCode, port.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("github API (%d): %w", resp.StatusCode, port.ErrAuthFailed)
	default:
		return fmt.Errorf("github API (%d): %s", resp.StatusCode, body)
	}
}
