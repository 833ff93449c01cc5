package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ProdigyRahul/Codojo/internal/adapter/store"
	"github.com/ProdigyRahul/Codojo/internal/domain"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

// fakeProjectStore resolves projects from a map.
type fakeProjectStore struct {
	projects map[string]*domain.Project
}

func (f *fakeProjectStore) GetProjectByID(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, port.ErrProjectNotFound
	}
	return p, nil
}

// fakeCommitStore keeps commit records in memory, enforcing the
// (projectID, commitHash) uniqueness the real store has.
type fakeCommitStore struct {
	mu       sync.Mutex
	records  []domain.CommitRecord
	failHash string // InsertCommit fails for this hash
	nextID   int
}

func (f *fakeCommitStore) ListCommitHashes(_ context.Context, projectID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hashes []string
	for _, r := range f.records {
		if r.ProjectID == projectID {
			hashes = append(hashes, r.CommitHash)
		}
	}
	return hashes, nil
}

func (f *fakeCommitStore) InsertCommit(_ context.Context, rec *domain.CommitRecord) (*domain.CommitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.CommitHash == f.failHash {
		return nil, fmt.Errorf("insert commit: connection reset")
	}
	for _, r := range f.records {
		if r.ProjectID == rec.ProjectID && r.CommitHash == rec.CommitHash {
			return nil, nil
		}
	}
	f.nextID++
	out := *rec
	out.ID = fmt.Sprintf("rec-%d", f.nextID)
	f.records = append(f.records, out)
	return &out, nil
}

func (f *fakeCommitStore) ListCommitsByProject(_ context.Context, projectID string) ([]domain.CommitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CommitRecord
	for _, r := range f.records {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeEmbeddingStore keeps embeddings in memory and ranks with the same
// pure helper the pgvector fallback documents.
type fakeEmbeddingStore struct {
	mu         sync.Mutex
	records    []domain.SourceFileEmbedding
	failInsert bool
}

func (f *fakeEmbeddingStore) InsertEmbedding(_ context.Context, e *domain.SourceFileEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return fmt.Errorf("insert embedding: connection reset")
	}
	rec := *e
	rec.ID = fmt.Sprintf("emb-%d", len(f.records)+1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeEmbeddingStore) SearchSimilar(_ context.Context, projectID string, query []float32, threshold float64, limit int) ([]domain.RankedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var scoped []domain.SourceFileEmbedding
	for _, r := range f.records {
		if r.ProjectID == projectID {
			scoped = append(scoped, r)
		}
	}
	return store.RankBySimilarity(scoped, query, threshold, limit), nil
}

// fakeRepo serves commits, diffs and snapshots from fixtures.
type fakeRepo struct {
	mu        sync.Mutex
	commits   []domain.CommitInfo
	diffs     map[string]string  // hash -> diff
	diffErrs  map[string][]error // hash -> errors returned before success
	snapshot  []domain.SnapshotFile
	loadErr   error
	listErr   error
	diffCalls int
}

func (f *fakeRepo) ListRecentCommits(_ context.Context, _ string, limit int) ([]domain.CommitInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.commits) > limit {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeRepo) FetchCommitDiff(_ context.Context, _ string, hash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffCalls++
	if errs := f.diffErrs[hash]; len(errs) > 0 {
		err := errs[0]
		f.diffErrs[hash] = errs[1:]
		return "", err
	}
	diff, ok := f.diffs[hash]
	if !ok {
		return "", port.ErrNotFound
	}
	return diff, nil
}

func (f *fakeRepo) LoadSnapshot(_ context.Context, _, _, _ string) ([]domain.SnapshotFile, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snapshot, nil
}

// fakeAI scripts the model: completions, embeddings and streams.
type fakeAI struct {
	mu            sync.Mutex
	completeFn    func(systemPrompt, userPrompt string) (string, error)
	embedFn       func(text string) ([]float32, error)
	streamDeltas  []port.StreamDelta
	streamErr     error
	userPrompts   []string
	embeddedTexts []string
}

func (f *fakeAI) ModelName() string { return "fake-model" }

func (f *fakeAI) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.userPrompts = append(f.userPrompts, userPrompt)
	f.mu.Unlock()
	if f.completeFn == nil {
		return "summary", nil
	}
	return f.completeFn(systemPrompt, userPrompt)
}

func (f *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embeddedTexts = append(f.embeddedTexts, text)
	f.mu.Unlock()
	if f.embedFn == nil {
		return []float32{1, 0}, nil
	}
	return f.embedFn(text)
}

func (f *fakeAI) CompleteStream(_ context.Context, _, _ string) (<-chan port.StreamDelta, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan port.StreamDelta, len(f.streamDeltas))
	for _, d := range f.streamDeltas {
		ch <- d
	}
	close(ch)
	return ch, nil
}

func (f *fakeAI) completeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.userPrompts)
}
