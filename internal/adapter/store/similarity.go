package store

import (
	"math"
	"sort"

	"github.com/ProdigyRahul/Codojo/internal/domain"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 when either
// vector has zero magnitude or the dimensions disagree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// RankBySimilarity is the in-process equivalent of VectorStore.SearchSimilar:
// score every record against the query, keep those above threshold, order
// descending and cut at limit. It scans linearly over the given rows, which
// is fine for tests and small corpora but needs a vector index at scale;
// the pgvector path is the one production uses.
func RankBySimilarity(files []domain.SourceFileEmbedding, query []float32, threshold float64, limit int) []domain.RankedFile {
	ranked := make([]domain.RankedFile, 0, len(files))
	for _, f := range files {
		sim := CosineSimilarity(f.Embedding, query)
		if sim > threshold {
			ranked = append(ranked, domain.RankedFile{SourceFileEmbedding: f, Similarity: sim})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
