package search

import (
	"math"
	"slices"

	"github.com/poiesic/litscreen/core"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
// It is 0 when either vector is empty, has zero norm, or the dimensions
// differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankSemantic ranks completed documents by cosine similarity to query.
// Documents that are not completed or carry no embedding are skipped.
// Equal scores keep their input order. limit <= 0 means DefaultLimit.
func RankSemantic(query []float32, docs []*core.DocumentRecord, limit int) []*core.SearchResult {
	return truncate(scoreSemantic(query, docs), limit)
}

func scoreSemantic(query []float32, docs []*core.DocumentRecord) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.EmbeddingStatus != core.EmbeddingCompleted || len(doc.Embedding) == 0 {
			continue
		}
		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    CosineSimilarity(query, doc.Embedding),
		})
	}

	slices.SortStableFunc(results, byScoreDesc)
	return results
}
