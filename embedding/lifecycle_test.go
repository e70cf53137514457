package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/litscreen/ai/mock"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage"
	"github.com/poiesic/litscreen/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.DocumentRepository {
	t.Helper()
	docRepo, resultRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		resultRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo
}

func addDocuments(t *testing.T, repo storage.DocumentRepository, abstracts ...string) []*core.DocumentRecord {
	t.Helper()
	docs := make([]*core.DocumentRecord, len(abstracts))
	for i, abstract := range abstracts {
		docs[i] = &core.DocumentRecord{
			Title:    fmt.Sprintf("Paper %d", i+1),
			Abstract: abstract,
		}
	}
	added, err := repo.AddDocuments(context.Background(), docs...)
	require.NoError(t, err)
	return added
}

func statuses(t *testing.T, repo storage.DocumentRepository) []core.EmbeddingStatus {
	t.Helper()
	docs, err := repo.ListDocuments(context.Background())
	require.NoError(t, err)
	out := make([]core.EmbeddingStatus, len(docs))
	for i, d := range docs {
		out[i] = d.EmbeddingStatus
	}
	return out
}

func TestProcessPending(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "PSA screening in older men", "", "Online learning engagement")

	embedder := mock.NewMockEmbedder()
	lifecycle := NewLifecycle(repo, embedder)

	stats, err := lifecycle.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Failed: 1}, stats)
	assert.Equal(t, []core.EmbeddingStatus{
		core.EmbeddingCompleted, core.EmbeddingFailed, core.EmbeddingCompleted,
	}, statuses(t, repo))

	// Empty abstracts never reach the embedder.
	assert.Equal(t, []string{"PSA screening in older men", "Online learning engagement"}, embedder.Texts())

	docs, err := repo.ListDocumentsByStatus(context.Background(), core.EmbeddingCompleted)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.Len(t, doc.Embedding, mock.DefaultDimensions)
	}
}

func TestProcessPending_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "a", "b")

	embedder := mock.NewMockEmbedder()
	lifecycle := NewLifecycle(repo, embedder)

	_, err := lifecycle.ProcessPending(context.Background())
	require.NoError(t, err)
	calls := embedder.CallCount()

	stats, err := lifecycle.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, calls, embedder.CallCount(), "settled documents are not re-embedded")
}

func TestProcessPending_EmbedderFailuresAreIsolated(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "good one", "bad", "empty vector", "good two")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedAbstractFunc = func(ctx context.Context, text string) ([]float32, error) {
		switch text {
		case "bad":
			return nil, errors.New("model overloaded")
		case "empty vector":
			return []float32{}, nil
		}
		return []float32{3, 4}, nil
	}

	stats, err := NewLifecycle(repo, embedder).ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Failed: 2}, stats)
	assert.Equal(t, []core.EmbeddingStatus{
		core.EmbeddingCompleted, core.EmbeddingFailed, core.EmbeddingFailed, core.EmbeddingCompleted,
	}, statuses(t, repo))

	docs, err := repo.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, docs[0].Embedding, 1e-6, "vectors are normalized")
	assert.Nil(t, docs[1].Embedding)
}

func TestProcessPending_WithoutNormalization(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "text")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedAbstractFunc = func(context.Context, string) ([]float32, error) {
		return []float32{3, 4}, nil
	}
	cfg := DefaultConfig()
	cfg.Normalize = false

	_, err := NewLifecycle(repo, embedder, WithConfig(cfg)).ProcessPending(context.Background())
	require.NoError(t, err)

	docs, err := repo.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, docs[0].Embedding)
}

func TestProcessPending_Parallel(t *testing.T) {
	repo := setupTestDB(t)
	abstracts := make([]string, 25)
	for i := range abstracts {
		abstracts[i] = fmt.Sprintf("abstract %d", i)
	}
	abstracts[7] = ""
	addDocuments(t, repo, abstracts...)

	var observed atomic.Int32
	cfg := DefaultConfig()
	cfg.Workers = 4
	lifecycle := NewLifecycle(repo, mock.NewMockEmbedder(), WithConfig(cfg), WithObserver(func(done, total int) {
		observed.Add(1)
		assert.Equal(t, 25, total)
	}))

	stats, err := lifecycle.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 24, Failed: 1}, stats)
	assert.Equal(t, int32(25), observed.Load())

	pending, err := repo.ListDocumentsByStatus(context.Background(), core.EmbeddingPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessPending_ContextCancelled(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "a", "b", "c")

	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedder()
	embedder.EmbedAbstractFunc = func(context.Context, string) ([]float32, error) {
		cancel()
		return []float32{1}, nil
	}

	stats, err := NewLifecycle(repo, embedder).ProcessPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, stats.Total(), 1)
}

func TestProcessPending_RateLimited(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "a", "b", "c")

	cfg := DefaultConfig()
	cfg.RateLimit = 50

	start := time.Now()
	stats, err := NewLifecycle(repo, mock.NewMockEmbedder(), WithConfig(cfg)).ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestProcessPending_Progress(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, "a", "b")

	var buf bytes.Buffer
	_, err := NewLifecycle(repo, mock.NewMockEmbedder(), WithProgress(&buf)).ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2/2")
}

func TestReset(t *testing.T) {
	repo := setupTestDB(t)
	added := addDocuments(t, repo, "a", "", "c")

	embedder := mock.NewMockEmbedder()
	lifecycle := NewLifecycle(repo, embedder)
	ctx := context.Background()

	_, err := lifecycle.ProcessPending(ctx)
	require.NoError(t, err)

	t.Run("reset failed", func(t *testing.T) {
		n, err := lifecycle.ResetFailed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []core.EmbeddingStatus{
			core.EmbeddingCompleted, core.EmbeddingPending, core.EmbeddingCompleted,
		}, statuses(t, repo))
	})

	t.Run("reset by id clears the vector", func(t *testing.T) {
		n, err := lifecycle.Reset(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		doc, err := repo.GetDocument(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, core.EmbeddingPending, doc.EmbeddingStatus)
		assert.Nil(t, doc.Embedding)
	})

	t.Run("unknown id resets nothing", func(t *testing.T) {
		before := statuses(t, repo)
		n, err := lifecycle.Reset(ctx, added[2].Id, core.ID(424242))
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Contains(t, err.Error(), "424242")
		assert.Zero(t, n)
		assert.Equal(t, before, statuses(t, repo))
	})

	t.Run("pending and repeated ids are skipped", func(t *testing.T) {
		n, err := lifecycle.Reset(ctx, added[0].Id, added[0].Id, added[1].Id)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("rerun embeds only reset documents", func(t *testing.T) {
		embedder.Reset()
		stats, err := lifecycle.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
		assert.Equal(t, []string{"a"}, embedder.Texts())
	})

	t.Run("reset all", func(t *testing.T) {
		n, err := lifecycle.ResetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}
