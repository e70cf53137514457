package main

import (
	"context"
	"slices"
	"testing"

	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBatched(t *testing.T) {
	docRepo, resultRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()
	defer resultRepo.Close()

	ctx := context.Background()
	added, err := addBatched(ctx, docRepo, slices.Values(corpus), 4)
	require.NoError(t, err)
	assert.Equal(t, len(corpus), added)

	docs, err := docRepo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, len(corpus))
	for i, doc := range docs {
		assert.Equal(t, corpus[i].Title, doc.Title, "insertion order is kept")
		assert.Equal(t, core.EmbeddingPending, doc.EmbeddingStatus)
	}

	// Seeding twice leaves the corpus unchanged
	_, err = addBatched(ctx, docRepo, slices.Values(corpus), 3)
	require.NoError(t, err)
	docs, err = docRepo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, len(corpus))
}
