package storage

import (
	"context"

	"github.com/poiesic/litscreen/core"
)

type Repository interface {
	// Close releases resources held by the repository.
	// The backend itself is closed separately.
	Close() error
}

type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to the corpus.
	// Documents with ID=0 get a content-derived ID (core.IDFromContent of ContentKey).
	// A document whose ID already exists is left untouched and the stored copy is returned.
	// New documents default to EmbeddingPending.
	AddDocuments(ctx context.Context, docs ...*core.DocumentRecord) ([]*core.DocumentRecord, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.DocumentRecord, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.DocumentRecord, error)

	// ListDocuments returns the whole corpus in insertion order.
	ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error)

	// ListDocumentsByStatus returns documents with the given embedding status
	// in insertion order.
	ListDocumentsByStatus(ctx context.Context, status core.EmbeddingStatus) ([]*core.DocumentRecord, error)

	// UpdateEmbedding stores an embedding result for one document atomically.
	// The status change must satisfy core.ValidateTransition.
	// A completed status requires a non-empty vector; a failed status clears it.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, status core.EmbeddingStatus) (*core.DocumentRecord, error)

	// ResetEmbeddings moves documents back to EmbeddingPending and clears their vectors.
	// Documents already pending are skipped. Returns the number of documents reset.
	ResetEmbeddings(ctx context.Context, ids ...core.ID) (int, error)

	// DeleteDocuments removes documents and their index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error
}

type ResultRepository interface {
	Repository
	// SaveClassifications appends classification records.
	SaveClassifications(ctx context.Context, records ...*core.ClassificationRecord) error

	// ListClassifications returns the records saved for a mode, oldest first.
	ListClassifications(ctx context.Context, mode core.ClassificationMode) ([]*core.ClassificationRecord, error)

	// SavePatternSet appends a pattern set.
	SavePatternSet(ctx context.Context, set *core.PatternSet) error

	// LatestPatternSet returns the most recently saved pattern set.
	// Returns ErrNotFound if none has been saved.
	LatestPatternSet(ctx context.Context) (*core.PatternSet, error)
}
