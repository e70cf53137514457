package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	seq, err := backend.GetSequence(documentSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the insertion sequence.
func (r *DocumentRepository) Close() error {
	return r.seq.Release()
}

// AddDocuments adds one or more documents to the corpus.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.DocumentRecord) ([]*core.DocumentRecord, error) {
	result := make([]*core.DocumentRecord, 0, len(docs))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc != nil && doc.EmbeddingStatus == 0 {
				doc.EmbeddingStatus = core.EmbeddingPending
			}
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}
			if doc.EmbeddingStatus == core.EmbeddingCompleted && len(doc.Embedding) == 0 {
				return fmt.Errorf("document %q: %w", doc.Title, storage.ErrMissingVector)
			}
			if doc.Id == 0 {
				doc.Id = core.IDFromContent(doc.ContentKey())
			}

			_, existing, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if existing != nil {
				result = append(result, existing)
				continue
			}

			seq, err := nextSequence(r.seq)
			if err != nil {
				return err
			}

			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt

			if err := writeDocument(tx, seq, doc); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentOrderKey(seq), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentStatusKey(doc.EmbeddingStatus, seq), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
			result = append(result, doc)
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.DocumentRecord, error) {
	var result *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		_, result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.DocumentRecord, error) {
	var result []*core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			_, doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns the whole corpus in insertion order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error) {
	return r.listIndexed(ctx, []byte(documentOrderPrefix+":"))
}

// ListDocumentsByStatus returns documents with the given status in insertion order.
func (r *DocumentRepository) ListDocumentsByStatus(ctx context.Context, status core.EmbeddingStatus) ([]*core.DocumentRecord, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}
	return r.listIndexed(ctx, makePartialDocumentStatusKey(status))
}

// UpdateEmbedding stores an embedding result for one document atomically.
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, status core.EmbeddingStatus) (*core.DocumentRecord, error) {
	if status == core.EmbeddingCompleted && len(vector) == 0 {
		return nil, fmt.Errorf("document %d: %w", id, storage.ErrMissingVector)
	}

	var updated *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seq, doc, err := transition(tx, id, status)
		if err != nil {
			return err
		}
		if status == core.EmbeddingCompleted {
			doc.Embedding = vector
		}
		if err := writeDocument(tx, seq, doc); err != nil {
			return err
		}
		updated = doc
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResetEmbeddings moves documents back to pending and clears their vectors.
func (r *DocumentRepository) ResetEmbeddings(ctx context.Context, ids ...core.ID) (int, error) {
	reset := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			_, doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
			}
			if doc.EmbeddingStatus == core.EmbeddingPending {
				continue
			}
			seq, doc, err := transition(tx, id, core.EmbeddingPending)
			if err != nil {
				return err
			}
			if err := writeDocument(tx, seq, doc); err != nil {
				return err
			}
			reset++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return reset, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			seq, doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
			}

			if err := tx.Delete(makeDocumentOrderKey(seq)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentStatusKey(doc.EmbeddingStatus, seq)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// listIndexed resolves every ID stored under an index prefix, in key order.
func (r *DocumentRepository) listIndexed(ctx context.Context, prefix []byte) ([]*core.DocumentRecord, error) {
	var results []*core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			_, doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)

	return results, err
}

// transition moves a document to a new embedding status inside tx and
// keeps the status index in step. The vector is cleared; the caller sets
// any new vector and writes the record before committing.
func transition(tx *badger.Txn, id core.ID, status core.EmbeddingStatus) (uint64, *core.DocumentRecord, error) {
	seq, doc, err := readDocument(tx, makeDocumentKey(id))
	if err != nil {
		return 0, nil, err
	}
	if doc == nil {
		return 0, nil, fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
	}
	if err := core.ValidateTransition(doc.EmbeddingStatus, status); err != nil {
		return 0, nil, fmt.Errorf("document %d: %w", id, err)
	}

	if err := tx.Delete(makeDocumentStatusKey(doc.EmbeddingStatus, seq)); err != nil {
		return 0, nil, err
	}
	if err := tx.Set(makeDocumentStatusKey(status, seq), storage.MarshalID(id)); err != nil {
		return 0, nil, err
	}

	doc.EmbeddingStatus = status
	doc.Embedding = nil
	doc.UpdatedAt = time.Now().UTC()
	return seq, doc, nil
}

// readDocument reads a document from the transaction.
// Returns a nil document when the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (uint64, *core.DocumentRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	var (
		seq uint64
		doc *core.DocumentRecord
	)
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		seq, doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return seq, doc, err
}

// writeDocument stores the primary record for a document.
func writeDocument(tx *badger.Txn, seq uint64, doc *core.DocumentRecord) error {
	value, err := storage.MarshalDocument(seq, doc)
	if err != nil {
		return err
	}
	return tx.Set(makeDocumentKey(doc.Id), value)
}
