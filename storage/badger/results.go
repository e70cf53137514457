package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage"
)

// ResultRepository implements storage.ResultRepository for BadgerDB.
type ResultRepository struct {
	backend       *Backend
	classifySeq   *badger.Sequence
	patternSetSeq *badger.Sequence
}

var _ storage.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(backend *Backend) (*ResultRepository, error) {
	classifySeq, err := backend.GetSequence(classificationSeq)
	if err != nil {
		return nil, err
	}
	patternSeq, err := backend.GetSequence(patternSetSeq)
	if err != nil {
		classifySeq.Release()
		return nil, err
	}

	return &ResultRepository{
		backend:       backend,
		classifySeq:   classifySeq,
		patternSetSeq: patternSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *ResultRepository) Close() error {
	err := r.classifySeq.Release()
	if perr := r.patternSetSeq.Release(); err == nil {
		err = perr
	}
	return err
}

// SaveClassifications appends classification records.
// Records without an ID or timestamp get one.
func (r *ResultRepository) SaveClassifications(ctx context.Context, records ...*core.ClassificationRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record == nil {
				continue
			}
			if err := core.ValidateMode(record.Mode); err != nil {
				return err
			}
			if record.Id == uuid.Nil {
				record.Id = uuid.New()
			}
			if record.ClassifiedAt.IsZero() {
				record.ClassifiedAt = time.Now().UTC()
			}

			seq, err := nextSequence(r.classifySeq)
			if err != nil {
				return err
			}
			value, err := storage.MarshalClassification(record)
			if err != nil {
				return err
			}
			if err := tx.Set(makeClassificationKey(record.Mode, seq), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListClassifications returns the records saved for a mode, oldest first.
func (r *ResultRepository) ListClassifications(ctx context.Context, mode core.ClassificationMode) ([]*core.ClassificationRecord, error) {
	if err := core.ValidateMode(mode); err != nil {
		return nil, err
	}

	var results []*core.ClassificationRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialClassificationKey(mode)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.ClassificationRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalClassification(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)

	return results, err
}

// SavePatternSet appends a pattern set.
func (r *ResultRepository) SavePatternSet(ctx context.Context, set *core.PatternSet) error {
	if set == nil {
		return fmt.Errorf("%w: pattern set is nil", storage.ErrSerializationFailed)
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if set.CreatedAt.IsZero() {
			set.CreatedAt = time.Now().UTC()
		}
		seq, err := nextSequence(r.patternSetSeq)
		if err != nil {
			return err
		}
		value, err := storage.MarshalPatternSet(set)
		if err != nil {
			return err
		}
		if err := tx.Set(makePatternSetKey(seq), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LatestPatternSet returns the most recently saved pattern set.
func (r *ResultRepository) LatestPatternSet(ctx context.Context) (*core.PatternSet, error) {
	var result *core.PatternSet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(patternSetPrefix + ":")

		// Use reverse iterator to get the newest set first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		iter.Seek(appendUint64(prefix, ^uint64(0)))
		if !iter.Valid() {
			return storage.ErrNotFound
		}
		return iter.Item().Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalPatternSet(val)
			return err
		})
	}, false)

	return result, err
}
