package classify

import (
	"context"

	"github.com/poiesic/litscreen/core"
)

// Input is one document to classify.
type Input struct {
	File string
	Text string
}

// ProgressFunc is called after each document in a batch.
type ProgressFunc func(done, total int, record *core.ClassificationRecord)

// ClassifyAll classifies inputs one at a time, in order, and returns one
// record per input. Only an invalid mode or cancellation stops the batch;
// the records produced before cancellation are returned with the error.
func (c *Classifier) ClassifyAll(ctx context.Context, inputs []Input, mode core.ClassificationMode, progress ProgressFunc) ([]*core.ClassificationRecord, error) {
	if err := core.ValidateMode(mode); err != nil {
		return nil, err
	}

	records := make([]*core.ClassificationRecord, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		record, err := c.ClassifyDocument(ctx, in.File, in.Text, mode)
		if err != nil {
			return records, err
		}
		records = append(records, record)
		c.logger.Info("classified document", "file", in.File, "mode", mode, "classification", record.Result.Classification)

		if progress != nil {
			progress(i+1, len(inputs), record)
		}
	}
	return records, nil
}
