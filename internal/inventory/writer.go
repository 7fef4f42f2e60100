package inventory

import (
	"context"
	"fmt"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"go.uber.org/zap"
)

// DefaultBatchSize is the document store's per-transaction write ceiling.
const DefaultBatchSize = 500

// BatchWriter persists ordered (identity, document) pairs with the fewest
// round trips that still respect the store's atomic-write size ceiling.
type BatchWriter struct {
	store      store.Store
	collection string
	batchSize  int
}

func NewBatchWriter(st store.Store, collection string, batchSize int) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchWriter{
		store:      st,
		collection: collection,
		batchSize:  batchSize,
	}
}

// Write partitions writes into consecutive chunks of at most the batch size
// and commits them strictly in order, each chunk as one atomic store write.
// On the first chunk failure it stops: chunks not yet submitted are never
// attempted, and chunks already committed stay committed. Partial completion
// is therefore a caller-visible outcome; re-submitting the full payload is
// safe because identity-keyed writes are idempotent merges.
//
// It returns the number of documents durably written. When err is non-nil
// that number covers only the chunks committed before the failure.
func (w *BatchWriter) Write(ctx context.Context, writes []store.Write) (int, error) {
	written := 0
	for i, chunk := range partition(writes, w.batchSize) {
		if err := w.store.CommitBatch(ctx, w.collection, chunk); err != nil {
			utils.Zlog.Error("Batch commit failed, aborting remaining chunks",
				zap.Int("chunk", i),
				zap.Int("chunkSize", len(chunk)),
				zap.Int("committed", written),
				zap.Int("total", len(writes)),
				zap.Error(err))
			return written, fmt.Errorf("chunk %d (%d documents): %w", i, len(chunk), err)
		}
		written += len(chunk)
	}
	return written, nil
}

// partition splits writes into consecutive chunks of at most size elements,
// preserving the original order.
func partition(writes []store.Write, size int) [][]store.Write {
	if len(writes) == 0 {
		return nil
	}
	chunks := make([][]store.Write, 0, (len(writes)+size-1)/size)
	for start := 0; start < len(writes); start += size {
		end := start + size
		if end > len(writes) {
			end = len(writes)
		}
		chunks = append(chunks, writes[start:end])
	}
	return chunks
}
