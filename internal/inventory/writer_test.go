package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
)

// recordingStore wraps the in-memory adapter and logs every batch it is
// asked to commit, optionally failing the nth one.
type recordingStore struct {
	mem     *store.Memory
	batches []int
	failOn  int // 1-based batch ordinal to fail, 0 = never
}

func newRecordingStore() *recordingStore {
	return &recordingStore{mem: store.NewMemory()}
}

func (r *recordingStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	return r.mem.Get(ctx, collection, id)
}

func (r *recordingStore) CommitBatch(ctx context.Context, collection string, writes []store.Write) error {
	r.batches = append(r.batches, len(writes))
	if r.failOn != 0 && len(r.batches) == r.failOn {
		return errors.New("store unavailable")
	}
	return r.mem.CommitBatch(ctx, collection, writes)
}

func (r *recordingStore) FindInRange(ctx context.Context, collection, field string, start, end time.Time) ([]string, error) {
	return r.mem.FindInRange(ctx, collection, field, start, end)
}

func (r *recordingStore) Delete(ctx context.Context, collection, id string) error {
	return r.mem.Delete(ctx, collection, id)
}

func makeWrites(n int) []store.Write {
	writes := make([]store.Write, n)
	for i := range writes {
		record := Record{
			No:          fmt.Sprintf("ITEM%04d", i),
			Description: "Item",
			BaseUOM:     "ea",
			Quantity:    float64(i),
		}
		writes[i] = store.Write{ID: SanitizeNo(record.No), Doc: record.Fields()}
	}
	return writes
}

func TestWriteChunking(t *testing.T) {
	st := newRecordingStore()
	writer := NewBatchWriter(st, store.CollectionKitchenInventory, 500)

	written, err := writer.Write(context.Background(), makeWrites(1200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != 1200 {
		t.Errorf("expected 1200 written, got %d", written)
	}
	want := []int{500, 500, 200}
	if len(st.batches) != len(want) {
		t.Fatalf("expected %d batches, got %v", len(want), st.batches)
	}
	for i, size := range want {
		if st.batches[i] != size {
			t.Errorf("batch %d: expected size %d, got %d", i, size, st.batches[i])
		}
	}
	if got := st.mem.Len(store.CollectionKitchenInventory); got != 1200 {
		t.Errorf("expected 1200 documents stored, got %d", got)
	}
}

func TestWriteAbortsOnChunkFailure(t *testing.T) {
	st := newRecordingStore()
	st.failOn = 2
	writer := NewBatchWriter(st, store.CollectionKitchenInventory, 500)

	written, err := writer.Write(context.Background(), makeWrites(1200))
	if err == nil {
		t.Fatalf("expected error from second chunk")
	}
	// The third chunk must never be attempted.
	if len(st.batches) != 2 {
		t.Errorf("expected 2 submitted batches, got %v", st.batches)
	}
	// The first chunk stays committed; there is no rollback across chunks.
	if written != 500 {
		t.Errorf("expected 500 committed before failure, got %d", written)
	}
	if got := st.mem.Len(store.CollectionKitchenInventory); got != 500 {
		t.Errorf("expected 500 documents stored, got %d", got)
	}
}

func TestWriteMergePreservesUnspecifiedFields(t *testing.T) {
	st := newRecordingStore()
	ctx := context.Background()

	// Seed a document carrying a field the ingestion path never writes.
	seed := store.Write{ID: "AB123", Doc: map[string]interface{}{
		"No":       "AB123",
		"Location": "walk-in freezer",
	}}
	if err := st.mem.CommitBatch(ctx, store.CollectionKitchenInventory, []store.Write{seed}); err != nil {
		t.Fatal(err)
	}
	before, err := st.mem.Get(ctx, store.CollectionKitchenInventory, "AB123")
	if err != nil {
		t.Fatal(err)
	}
	firstStamp := before[store.IngestedAtField].(time.Time)

	writer := NewBatchWriter(st, store.CollectionKitchenInventory, 500)
	record := Record{No: "AB123", Description: "Chicken Thighs", BaseUOM: "lb", Quantity: 40}
	if _, err := writer.Write(ctx, []store.Write{{ID: SanitizeNo(record.No), Doc: record.Fields()}}); err != nil {
		t.Fatal(err)
	}

	doc, err := st.mem.Get(ctx, store.CollectionKitchenInventory, "AB123")
	if err != nil {
		t.Fatal(err)
	}
	if doc["Location"] != "walk-in freezer" {
		t.Errorf("merge must preserve fields absent from the write, got %v", doc["Location"])
	}
	if doc["Description"] != "Chicken Thighs" || doc["Quantity"] != float64(40) {
		t.Errorf("specified fields must overwrite, got %v", doc)
	}
	secondStamp := doc[store.IngestedAtField].(time.Time)
	if secondStamp.Before(firstStamp) {
		t.Errorf("write timestamp must be refreshed on every write")
	}
}

func TestWriteEmptyIdentityCreatesDuplicates(t *testing.T) {
	st := newRecordingStore()
	writer := NewBatchWriter(st, store.CollectionKitchenInventory, 500)
	record := Record{No: "   ", Description: "Mystery", BaseUOM: "ea", Quantity: 1}
	write := store.Write{ID: SanitizeNo(record.No), Doc: record.Fields()}

	for i := 0; i < 2; i++ {
		if _, err := writer.Write(context.Background(), []store.Write{write}); err != nil {
			t.Fatal(err)
		}
	}

	// Without a deterministic identity each submission lands under a fresh
	// store-assigned key.
	if got := st.mem.Len(store.CollectionKitchenInventory); got != 2 {
		t.Errorf("expected 2 documents, got %d", got)
	}
}

func TestWriteIdempotentResubmission(t *testing.T) {
	st := newRecordingStore()
	writer := NewBatchWriter(st, store.CollectionKitchenInventory, 500)
	writes := makeWrites(10)

	for i := 0; i < 2; i++ {
		written, err := writer.Write(context.Background(), writes)
		if err != nil {
			t.Fatal(err)
		}
		if written != 10 {
			t.Errorf("expected 10 written, got %d", written)
		}
	}

	if got := st.mem.Len(store.CollectionKitchenInventory); got != 10 {
		t.Errorf("expected 10 documents after re-submission, got %d", got)
	}
}
