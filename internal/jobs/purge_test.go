package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
)

func TestDayWindow(t *testing.T) {
	day := time.Date(2024, 3, 4, 12, 0, 0, 0, HST)
	start, end := DayWindow(day)

	wantStart := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("expected window start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("expected window end %v, got %v", wantEnd, end)
	}

	// 23:59 HST on Mar 4 is inside the Mar-4 window.
	lateMar4 := time.Date(2024, 3, 5, 9, 59, 0, 0, time.UTC)
	if lateMar4.Before(start) || !lateMar4.Before(end) {
		t.Errorf("expected %v inside [%v, %v)", lateMar4, start, end)
	}
	// 00:01 HST on Mar 5 is outside it.
	earlyMar5 := time.Date(2024, 3, 5, 10, 1, 0, 0, time.UTC)
	if earlyMar5.Before(end) {
		t.Errorf("expected %v outside [%v, %v)", earlyMar5, start, end)
	}
}

func TestDayWindowIgnoresHostZone(t *testing.T) {
	// The same instant expressed in another zone must land in the same
	// HST window.
	tokyo := time.FixedZone("JST", 9*60*60)
	a, _ := DayWindow(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	b, _ := DayWindow(time.Date(2024, 3, 5, 18, 0, 0, 0, tokyo))
	if !a.Equal(b) {
		t.Errorf("window start differs by host zone: %v vs %v", a, b)
	}
}

func seedChats(t *testing.T, mem *store.Memory) {
	t.Helper()
	err := mem.CommitBatch(context.Background(), store.CollectionChats, []store.Write{
		{ID: "midday-mar4", Doc: map[string]interface{}{"timestamp": time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC), "text": "prep list"}},
		{ID: "late-mar4", Doc: map[string]interface{}{"timestamp": time.Date(2024, 3, 5, 9, 59, 0, 0, time.UTC), "text": "closing"}},
		{ID: "early-mar5", Doc: map[string]interface{}{"timestamp": time.Date(2024, 3, 5, 10, 1, 0, 0, time.UTC), "text": "opening"}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPurgeDay(t *testing.T) {
	mem := store.NewMemory()
	seedChats(t, mem)
	job := NewPurgeJob(mem, store.CollectionChats)

	mar4 := time.Date(2024, 3, 4, 3, 0, 0, 0, HST)
	deleted, err := job.PurgeDay(context.Background(), mar4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if _, err := mem.Get(context.Background(), store.CollectionChats, "early-mar5"); err != nil {
		t.Errorf("Mar-5 document must survive a Mar-4 purge: %v", err)
	}
	if got := mem.Len(store.CollectionChats); got != 1 {
		t.Errorf("expected 1 document left, got %d", got)
	}
}

func TestPurgeDayIdempotent(t *testing.T) {
	mem := store.NewMemory()
	seedChats(t, mem)
	job := NewPurgeJob(mem, store.CollectionChats)
	mar4 := time.Date(2024, 3, 4, 3, 0, 0, 0, HST)

	if _, err := job.PurgeDay(context.Background(), mar4); err != nil {
		t.Fatal(err)
	}
	deleted, err := job.PurgeDay(context.Background(), mar4)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("re-running a purged window must delete nothing, got %d", deleted)
	}
}

// deleteFailingStore fails every delete.
type deleteFailingStore struct {
	*store.Memory
}

func (d *deleteFailingStore) Delete(ctx context.Context, collection, id string) error {
	return errors.New("permission denied")
}

func TestPurgeDayDeleteFailurePropagates(t *testing.T) {
	mem := store.NewMemory()
	seedChats(t, mem)
	job := NewPurgeJob(&deleteFailingStore{mem}, store.CollectionChats)

	deleted, err := job.PurgeDay(context.Background(), time.Date(2024, 3, 4, 3, 0, 0, 0, HST))
	if err == nil {
		t.Fatalf("expected delete failure to fail the run")
	}
	if deleted != 0 {
		t.Errorf("failed runs report no partial count, got %d", deleted)
	}
}
