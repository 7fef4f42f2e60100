package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HST is the fixed UTC-10 offset the purge windows are anchored to. Hawaii
// does not observe DST, so a fixed zone is deliberate: window boundaries must
// not move with the host timezone.
var HST = time.FixedZone("HST", -10*60*60)

// timestampField is the field purge candidates are ranged on.
const timestampField = "timestamp"

const deleteConcurrency = 16

// PurgeJob deletes every document of a time-stamped collection whose
// timestamp falls inside one HST calendar day. It runs once per scheduler
// firing and performs no internal retries: a failed run is retried whole by
// the scheduler, and re-running an already-purged window deletes nothing.
type PurgeJob struct {
	store      store.Store
	collection string
}

func NewPurgeJob(st store.Store, collection string) *PurgeJob {
	return &PurgeJob{store: st, collection: collection}
}

// DayWindow returns the half-open window [midnight, midnight+24h) of the HST
// calendar day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(HST)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, HST)
	return start, start.Add(24 * time.Hour)
}

// Run purges the HST calendar day that ended most recently. The daily
// schedule fires shortly after HST midnight, so this covers the day that
// just closed.
func (j *PurgeJob) Run(ctx context.Context) error {
	_, err := j.PurgeDay(ctx, time.Now().In(HST).AddDate(0, 0, -1))
	return err
}

// PurgeDay deletes every matched document of the given HST day and reports
// how many were removed. Deletions run concurrently; any single failure fails
// the whole run without partial-success accounting.
func (j *PurgeJob) PurgeDay(ctx context.Context, day time.Time) (int, error) {
	start, end := DayWindow(day)

	ids, err := j.store.FindInRange(ctx, j.collection, timestampField, start, end)
	if err != nil {
		return 0, fmt.Errorf("purge range query failed: %w", err)
	}
	if len(ids) == 0 {
		utils.Zlog.Info("Purge window empty",
			zap.String("collection", j.collection),
			zap.Time("windowStart", start))
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return j.store.Delete(gctx, j.collection, id)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("purge delete failed: %w", err)
	}

	utils.Zlog.Info("Purge completed",
		zap.String("collection", j.collection),
		zap.Time("windowStart", start),
		zap.Time("windowEnd", end),
		zap.Int("deleted", len(ids)))
	return len(ids), nil
}
