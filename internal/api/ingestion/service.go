package ingestion

import (
	"context"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/inventory"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	writer *inventory.BatchWriter
}

func NewService(writer *inventory.BatchWriter) *Service {
	return &Service{writer: writer}
}

// Ingest runs every element through validation and identity derivation, then
// hands the surviving records to the batch writer in their original order.
// written is only meaningful when err is nil; a mid-batch store failure is a
// request-level error, not a partial count.
func (s *Service) Ingest(ctx context.Context, items []interface{}) (written, skipped int, err error) {
	ingestID := uuid.New().String()

	writes := make([]store.Write, 0, len(items))
	for _, item := range items {
		record, ok := inventory.ParseRecord(item)
		if !ok {
			skipped++
			continue
		}
		writes = append(writes, store.Write{
			ID:  inventory.SanitizeNo(record.No),
			Doc: record.Fields(),
		})
	}

	utils.Zlog.Info("Processing inventory ingest",
		zap.String("ingestId", ingestID),
		zap.Int("received", len(items)),
		zap.Int("valid", len(writes)),
		zap.Int("skipped", skipped))

	written, err = s.writer.Write(ctx, writes)
	if err != nil {
		utils.Zlog.Error("Inventory ingest failed",
			zap.String("ingestId", ingestID),
			zap.Int("committed", written),
			zap.Error(err))
		return 0, skipped, err
	}

	utils.Zlog.Info("Inventory ingest completed",
		zap.String("ingestId", ingestID),
		zap.Int("written", written),
		zap.Int("skipped", skipped))
	return written, skipped, nil
}
