package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/config"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/inventory"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Backfill tool: loads an exported JSON array of inventory rows and upserts
// it through the same validation and batching path as the HTTP endpoint.
// Usage: go run scripts/backfill_inventory.go -file export.json
func main() {
	jsonFile := flag.String("file", "inventory.json", "Path to the exported JSON array")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := utils.InitLogger(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Zlog.Sync()

	raw, err := os.ReadFile(*jsonFile)
	if err != nil {
		utils.Zlog.Fatal("Failed to read file", zap.String("file", *jsonFile), zap.Error(err))
	}
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		utils.Zlog.Fatal("File is not a JSON array", zap.String("file", *jsonFile), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.Zlog.Fatal("Failed to open document store",
			zap.String("driver", cfg.StoreDriver),
			zap.Error(err))
	}
	defer closeStore()

	writes := make([]store.Write, 0, len(items))
	skipped := 0
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

	writer := inventory.NewBatchWriter(st, store.CollectionKitchenInventory, cfg.BatchSize)
	written, err := writer.Write(ctx, writes)
	if err != nil {
		utils.Zlog.Fatal("Backfill aborted",
			zap.Int("committed", written),
			zap.Int("skipped", skipped),
			zap.Error(err))
	}

	utils.Zlog.Info("Backfill complete",
		zap.String("file", *jsonFile),
		zap.Int("written", written),
		zap.Int("skipped", skipped))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		m, err := store.NewMongo(ctx, cfg.MongoURI, "kds")
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close(context.Background()) }, nil
	}
}
