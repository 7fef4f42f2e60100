package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/api/ingestion"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/config"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/jobs"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const mongoDatabase = "kds"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := utils.InitLogger(cfg.LogLevel, cfg.Environment); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer utils.Zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.Zlog.Fatal("Failed to open document store",
			zap.String("driver", cfg.StoreDriver),
			zap.Error(err))
	}
	defer closeStore()

	utils.Zlog.Info("Document store ready",
		zap.String("driver", cfg.StoreDriver),
		zap.String("region", cfg.Region))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := ingestion.NewRouter(st, cfg)

	// The purge schedule is evaluated in HST so the daily firing lands just
	// after the local calendar day closes, wherever the host runs.
	purge := jobs.NewPurgeJob(st, store.CollectionChats)
	scheduler := cron.New(cron.WithLocation(jobs.HST))
	if _, err := scheduler.AddFunc(cfg.PurgeSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := purge.Run(runCtx); err != nil {
			utils.Zlog.Error("Scheduled purge failed", zap.Error(err))
		}
	}); err != nil {
		utils.Zlog.Fatal("Invalid purge schedule",
			zap.String("schedule", cfg.PurgeSchedule),
			zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	utils.Zlog.Info("Server listening",
		zap.String("port", cfg.Port),
		zap.String("service", cfg.ServiceName))

	<-ctx.Done()
	utils.Zlog.Info("Shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
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
	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURI, mongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(closeCtx); err != nil {
				utils.Zlog.Warn("Failed to close MongoDB connection", zap.Error(err))
			}
		}
		return m, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
