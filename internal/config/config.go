package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	LogLevel       string
	Environment    string
	ServiceName    string
	Region         string
	IngestKey      string
	StoreDriver    string
	MongoURI       string
	DatabaseURL    string
	BatchSize      int
	RequestTimeout time.Duration
	PurgeSchedule  string
}

func LoadConfig() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "kds-inventory"
	}

	region := os.Getenv("REGION")
	if region == "" {
		region = "us-west1"
	}

	// Not required at startup: the ingestion endpoint answers 500 on every
	// request while the key is absent, which signals server misconfiguration
	// instead of refusing to boot.
	ingestKey := os.Getenv("INGEST_KEY")

	storeDriver := os.Getenv("STORE_DRIVER")
	if storeDriver == "" {
		storeDriver = "mongo"
	}

	mongoURI := os.Getenv("MONGO_URI")
	databaseURL := os.Getenv("DATABASE_URL")
	switch storeDriver {
	case "mongo":
		if mongoURI == "" {
			return nil, errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return nil, errors.New("STORE_DRIVER must be one of mongo, postgres, memory")
	}

	batchSize := 500 // document store per-transaction write ceiling
	if bs := os.Getenv("BATCH_SIZE"); bs != "" {
		if parsed, err := strconv.Atoi(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	requestTimeout := 60 * time.Second
	if rt := os.Getenv("REQUEST_TIMEOUT"); rt != "" {
		if parsed, err := time.ParseDuration(rt); err == nil && parsed > 0 {
			requestTimeout = parsed
		}
	}

	purgeSchedule := os.Getenv("PURGE_SCHEDULE")
	if purgeSchedule == "" {
		purgeSchedule = "0 0 * * *" // midnight, evaluated in HST
	}

	return &Config{
		Port:           port,
		LogLevel:       logLevel,
		Environment:    environment,
		ServiceName:    serviceName,
		Region:         region,
		IngestKey:      ingestKey,
		StoreDriver:    storeDriver,
		MongoURI:       mongoURI,
		DatabaseURL:    databaseURL,
		BatchSize:      batchSize,
		RequestTimeout: requestTimeout,
		PurgeSchedule:  purgeSchedule,
	}, nil
}
