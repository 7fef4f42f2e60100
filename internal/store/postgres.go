package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Postgres implements Store on a single JSONB documents table. The jsonb
// concatenation operator gives merge-upsert semantics and now() supplies the
// server-side write timestamp; one transaction per batch makes the batch
// atomic.
type Postgres struct {
	pool *pgxpool.Pool
}

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection  text        NOT NULL,
	id          text        NOT NULL,
	doc         jsonb       NOT NULL,
	ingested_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, documentsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure documents table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	var raw []byte
	var ingestedAt time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT doc, ingested_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw, &ingestedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	doc := make(map[string]interface{})
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	doc[IngestedAtField] = ingestedAt
	return doc, nil
}

func (p *Postgres) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO documents (collection, id, doc, ingested_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = documents.doc || EXCLUDED.doc, ingested_at = now()`

	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		raw, err := json.Marshal(w.Doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx, upsert, collection, id, raw); err != nil {
			return fmt.Errorf("batch write of %d documents to %s failed: %w", len(writes), collection, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("batch write of %d documents to %s failed: %w", len(writes), collection, err)
	}
	return nil
}

func (p *Postgres) FindInRange(ctx context.Context, collection, field string, start, end time.Time) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id FROM documents
		 WHERE collection = $1
		   AND doc ? $2
		   AND (doc->>$2)::timestamptz >= $3
		   AND (doc->>$2)::timestamptz < $4`,
		collection, field, start, end)
	if err != nil {
		return nil, fmt.Errorf("range query on %s.%s failed: %w", collection, field, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping checks whether the pool can still reach the database.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
