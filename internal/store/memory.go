package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and STORE_DRIVER=memory. It
// reproduces the store contract exactly: atomic batches, merge-upserts, and
// the write-time stamp on IngestedAtField.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collections[collection]
	if coll == nil {
		coll = make(map[string]map[string]interface{})
		m.collections[collection] = coll
	}

	now := time.Now().UTC()
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		doc := coll[id]
		if doc == nil {
			doc = make(map[string]interface{}, len(w.Doc)+1)
			coll[id] = doc
		}
		for k, v := range w.Doc {
			doc[k] = v
		}
		doc[IngestedAtField] = now
	}
	return nil
}

func (m *Memory) FindInRange(ctx context.Context, collection, field string, start, end time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, doc := range m.collections[collection] {
		ts, ok := fieldTime(doc[field])
		if !ok {
			continue
		}
		if !ts.Before(start) && ts.Before(end) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

// Len reports the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

// IDs returns every document id in a collection.
func (m *Memory) IDs(collection string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.collections[collection]))
	for id := range m.collections[collection] {
		ids = append(ids, id)
	}
	return ids
}

func fieldTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
