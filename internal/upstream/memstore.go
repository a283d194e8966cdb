package upstream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is the default in-memory store. Records keep insertion order per
// collection so page boundaries stay stable between requests.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]Record
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	data := make(map[string][]Record, len(Collections))
	for _, col := range Collections {
		data[col] = nil
	}
	return &MemStore{data: data}
}

func (m *MemStore) List(ctx context.Context, collection string, page, perPage int) ([]Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.data[collection]
	total := len(records)

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]Record, end-start)
	for i, rec := range records[start:end] {
		out[i] = cloneRecord(rec)
	}
	return out, total, nil
}

func (m *MemStore) Get(ctx context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.data[collection] {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemStore) Create(ctx context.Context, collection string, attrs map[string]any) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{ID: uuid.NewString(), Attrs: cloneAttrs(attrs)}
	m.data[collection] = append(m.data[collection], rec)
	return cloneRecord(rec), nil
}

func (m *MemStore) Update(ctx context.Context, collection, id string, attrs map[string]any) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.data[collection] {
		if rec.ID == id {
			updated := Record{ID: id, Attrs: cloneAttrs(attrs)}
			m.data[collection][i] = updated
			return cloneRecord(updated), nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.data[collection]
	for i, rec := range records {
		if rec.ID == id {
			m.data[collection] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemStore) FindByAttr(ctx context.Context, collection, key, value string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.data[collection] {
		if s, ok := rec.Attrs[key].(string); ok && s == value {
			return cloneRecord(rec), true, nil
		}
	}
	return Record{}, false, nil
}

func cloneRecord(rec Record) Record {
	return Record{ID: rec.ID, Attrs: cloneAttrs(rec.Attrs)}
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if items, ok := v.([]map[string]any); ok {
			copied := make([]map[string]any, len(items))
			for i, item := range items {
				copied[i] = cloneAttrs(item)
			}
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}
