package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process backend for tests and single-node runs.
// Update callbacks run under the store lock and must not call back into it.
type MemoryStore struct {
	mu   sync.RWMutex
	cols map[string]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cols: make(map[string]map[string]Record)}
}

func (m *MemoryStore) Get(ctx context.Context, collection, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.cols[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, key string, fields Record, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(collection, key, fields, merge)
	return nil
}

func (m *MemoryStore) setLocked(collection, key string, fields Record, merge bool) {
	col, ok := m.cols[collection]
	if !ok {
		col = make(map[string]Record)
		m.cols[collection] = col
	}
	cur, exists := col[key]
	if !merge || !exists {
		col[key] = fields.Clone()
		return
	}
	next := cur.Clone()
	for k, v := range fields {
		next[k] = v
	}
	col[key] = next
}

func (m *MemoryStore) Delete(ctx context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.cols[collection]
	if !ok {
		return ErrNotFound
	}
	if _, ok := col[key]; !ok {
		return ErrNotFound
	}
	delete(col, key)
	if len(col) == 0 {
		delete(m.cols, collection)
	}
	return nil
}

// Stream snapshots the collection at call time, ordered by key.
func (m *MemoryStore) Stream(ctx context.Context, collection string) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col := m.cols[collection]
	docs := make([]Doc, 0, len(col))
	for k, rec := range col {
		docs = append(docs, Doc{Collection: collection, Key: k, Data: rec.Clone()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return &sliceIterator{docs: docs}
}

func (m *MemoryStore) StreamGroup(ctx context.Context, collections []string) Iterator {
	return newChainIterator(ctx, append([]string(nil), collections...), m.Stream)
}

func (m *MemoryStore) Collections(ctx context.Context, docPath string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return childCollections(docPath, func(yield func(string)) {
		for col := range m.cols {
			yield(col)
		}
	}), nil
}

func (m *MemoryStore) Increment(ctx context.Context, collection, key, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.cols[collection][key]
	m.setLocked(collection, key, Record{field: cur.Int(field) + delta}, true)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.cols[collection][key]
	if exists {
		cur = cur.Clone()
	}
	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	m.setLocked(collection, key, next, false)
	return nil
}

// childCollections returns the sorted, distinct IDs of collections directly
// below docPath, given every known collection path.
func childCollections(docPath string, all func(yield func(string))) []string {
	prefix := docPath + "/"
	seen := map[string]bool{}
	var out []string
	all(func(col string) {
		if !strings.HasPrefix(col, prefix) {
			return
		}
		id := col[len(prefix):]
		if i := strings.Index(id, "/"); i >= 0 {
			id = id[:i]
		}
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	})
	sort.Strings(out)
	return out
}
