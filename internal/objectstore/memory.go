package objectstore

import (
	"context"
	"strings"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
	public      bool
}

// MemoryStore keeps objects in process memory. Listing follows first-insertion
// order, which deliberately differs from lexicographic order.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	order   []string
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *MemoryStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.objects[path]
	if !ok {
		m.order = append(m.order, path)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[path] = memObject{data: buf, contentType: contentType, public: cur.public}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryStore) Attrs(ctx context.Context, path string) (Attrs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return Attrs{}, ErrNotFound
	}
	return Attrs{Path: path, ContentType: obj.contentType, Size: int64(len(obj.data)), Public: obj.public}, nil
}

func (m *MemoryStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string, opts ListOptions) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []string
	seen := map[string]bool{}
	for _, name := range m.order {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !opts.Delimiter {
			items = append(items, name)
			continue
		}
		rest := name[len(prefix):]
		i := strings.Index(rest, "/")
		if i < 0 {
			continue
		}
		p := prefix + rest[:i+1]
		if !seen[p] {
			seen[p] = true
			items = append(items, p)
		}
	}
	return &sliceIterator{items: items}
}

func (m *MemoryStore) MakePublic(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	if !ok {
		return ErrNotFound
	}
	obj.public = true
	m.objects[path] = obj
	return nil
}

func (m *MemoryStore) PublicURL(path string) string {
	return m.baseURL + "/" + strings.TrimLeft(path, "/")
}
