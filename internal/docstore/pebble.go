package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
)

// keySep separates the collection path from the record key.
const keySep = "\x00"

// PebbleStore keeps JSON-encoded records in an embedded Pebble database.
// Read-modify-write operations are serialized by a store-wide lock.
type PebbleStore struct {
	db *pebble.DB
	mu sync.Mutex
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func docKey(collection, key string) []byte {
	return []byte(collection + keySep + key)
}

func splitDocKey(k []byte) (collection, key string) {
	s := string(k)
	i := strings.Index(s, keySep)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(keySep):]
}

func (p *PebbleStore) get(collection, key string) (Record, error) {
	v, closer, err := p.db.Get(docKey(collection, key))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodeRecord(v)
}

func (p *PebbleStore) put(collection, key string, rec Record) error {
	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return p.db.Set(docKey(collection, key), b, pebble.Sync)
}

func (p *PebbleStore) Get(ctx context.Context, collection, key string) (Record, error) {
	return p.get(collection, key)
}

func (p *PebbleStore) Set(ctx context.Context, collection, key string, fields Record, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !merge {
		return p.put(collection, key, fields)
	}
	cur, err := p.get(collection, key)
	if err == ErrNotFound {
		return p.put(collection, key, fields)
	}
	if err != nil {
		return err
	}
	for k, v := range fields {
		cur[k] = v
	}
	return p.put(collection, key, cur)
}

func (p *PebbleStore) Delete(ctx context.Context, collection, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, closer, err := p.db.Get(docKey(collection, key))
	if err == pebble.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	closer.Close()
	return p.db.Delete(docKey(collection, key), pebble.Sync)
}

func (p *PebbleStore) Stream(ctx context.Context, collection string) Iterator {
	lower := []byte(collection + keySep)
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upperBound(lower)})
	if err != nil {
		return errIterator{err: err}
	}
	return &pebbleIterator{it: it}
}

func (p *PebbleStore) StreamGroup(ctx context.Context, collections []string) Iterator {
	return newChainIterator(ctx, append([]string(nil), collections...), p.Stream)
}

func (p *PebbleStore) Collections(ctx context.Context, docPath string) ([]string, error) {
	lower := []byte(docPath + "/")
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upperBound(lower)})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var cols []string
	for it.First(); it.Valid(); it.Next() {
		col, _ := splitDocKey(it.Key())
		cols = append(cols, col)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return childCollections(docPath, func(yield func(string)) {
		for _, c := range cols {
			yield(c)
		}
	}), nil
}

func (p *PebbleStore) Increment(ctx context.Context, collection, key, field string, delta int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, err := p.get(collection, key)
	if err == ErrNotFound {
		cur = Record{}
	} else if err != nil {
		return err
	}
	cur[field] = cur.Int(field) + delta
	return p.put(collection, key, cur)
}

func (p *PebbleStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, err := p.get(collection, key)
	exists := true
	if err == ErrNotFound {
		cur, exists = nil, false
	} else if err != nil {
		return err
	}
	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	return p.put(collection, key, next)
}

type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
}

func (p *pebbleIterator) Next() (Doc, error) {
	if p.it == nil {
		return Doc{}, Done
	}
	var ok bool
	if !p.started {
		ok = p.it.First()
		p.started = true
	} else {
		ok = p.it.Next()
	}
	if !ok {
		err := p.it.Error()
		p.Stop()
		if err != nil {
			return Doc{}, err
		}
		return Doc{}, Done
	}
	col, key := splitDocKey(p.it.Key())
	rec, err := decodeRecord(p.it.Value())
	if err != nil {
		return Doc{}, fmt.Errorf("decode %s/%s: %w", col, key, err)
	}
	return Doc{Collection: col, Key: key, Data: rec}, nil
}

func (p *pebbleIterator) Stop() {
	if p.it != nil {
		_ = p.it.Close()
		p.it = nil
	}
}

func upperBound(b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
