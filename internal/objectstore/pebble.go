package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
)

// Object bytes and metadata live under separate key spaces so listing only
// touches object keys.
var (
	objTag  = []byte("o\x00")
	metaTag = []byte("m\x00")
)

type pebbleMeta struct {
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Public      bool   `json:"public"`
}

// PebbleStore is the self-hosted object backend. Listing is lexicographic.
type PebbleStore struct {
	db      *pebble.DB
	baseURL string
}

func NewPebbleStore(dir, baseURL string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func objKey(path string) []byte  { return append(append([]byte(nil), objTag...), path...) }
func metaKey(path string) []byte { return append(append([]byte(nil), metaTag...), path...) }

func (p *PebbleStore) readMeta(path string) (pebbleMeta, error) {
	v, closer, err := p.db.Get(metaKey(path))
	if err == pebble.ErrNotFound {
		return pebbleMeta{}, ErrNotFound
	}
	if err != nil {
		return pebbleMeta{}, err
	}
	defer closer.Close()
	var m pebbleMeta
	if err := json.Unmarshal(v, &m); err != nil {
		return pebbleMeta{}, err
	}
	return m, nil
}

func (p *PebbleStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := pebbleMeta{ContentType: contentType, Size: int64(len(data))}
	if cur, err := p.readMeta(path); err == nil {
		meta.Public = cur.Public
	} else if err != ErrNotFound {
		return err
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	// data and metadata land together or not at all
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set(objKey(path), data, nil); err != nil {
		return err
	}
	if err := b.Set(metaKey(path), mb, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleStore) Get(ctx context.Context, path string) ([]byte, error) {
	v, closer, err := p.db.Get(objKey(path))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *PebbleStore) Attrs(ctx context.Context, path string) (Attrs, error) {
	m, err := p.readMeta(path)
	if err != nil {
		return Attrs{}, err
	}
	return Attrs{Path: path, ContentType: m.ContentType, Size: m.Size, Public: m.Public}, nil
}

func (p *PebbleStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := p.readMeta(path)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (p *PebbleStore) List(ctx context.Context, prefix string, opts ListOptions) Iterator {
	lower := objKey(prefix)
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upperBound(lower)})
	if err != nil {
		return errIterator{err: err}
	}
	return &pebbleIterator{it: it, prefix: prefix, delimiter: opts.Delimiter}
}

func (p *PebbleStore) MakePublic(ctx context.Context, path string) error {
	m, err := p.readMeta(path)
	if err != nil {
		return err
	}
	m.Public = true
	mb, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.db.Set(metaKey(path), mb, pebble.Sync)
}

func (p *PebbleStore) PublicURL(path string) string {
	return p.baseURL + "/" + strings.TrimLeft(path, "/")
}

type pebbleIterator struct {
	it        *pebble.Iterator
	prefix    string
	delimiter bool
	started   bool
	seek      []byte
}

func (p *pebbleIterator) Next() (string, error) {
	if p.it == nil {
		return "", Done
	}
	for {
		var ok bool
		switch {
		case !p.started:
			ok = p.it.First()
			p.started = true
		case p.seek != nil:
			ok = p.it.SeekGE(p.seek)
			p.seek = nil
		default:
			ok = p.it.Next()
		}
		if !ok {
			err := p.it.Error()
			p.Stop()
			if err != nil {
				return "", err
			}
			return "", Done
		}

		name := string(p.it.Key()[len(objTag):])
		if !p.delimiter {
			return name, nil
		}
		rest := name[len(p.prefix):]
		i := strings.Index(rest, "/")
		if i < 0 {
			continue
		}
		folder := p.prefix + rest[:i+1]
		// '0' sorts right after '/', so this skips the rest of the folder
		p.seek = objKey(folder[:len(folder)-1] + "0")
		return folder, nil
	}
}

func (p *pebbleIterator) Stop() {
	if p.it != nil {
		_ = p.it.Close()
		p.it = nil
	}
}

// upperBound returns the smallest key greater than every key with prefix b.
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
