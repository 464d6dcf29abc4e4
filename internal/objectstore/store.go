// Package objectstore is the blob gateway used by the catalog: put, get,
// list, exists and public-read publishing over string paths.
package objectstore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"
)

var (
	ErrNotFound = errors.New("object not found")
	// Done ends every Iterator. It is the same value as iterator.Done.
	Done = iterator.Done
)

// Attrs describes a stored object.
type Attrs struct {
	Path        string
	ContentType string
	Size        int64
	Public      bool
}

// ListOptions controls List. With Delimiter set only the immediate
// sub-folder prefixes ("a/b/") under the listed prefix are produced.
type ListOptions struct {
	Delimiter bool
}

// Iterator yields object names (or prefixes) lazily in store-defined order.
// Next returns Done once the listing is exhausted.
type Iterator interface {
	Next() (string, error)
	Stop()
}

// Store is implemented by every blob backend.
type Store interface {
	// Put overwrites unconditionally.
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Attrs(ctx context.Context, path string) (Attrs, error)
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string, opts ListOptions) Iterator
	// MakePublic grants public read. There is no way to revoke it.
	MakePublic(ctx context.Context, path string) error
	PublicURL(path string) string
}

// Collect drains it into a slice and stops it.
func Collect(it Iterator) ([]string, error) {
	defer it.Stop()
	var out []string
	for {
		name, err := it.Next()
		if errors.Is(err, Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
}

type sliceIterator struct {
	items []string
	pos   int
}

func (s *sliceIterator) Next() (string, error) {
	if s.pos >= len(s.items) {
		return "", Done
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

func (s *sliceIterator) Stop() { s.pos = len(s.items) }

type errIterator struct{ err error }

func (e errIterator) Next() (string, error) { return "", e.err }
func (e errIterator) Stop()                 {}
