// Package docstore is the keyed-record gateway: hierarchical collections of
// flat records with merge writes, atomic counters and lazy collection reads.
//
// Collection paths alternate collection and document IDs separated by "/",
// e.g. "orders/0900000000/cola". Identifiers are used verbatim.
package docstore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"
)

var (
	ErrNotFound = errors.New("document not found")
	// Done ends every Iterator. It is the same value as iterator.Done.
	Done = iterator.Done
)

// Doc is one record produced by an Iterator.
type Doc struct {
	Collection string
	Key        string
	Data       Record
}

// Iterator is a finite, non-restartable read. Next returns Done at the end.
type Iterator interface {
	Next() (Doc, error)
	Stop()
}

// UpdateFunc receives the current record (nil when absent) and returns the
// full replacement. Returning an error aborts the update with that error.
type UpdateFunc func(current Record, exists bool) (Record, error)

// Store is implemented by every document backend.
type Store interface {
	Get(ctx context.Context, collection, key string) (Record, error)
	// Set replaces the record, or with merge unions fields into it.
	Set(ctx context.Context, collection, key string, fields Record, merge bool) error
	// Delete removes the record and returns ErrNotFound when it was already
	// absent. Of several concurrent deletes of one record exactly one succeeds.
	Delete(ctx context.Context, collection, key string) error
	Stream(ctx context.Context, collection string) Iterator
	// StreamGroup reads several collections in one pass.
	StreamGroup(ctx context.Context, collections []string) Iterator
	// Collections lists the IDs of the sub-collections under a document path.
	Collections(ctx context.Context, docPath string) ([]string, error)
	// Increment adds delta to an integer field atomically, creating the
	// record and field when absent.
	Increment(ctx context.Context, collection, key, field string, delta int64) error
	// Update is a transactional read-modify-write of one record.
	Update(ctx context.Context, collection, key string, fn UpdateFunc) error
}

// CollectAll drains it and stops it.
func CollectAll(it Iterator) ([]Doc, error) {
	defer it.Stop()
	var out []Doc
	for {
		d, err := it.Next()
		if errors.Is(err, Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

type sliceIterator struct {
	docs []Doc
	pos  int
}

func (s *sliceIterator) Next() (Doc, error) {
	if s.pos >= len(s.docs) {
		return Doc{}, Done
	}
	d := s.docs[s.pos]
	s.pos++
	return d, nil
}

func (s *sliceIterator) Stop() { s.pos = len(s.docs) }

type errIterator struct{ err error }

func (e errIterator) Next() (Doc, error) { return Doc{}, e.err }
func (e errIterator) Stop()              {}

// chainIterator opens one Stream per collection, in order, as the previous
// one is exhausted.
type chainIterator struct {
	ctx         context.Context
	open        func(ctx context.Context, collection string) Iterator
	collections []string
	cur         Iterator
}

func newChainIterator(ctx context.Context, collections []string, open func(context.Context, string) Iterator) *chainIterator {
	return &chainIterator{ctx: ctx, open: open, collections: collections}
}

func (c *chainIterator) Next() (Doc, error) {
	for {
		if c.cur == nil {
			if len(c.collections) == 0 {
				return Doc{}, Done
			}
			c.cur = c.open(c.ctx, c.collections[0])
			c.collections = c.collections[1:]
		}
		d, err := c.cur.Next()
		if errors.Is(err, Done) {
			c.cur.Stop()
			c.cur = nil
			continue
		}
		return d, err
	}
}

func (c *chainIterator) Stop() {
	if c.cur != nil {
		c.cur.Stop()
		c.cur = nil
	}
	c.collections = nil
}
