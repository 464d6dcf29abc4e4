package docstore

import (
	"context"
	"time"

	"github.com/wichananm65/retail-shop-backend/internal/metrics"
)

const gatewayName = "docstore"

type instrumented struct {
	next Store
	m    *metrics.Registry
}

// Instrument records per-operation counters and latency for next.
func Instrument(next Store, m *metrics.Registry) Store {
	if m == nil {
		return next
	}
	return &instrumented{next: next, m: m}
}

func (s *instrumented) Get(ctx context.Context, collection, key string) (r Record, err error) {
	defer func(start time.Time) {
		if err == ErrNotFound {
			s.m.Observe(gatewayName, "get", start, nil)
			return
		}
		s.m.Observe(gatewayName, "get", start, err)
	}(time.Now())
	return s.next.Get(ctx, collection, key)
}

func (s *instrumented) Set(ctx context.Context, collection, key string, fields Record, merge bool) (err error) {
	op := "set"
	if merge {
		op = "merge"
	}
	defer func(start time.Time) { s.m.Observe(gatewayName, op, start, err) }(time.Now())
	return s.next.Set(ctx, collection, key, fields, merge)
}

func (s *instrumented) Delete(ctx context.Context, collection, key string) (err error) {
	defer func(start time.Time) {
		if err == ErrNotFound {
			s.m.Observe(gatewayName, "delete", start, nil)
			return
		}
		s.m.Observe(gatewayName, "delete", start, err)
	}(time.Now())
	return s.next.Delete(ctx, collection, key)
}

func (s *instrumented) Stream(ctx context.Context, collection string) Iterator {
	s.m.Observe(gatewayName, "stream", time.Now(), nil)
	return s.next.Stream(ctx, collection)
}

func (s *instrumented) StreamGroup(ctx context.Context, collections []string) Iterator {
	s.m.Observe(gatewayName, "stream_group", time.Now(), nil)
	return s.next.StreamGroup(ctx, collections)
}

func (s *instrumented) Collections(ctx context.Context, docPath string) (ids []string, err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "collections", start, err) }(time.Now())
	return s.next.Collections(ctx, docPath)
}

func (s *instrumented) Increment(ctx context.Context, collection, key, field string, delta int64) (err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "increment", start, err) }(time.Now())
	return s.next.Increment(ctx, collection, key, field, delta)
}

func (s *instrumented) Update(ctx context.Context, collection, key string, fn UpdateFunc) (err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "update", start, err) }(time.Now())
	return s.next.Update(ctx, collection, key, fn)
}
