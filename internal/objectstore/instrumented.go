package objectstore

import (
	"context"
	"time"

	"github.com/wichananm65/retail-shop-backend/internal/metrics"
)

const gatewayName = "objectstore"

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

func (s *instrumented) Put(ctx context.Context, path string, data []byte, contentType string) (err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "put", start, err) }(time.Now())
	return s.next.Put(ctx, path, data, contentType)
}

func (s *instrumented) Get(ctx context.Context, path string) (b []byte, err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "get", start, ignoreNotFound(err)) }(time.Now())
	return s.next.Get(ctx, path)
}

func (s *instrumented) Attrs(ctx context.Context, path string) (a Attrs, err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "attrs", start, ignoreNotFound(err)) }(time.Now())
	return s.next.Attrs(ctx, path)
}

func (s *instrumented) Exists(ctx context.Context, path string) (ok bool, err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "exists", start, err) }(time.Now())
	return s.next.Exists(ctx, path)
}

// List only counts the call; the iterator itself is lazy.
func (s *instrumented) List(ctx context.Context, prefix string, opts ListOptions) Iterator {
	s.m.Observe(gatewayName, "list", time.Now(), nil)
	return s.next.List(ctx, prefix, opts)
}

func (s *instrumented) MakePublic(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { s.m.Observe(gatewayName, "make_public", start, err) }(time.Now())
	return s.next.MakePublic(ctx, path)
}

func (s *instrumented) PublicURL(path string) string { return s.next.PublicURL(path) }

func ignoreNotFound(err error) error {
	if err == ErrNotFound {
		return nil
	}
	return err
}
