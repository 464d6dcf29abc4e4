package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/retail-shop-backend/internal/metrics"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	pb, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pb.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"pebble": pb,
	}
}

func TestMergeKeepsUnspecifiedFields(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "shops/shop1/drinks", "cola", Record{"price": 20, "stock": 5}, true))
			require.NoError(t, s.Set(ctx, "shops/shop1/drinks", "cola", Record{"price": 25}, true))

			got, err := s.Get(ctx, "shops/shop1/drinks", "cola")
			require.NoError(t, err)
			assert.Equal(t, 25.0, got.Float("price"))
			assert.Equal(t, int64(5), got.Int("stock"))
		})
	}
}

func TestReplaceDropsFields(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "customers", "alice", Record{"name": "alice", "address": "bkk"}, false))
			require.NoError(t, s.Set(ctx, "customers", "alice", Record{"name": "alice"}, false))

			got, err := s.Get(ctx, "customers", "alice")
			require.NoError(t, err)
			assert.Equal(t, "alice", got.String("name"))
			_, ok := got["address"]
			assert.False(t, ok)
		})
	}
}

func TestGetMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "shops", "nobody")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "shops", "shop1", Record{"phone": "0900000000"}, false))
			require.NoError(t, s.Delete(ctx, "shops", "shop1"))
			_, err = s.Get(ctx, "shops", "shop1")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.Delete(ctx, "shops", "shop1"), ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "nowhere", "shop1"), ErrNotFound)
		})
	}
}

func TestConcurrentDeleteSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "orders/p/cola", "t1", Record{"quantity": int64(1)}, false))

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				removed int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Delete(ctx, "orders/p/cola", "t1")
					if err == nil {
						mu.Lock()
						removed++
						mu.Unlock()
						return
					}
					assert.ErrorIs(t, err, ErrNotFound)
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, removed)
		})
	}
}

func TestStreamOrderedByKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"tea", "cola", "water"} {
				require.NoError(t, s.Set(ctx, "shops/shop1/drinks", k, Record{"productName": k}, false))
			}
			// a sibling collection sharing the prefix must not leak in
			require.NoError(t, s.Set(ctx, "shops/shop1/drinks2", "x", Record{}, false))

			docs, err := CollectAll(s.Stream(ctx, "shops/shop1/drinks"))
			require.NoError(t, err)
			require.Len(t, docs, 3)
			assert.Equal(t, "cola", docs[0].Key)
			assert.Equal(t, "tea", docs[1].Key)
			assert.Equal(t, "water", docs[2].Key)
			assert.Equal(t, "shops/shop1/drinks", docs[0].Collection)
			assert.Equal(t, "cola", docs[0].Data.String("productName"))

			empty, err := CollectAll(s.Stream(ctx, "shops/shop1/none"))
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStreamGroupAndCollections(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "orders/0900000000/tea", "t2", Record{"quantity": 1}, false))
			require.NoError(t, s.Set(ctx, "orders/0900000000/cola", "t1", Record{"quantity": 2}, false))
			require.NoError(t, s.Set(ctx, "orders/0900000000/cola", "t3", Record{"quantity": 3}, false))
			require.NoError(t, s.Set(ctx, "orders/0911111111/cola", "t9", Record{"quantity": 9}, false))
			require.NoError(t, s.Set(ctx, "orders", "0900000000", Record{"pendingCount": 3}, false))

			cols, err := s.Collections(ctx, "orders/0900000000")
			require.NoError(t, err)
			assert.Equal(t, []string{"cola", "tea"}, cols)

			none, err := s.Collections(ctx, "orders/0999999999")
			require.NoError(t, err)
			assert.Empty(t, none)

			docs, err := CollectAll(s.StreamGroup(ctx, []string{"orders/0900000000/cola", "orders/0900000000/tea"}))
			require.NoError(t, err)
			require.Len(t, docs, 3)
			assert.Equal(t, []string{"t1", "t3", "t2"}, []string{docs[0].Key, docs[1].Key, docs[2].Key})
			assert.Equal(t, int64(3), docs[1].Data.Int("quantity"))
		})
	}
}

func TestIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.Increment(ctx, "orders", "0900000000", "pendingCount", 1))
				}()
			}
			wg.Wait()
			require.NoError(t, s.Increment(ctx, "orders", "0900000000", "pendingCount", -5))

			got, err := s.Get(ctx, "orders", "0900000000")
			require.NoError(t, err)
			assert.Equal(t, int64(15), got.Int("pendingCount"))
		})
	}
}

func TestIncrementKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "orders", "p", Record{"confirmed": true}, false))
			require.NoError(t, s.Increment(ctx, "orders", "p", "pendingCount", 2))
			got, err := s.Get(ctx, "orders", "p")
			require.NoError(t, err)
			assert.True(t, got.Bool("confirmed"))
			assert.Equal(t, int64(2), got.Int("pendingCount"))
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			errMissing := errors.New("missing")
			err := s.Update(ctx, "orders/p/cola", "t1", func(cur Record, exists bool) (Record, error) {
				if !exists {
					return nil, errMissing
				}
				return cur, nil
			})
			assert.ErrorIs(t, err, errMissing)
			_, err = s.Get(ctx, "orders/p/cola", "t1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "orders/p/cola", "t1", Record{"quantity": 1, "status": "pending"}, false))
			require.NoError(t, s.Update(ctx, "orders/p/cola", "t1", func(cur Record, exists bool) (Record, error) {
				require.True(t, exists)
				cur["quantity"] = cur.Int("quantity") + 4
				return cur, nil
			}))
			got, err := s.Get(ctx, "orders/p/cola", "t1")
			require.NoError(t, err)
			assert.Equal(t, int64(5), got.Int("quantity"))
			assert.Equal(t, "pending", got.String("status"))
		})
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "c", "k", Record{"a": "1"}, false))
	got, err := s.Get(ctx, "c", "k")
	require.NoError(t, err)
	got["a"] = "changed"

	again, err := s.Get(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, "1", again.String("a"))
}

func TestInstrumentCountsOperations(t *testing.T) {
	ctx := context.Background()
	reg := metrics.NewRegistry()
	s := Instrument(NewMemoryStore(), reg)

	require.NoError(t, s.Set(ctx, "c", "k", Record{"a": 1}, true))
	_, err := s.Get(ctx, "c", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Increment(ctx, "c", "k", "n", 1))

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.GatewayOps.WithLabelValues(gatewayName, "merge", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.GatewayOps.WithLabelValues(gatewayName, "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.GatewayOps.WithLabelValues(gatewayName, "increment", "ok")))
}

func TestRecordAccessors(t *testing.T) {
	r, err := decodeRecord([]byte(`{"n": 3, "f": 2.5, "s": "x", "b": true, "p": "19.5"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.Int("n"))
	assert.Equal(t, 2.5, r.Float("f"))
	assert.Equal(t, 19.5, r.Float("p"))
	assert.Equal(t, "x", r.String("s"))
	assert.True(t, r.Bool("b"))
	assert.Equal(t, int64(0), r.Int("absent"))
	assert.Equal(t, "", r.String("n"))
	assert.Equal(t, "19.5", r.Decimal("p").String())
	assert.Equal(t, "2.5", r.Decimal("f").String())
	assert.True(t, r.Decimal("s").IsZero())
}
