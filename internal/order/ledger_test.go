package order

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
)

const phone = "0900000000"

func newLedgers(t *testing.T) map[string]*Ledger {
	t.Helper()
	pb, err := docstore.NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pb.Close() })
	return map[string]*Ledger{
		"memory": NewLedger(docstore.NewMemoryStore(), zerolog.Nop()),
		"pebble": NewLedger(pb, zerolog.Nop()),
	}
}

func TestPlaceThenDeleteFromZeroStaysZero(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			o, err := l.PlaceOrder(ctx, phone, "cola", 2, "can", decimal.RequireFromString("15"), "")
			require.NoError(t, err)

			s, err := l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, int64(0), s.PendingCount)

			count, err := l.DeleteOrder(ctx, phone, "cola", o.Timestamp)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)

			s, err = l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, int64(0), s.PendingCount)
		})
	}
}

func TestConcurrentDeletesNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			const n = 8
			stamps := make([]string, n)
			for i := range stamps {
				o, err := l.PlaceOrder(ctx, phone, "cola", 1, "can", decimal.NewFromInt(10), "")
				require.NoError(t, err)
				stamps[i] = o.Timestamp
			}
			_, err := l.IncrementPending(ctx, phone)
			require.NoError(t, err)

			var wg sync.WaitGroup
			for _, ts := range stamps {
				wg.Add(1)
				go func(ts string) {
					defer wg.Done()
					_, err := l.DeleteOrder(ctx, phone, "cola", ts)
					assert.NoError(t, err)
				}(ts)
			}
			wg.Wait()

			s, err := l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, int64(0), s.PendingCount)

			orders, err := l.GetOrders(ctx, phone)
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestConcurrentDeletesOfOneOrderDecrementOnce(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			first, err := l.PlaceOrder(ctx, phone, "cola", 1, "can", decimal.NewFromInt(10), "")
			require.NoError(t, err)
			_, err = l.PlaceOrder(ctx, phone, "cola", 2, "can", decimal.NewFromInt(10), "")
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				_, err = l.IncrementPending(ctx, phone)
				require.NoError(t, err)
			}

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				deleted int
			)
			for i := 0; i < 6; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := l.DeleteOrder(ctx, phone, "cola", first.Timestamp)
					if err == nil {
						mu.Lock()
						deleted++
						mu.Unlock()
						return
					}
					assert.True(t, apperr.Is(err, apperr.KindNotFound))
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, deleted)

			s, err := l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, int64(1), s.PendingCount)

			orders, err := l.GetOrders(ctx, phone)
			require.NoError(t, err)
			assert.Len(t, orders, 1)
		})
	}
}

func TestUpdateOrderRequiresExisting(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.UpdateOrder(ctx, phone, "cola", "2024-01-01T00:00:00.000000000Z", 3)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))

			orders, err := l.GetOrders(ctx, phone)
			require.NoError(t, err)
			assert.Empty(t, orders)

			o, err := l.PlaceOrder(ctx, phone, "cola", 1, "can", decimal.RequireFromString("12.5"), "http://img/cola.jpg")
			require.NoError(t, err)
			updated, err := l.UpdateOrder(ctx, phone, "cola", o.Timestamp, 4)
			require.NoError(t, err)
			assert.Equal(t, int64(4), updated.Quantity)
			assert.Equal(t, "can", updated.UnitLabel)
			assert.Equal(t, "12.5", updated.UnitPrice.String())
			assert.Equal(t, o.CreatedAt, updated.CreatedAt)
			assert.Greater(t, updated.UpdatedAt, o.UpdatedAt)
		})
	}
}

func TestUnitPriceKeepsFullPrecision(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.PlaceOrder(ctx, phone, "cola", 1, "can", decimal.RequireFromString("98765432109876.123456"), "")
			require.NoError(t, err)
			orders, err := l.GetOrders(ctx, phone)
			require.NoError(t, err)
			require.Len(t, orders, 1)
			assert.Equal(t, "98765432109876.123456", orders[0].UnitPrice.String())
		})
	}
}

func TestDeleteMissingOrder(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.IncrementPending(ctx, phone)
			require.NoError(t, err)

			_, err = l.DeleteOrder(ctx, phone, "cola", "nope")
			assert.True(t, apperr.Is(err, apperr.KindNotFound))

			// a failed delete leaves the counter alone
			s, err := l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, int64(1), s.PendingCount)
		})
	}
}

func TestGetOrdersAcrossProducts(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.PlaceOrder(ctx, phone, "tea", 1, "box", decimal.NewFromInt(5), "")
			require.NoError(t, err)
			first, err := l.PlaceOrder(ctx, phone, "cola", 2, "can", decimal.NewFromInt(15), "")
			require.NoError(t, err)
			second, err := l.PlaceOrder(ctx, phone, "cola", 3, "can", decimal.NewFromInt(15), "")
			require.NoError(t, err)
			_, err = l.PlaceOrder(ctx, "0911111111", "cola", 9, "can", decimal.NewFromInt(15), "")
			require.NoError(t, err)

			orders, err := l.GetOrders(ctx, phone)
			require.NoError(t, err)
			require.Len(t, orders, 3)
			assert.Equal(t, "cola", orders[0].ProductName)
			assert.Equal(t, first.Timestamp, orders[0].Timestamp)
			assert.Equal(t, second.Timestamp, orders[1].Timestamp)
			assert.Equal(t, "tea", orders[2].ProductName)
			assert.Equal(t, int64(3), orders[1].Quantity)
			assert.Equal(t, phone, orders[2].Phone)
		})
	}
}

func TestPendingSummaryLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, l := range newLedgers(t) {
		t.Run(name, func(t *testing.T) {
			s, err := l.GetPendingCount(ctx, phone)
			require.NoError(t, err)
			assert.Equal(t, Summary{Phone: phone}, s)

			for i := 0; i < 3; i++ {
				_, err = l.IncrementPending(ctx, phone)
				require.NoError(t, err)
			}
			s, err = l.SetConfirmed(ctx, phone, true)
			require.NoError(t, err)
			assert.Equal(t, int64(3), s.PendingCount)
			assert.True(t, s.Confirmed)
		})
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	l := NewLedger(docstore.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	_, err := l.PlaceOrder(ctx, "", "cola", 1, "", decimal.Zero, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = l.PlaceOrder(ctx, phone, "cola", 0, "", decimal.Zero, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = l.PlaceOrder(ctx, phone, "cola", 1, "", decimal.NewFromInt(-1), "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestClockIsStrictlyMonotonic(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := newClock(func() time.Time { return fixed })

	var keys []string
	for i := 0; i < 5; i++ {
		keys = append(keys, c.Next().Format(KeyLayout))
	}
	assert.True(t, sort.StringsAreSorted(keys))
	for i := 1; i < len(keys); i++ {
		assert.NotEqual(t, keys[i-1], keys[i])
	}
	assert.Equal(t, "2024-05-01T10:00:00.000000000Z", keys[0])
	assert.Equal(t, "2024-05-01T10:00:00.000000001Z", keys[1])

	parsed, err := time.Parse(time.RFC3339Nano, keys[4])
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(4*time.Nanosecond), parsed)
}
