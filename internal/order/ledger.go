package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
)

const (
	summaryCollection = "orders"
	fieldPending      = "pendingCount"
	fieldConfirmed    = "confirmed"
)

var errOrderMissing = errors.New("order missing")

// Ledger owns order history and the per-phone pending counter.
type Ledger struct {
	docs  docstore.Store
	clock *clock
	log   zerolog.Logger
}

func NewLedger(docs docstore.Store, log zerolog.Logger) *Ledger {
	return &Ledger{docs: docs, clock: newClock(time.Now), log: log}
}

func orderCollection(phone, productName string) string {
	return summaryCollection + "/" + phone + "/" + productName
}

// PlaceOrder records a new order under a server-assigned timestamp. The
// pending counter is left alone.
func (l *Ledger) PlaceOrder(ctx context.Context, phone, productName string, quantity int64, unitLabel string, unitPrice decimal.Decimal, imageURL string) (Order, error) {
	phone, productName = strings.TrimSpace(phone), strings.TrimSpace(productName)
	if phone == "" || productName == "" {
		return Order{}, apperr.Validation("phone and productName are required")
	}
	if quantity <= 0 {
		return Order{}, apperr.Validation("quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return Order{}, apperr.Validation("unitPrice must not be negative")
	}

	ts := l.clock.Next().Format(KeyLayout)
	o := Order{
		Phone:       phone,
		ProductName: productName,
		Timestamp:   ts,
		Quantity:    quantity,
		ImageURL:    imageURL,
		UnitLabel:   unitLabel,
		UnitPrice:   unitPrice,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := l.docs.Set(ctx, orderCollection(phone, productName), ts, toRecord(o), false); err != nil {
		return Order{}, apperr.Upstream("place order", err)
	}
	l.log.Info().Str("phone", phone).Str("productName", productName).Str("timestamp", ts).Msg("order placed")
	return o, nil
}

// UpdateOrder changes the quantity of an existing order.
func (l *Ledger) UpdateOrder(ctx context.Context, phone, productName, timestamp string, quantity int64) (Order, error) {
	if phone == "" || productName == "" || timestamp == "" {
		return Order{}, apperr.Validation("phone, productName and timestamp are required")
	}
	if quantity <= 0 {
		return Order{}, apperr.Validation("quantity must be positive")
	}

	var updated docstore.Record
	err := l.docs.Update(ctx, orderCollection(phone, productName), timestamp, func(cur docstore.Record, exists bool) (docstore.Record, error) {
		if !exists {
			return nil, errOrderMissing
		}
		cur["quantity"] = quantity
		cur["updatedAt"] = l.clock.Next().Format(KeyLayout)
		updated = cur
		return cur, nil
	})
	if errors.Is(err, errOrderMissing) {
		return Order{}, apperr.NotFound("order %s/%s/%s not found", phone, productName, timestamp)
	}
	if err != nil {
		return Order{}, apperr.Upstream("update order", err)
	}
	return fromRecord(phone, productName, timestamp, updated), nil
}

// DeleteOrder removes an order and decrements the pending counter, clamping
// it at zero afterwards. The delete and the decrement are not one transaction.
func (l *Ledger) DeleteOrder(ctx context.Context, phone, productName, timestamp string) (int64, error) {
	if phone == "" || productName == "" || timestamp == "" {
		return 0, apperr.Validation("phone, productName and timestamp are required")
	}
	// only the call that actually removed the row may decrement
	err := l.docs.Delete(ctx, orderCollection(phone, productName), timestamp)
	if errors.Is(err, docstore.ErrNotFound) {
		return 0, apperr.NotFound("order %s/%s/%s not found", phone, productName, timestamp)
	}
	if err != nil {
		return 0, apperr.Upstream("delete order", err)
	}
	if err := l.docs.Increment(ctx, summaryCollection, phone, fieldPending, -1); err != nil {
		return 0, apperr.Upstream("decrement pending count", err)
	}

	var count int64
	err = l.docs.Update(ctx, summaryCollection, phone, func(cur docstore.Record, exists bool) (docstore.Record, error) {
		if !exists {
			cur = docstore.Record{fieldPending: int64(0), fieldConfirmed: false}
		}
		if n := cur.Int(fieldPending); n < 0 {
			l.log.Warn().Str("phone", phone).Int64("pendingCount", n).Msg("pending count clamped to zero")
			cur[fieldPending] = int64(0)
		}
		count = cur.Int(fieldPending)
		return cur, nil
	})
	if err != nil {
		return 0, apperr.Upstream("clamp pending count", err)
	}
	return count, nil
}

// GetOrders returns every order of a phone grouped by product name, oldest
// first within a product.
func (l *Ledger) GetOrders(ctx context.Context, phone string) ([]Order, error) {
	if phone == "" {
		return nil, apperr.Validation("phone is required")
	}
	products, err := l.docs.Collections(ctx, summaryCollection+"/"+phone)
	if err != nil {
		return nil, apperr.Upstream("list order products", err)
	}
	if len(products) == 0 {
		return []Order{}, nil
	}
	cols := make([]string, 0, len(products))
	for _, p := range products {
		cols = append(cols, orderCollection(phone, p))
	}

	it := l.docs.StreamGroup(ctx, cols)
	defer it.Stop()
	out := make([]Order, 0)
	prefix := summaryCollection + "/" + phone + "/"
	for {
		d, err := it.Next()
		if errors.Is(err, docstore.Done) {
			break
		}
		if err != nil {
			return nil, apperr.Upstream("read orders", err)
		}
		out = append(out, fromRecord(phone, strings.TrimPrefix(d.Collection, prefix), d.Key, d.Data))
	}
	return out, nil
}

// GetPendingCount reads the summary, creating it as {0, false} when absent.
func (l *Ledger) GetPendingCount(ctx context.Context, phone string) (Summary, error) {
	if phone == "" {
		return Summary{}, apperr.Validation("phone is required")
	}
	rec, err := l.docs.Get(ctx, summaryCollection, phone)
	if err == nil {
		return summaryFrom(phone, rec), nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return Summary{}, apperr.Upstream("load order summary", err)
	}

	err = l.docs.Update(ctx, summaryCollection, phone, func(cur docstore.Record, exists bool) (docstore.Record, error) {
		if !exists {
			cur = docstore.Record{fieldPending: int64(0), fieldConfirmed: false}
		}
		rec = cur
		return cur, nil
	})
	if err != nil {
		return Summary{}, apperr.Upstream("init order summary", err)
	}
	return summaryFrom(phone, rec), nil
}

func (l *Ledger) IncrementPending(ctx context.Context, phone string) (Summary, error) {
	if phone == "" {
		return Summary{}, apperr.Validation("phone is required")
	}
	if err := l.docs.Increment(ctx, summaryCollection, phone, fieldPending, 1); err != nil {
		return Summary{}, apperr.Upstream("increment pending count", err)
	}
	return l.GetPendingCount(ctx, phone)
}

func (l *Ledger) SetConfirmed(ctx context.Context, phone string, confirmed bool) (Summary, error) {
	if phone == "" {
		return Summary{}, apperr.Validation("phone is required")
	}
	if err := l.docs.Set(ctx, summaryCollection, phone, docstore.Record{fieldConfirmed: confirmed}, true); err != nil {
		return Summary{}, apperr.Upstream("set confirmed", err)
	}
	return l.GetPendingCount(ctx, phone)
}

func summaryFrom(phone string, rec docstore.Record) Summary {
	n := rec.Int(fieldPending)
	if n < 0 {
		n = 0
	}
	return Summary{Phone: phone, PendingCount: n, Confirmed: rec.Bool(fieldConfirmed)}
}

func toRecord(o Order) docstore.Record {
	return docstore.Record{
		"productName": o.ProductName,
		"quantity":    o.Quantity,
		"imageUrl":    o.ImageURL,
		"unitLabel":   o.UnitLabel,
		"unitPrice":   o.UnitPrice.String(),
		"createdAt":   o.CreatedAt,
		"updatedAt":   o.UpdatedAt,
	}
}

func fromRecord(phone, productName, timestamp string, rec docstore.Record) Order {
	return Order{
		Phone:       phone,
		ProductName: productName,
		Timestamp:   timestamp,
		Quantity:    rec.Int("quantity"),
		ImageURL:    rec.String("imageUrl"),
		UnitLabel:   rec.String("unitLabel"),
		UnitPrice:   rec.Decimal("unitPrice"),
		CreatedAt:   rec.String("createdAt"),
		UpdatedAt:   rec.String("updatedAt"),
	}
}
