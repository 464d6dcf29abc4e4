package product

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
	"github.com/wichananm65/retail-shop-backend/internal/metrics"
)

type Service struct {
	repo    Repository
	metrics *metrics.Registry
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, m *metrics.Registry, log zerolog.Logger) *Service {
	return &Service{repo: repo, metrics: m, log: log, now: time.Now}
}

// UpsertProduct merges the recognised fields into the product record.
// Malformed or negative numbers are stored as zero rather than rejected.
func (s *Service) UpsertProduct(ctx context.Context, shop, category, name string, fields map[string]any) (Product, error) {
	shop, category, name = strings.TrimSpace(shop), strings.TrimSpace(category), strings.TrimSpace(name)
	if shop == "" || category == "" || name == "" {
		return Product{}, apperr.Validation("shopname, category and productName are required")
	}

	rec := docstore.Record{
		"productName": name,
		"updatedAt":   s.now().UTC().Format(time.RFC3339),
	}
	for _, f := range intFields {
		v, present := fields[f]
		if !present {
			continue
		}
		n, ok := coerceInt(v)
		if !ok {
			s.coerced(shop, category, name, f, v)
		}
		rec[f] = n
	}
	for _, f := range decimalFields {
		v, present := fields[f]
		if !present {
			continue
		}
		d, ok := coerceDecimal(v)
		if !ok {
			s.coerced(shop, category, name, f, v)
		}
		rec[f] = d.String()
	}
	for _, f := range stringFields {
		if v, present := fields[f]; present {
			rec[f] = coerceString(v)
		}
	}

	if err := s.repo.Merge(ctx, shop, category, name, rec); err != nil {
		return Product{}, apperr.Upstream("save product", err)
	}
	p, err := s.repo.Get(ctx, shop, category, name)
	if err != nil {
		return Product{}, apperr.Upstream("reload product", err)
	}
	return p, nil
}

func (s *Service) coerced(shop, category, name, field string, raw any) {
	s.metrics.CountCoercion()
	s.log.Warn().
		Str("shopname", shop).
		Str("category", category).
		Str("productName", name).
		Str("field", field).
		Interface("value", raw).
		Msg("invalid numeric value stored as 0")
}

// ListProducts returns the products of a category sorted by name.
func (s *Service) ListProducts(ctx context.Context, shop, category string) ([]Product, error) {
	shop, category = strings.TrimSpace(shop), strings.TrimSpace(category)
	if shop == "" || category == "" {
		return nil, apperr.Validation("shopname and category are required")
	}
	items, err := s.repo.List(ctx, shop, category)
	if err != nil {
		return nil, apperr.Upstream("list products", err)
	}
	return items, nil
}
