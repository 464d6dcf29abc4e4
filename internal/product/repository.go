package product

import (
	"context"
	"errors"
	"sort"

	"github.com/wichananm65/retail-shop-backend/internal/docstore"
)

type Repository interface {
	// Merge writes only the given fields, keeping the rest of the record.
	Merge(ctx context.Context, shop, category, name string, fields docstore.Record) error
	Get(ctx context.Context, shop, category, name string) (Product, error)
	List(ctx context.Context, shop, category string) ([]Product, error)
}

var ErrNotFound = errors.New("product not found")

type DocRepository struct {
	docs docstore.Store
}

func NewDocRepository(docs docstore.Store) *DocRepository {
	return &DocRepository{docs: docs}
}

func collectionPath(shop, category string) string {
	return "shops/" + shop + "/" + category
}

func (r *DocRepository) Merge(ctx context.Context, shop, category, name string, fields docstore.Record) error {
	return r.docs.Set(ctx, collectionPath(shop, category), name, fields, true)
}

func (r *DocRepository) Get(ctx context.Context, shop, category, name string) (Product, error) {
	rec, err := r.docs.Get(ctx, collectionPath(shop, category), name)
	if errors.Is(err, docstore.ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return fromRecord(shop, category, name, rec), nil
}

func (r *DocRepository) List(ctx context.Context, shop, category string) ([]Product, error) {
	docs, err := docstore.CollectAll(r.docs.Stream(ctx, collectionPath(shop, category)))
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromRecord(shop, category, d.Key, d.Data))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func fromRecord(shop, category, name string, rec docstore.Record) Product {
	return Product{
		Shop:            shop,
		Category:        category,
		Name:            name,
		NumRemainPack:   rec.Int(FieldNumRemainPack),
		NumPerPack:      rec.Int(FieldNumPerPack),
		Unit:            rec.String(FieldUnit),
		PricePerPack:    rec.Decimal(FieldPricePerPack),
		NumRemainSingle: rec.Int(FieldNumRemainSingle),
		PricePerSingle:  rec.Decimal(FieldPricePerSingle),
		ImageURL:        rec.String(FieldImageURL),
		UpdatedAt:       rec.String("updatedAt"),
	}
}
