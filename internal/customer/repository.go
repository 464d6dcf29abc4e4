package customer

import (
	"context"
	"errors"

	"github.com/wichananm65/retail-shop-backend/internal/docstore"
)

const collection = "customers"

var (
	ErrNotFound = errors.New("customer not found")
	ErrExists   = errors.New("customer already exists")
)

type Repository interface {
	Get(ctx context.Context, name string) (Customer, error)
	Create(ctx context.Context, c Customer) error
}

type DocRepository struct {
	docs docstore.Store
}

func NewDocRepository(docs docstore.Store) *DocRepository {
	return &DocRepository{docs: docs}
}

func (r *DocRepository) Get(ctx context.Context, name string) (Customer, error) {
	rec, err := r.docs.Get(ctx, collection, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return Customer{
		Name:         name,
		PhoneNumber:  rec.String("phoneNumber"),
		Address:      rec.String("address"),
		Shopname:     rec.String("shopname"),
		PasswordHash: rec.String("passwordHash"),
		CreatedAt:    rec.String("createdAt"),
	}, nil
}

func (r *DocRepository) Create(ctx context.Context, c Customer) error {
	return r.docs.Update(ctx, collection, c.Name, func(_ docstore.Record, exists bool) (docstore.Record, error) {
		if exists {
			return nil, ErrExists
		}
		return docstore.Record{
			"customerName": c.Name,
			"phoneNumber":  c.PhoneNumber,
			"address":      c.Address,
			"shopname":     c.Shopname,
			"passwordHash": c.PasswordHash,
			"createdAt":    c.CreatedAt,
		}, nil
	})
}
