package shop

import (
	"context"
	"errors"

	"github.com/wichananm65/retail-shop-backend/internal/docstore"
)

const collection = "shops"

var (
	ErrNotFound = errors.New("shop not found")
	ErrExists   = errors.New("shop already exists")
)

type Repository interface {
	Get(ctx context.Context, name string) (Shop, error)
	// Create fails with ErrExists when the name is taken.
	Create(ctx context.Context, s Shop) error
}

type DocRepository struct {
	docs docstore.Store
}

func NewDocRepository(docs docstore.Store) *DocRepository {
	return &DocRepository{docs: docs}
}

func (r *DocRepository) Get(ctx context.Context, name string) (Shop, error) {
	rec, err := r.docs.Get(ctx, collection, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return Shop{}, ErrNotFound
	}
	if err != nil {
		return Shop{}, err
	}
	return Shop{
		Name:         name,
		Phone:        rec.String("phone"),
		PasswordHash: rec.String("passwordHash"),
		CreatedAt:    rec.String("createdAt"),
	}, nil
}

func (r *DocRepository) Create(ctx context.Context, s Shop) error {
	return r.docs.Update(ctx, collection, s.Name, func(_ docstore.Record, exists bool) (docstore.Record, error) {
		if exists {
			return nil, ErrExists
		}
		return docstore.Record{
			"shopname":     s.Name,
			"phone":        s.Phone,
			"passwordHash": s.PasswordHash,
			"createdAt":    s.CreatedAt,
		}, nil
	})
}
