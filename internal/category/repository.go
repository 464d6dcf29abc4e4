package category

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/wichananm65/retail-shop-backend/internal/blobpath"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

// Repository reads category folders and their images from object storage.
type Repository interface {
	// Names returns the distinct category folder names of a shop, sorted.
	Names(ctx context.Context, shop string) ([]string, error)
	// Thumbnail returns the object path used as a category's thumbnail, or ""
	// when the folder holds no image.
	Thumbnail(ctx context.Context, shop, category string) (string, error)
	EnsureFolder(ctx context.Context, shop, category string) error
}

type ObjectRepository struct {
	objects objectstore.Store
}

func NewObjectRepository(objects objectstore.Store) *ObjectRepository {
	return &ObjectRepository{objects: objects}
}

func (r *ObjectRepository) Names(ctx context.Context, shop string) ([]string, error) {
	prefix := blobpath.Prefix(shop)
	it := r.objects.List(ctx, prefix, objectstore.ListOptions{Delimiter: true})
	defer it.Stop()

	seen := map[string]bool{}
	names := []string{}
	for {
		p, err := it.Next()
		if errors.Is(err, objectstore.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, prefix), "/")
		if name == "" || strings.Contains(name, "/") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *ObjectRepository) Thumbnail(ctx context.Context, shop, category string) (string, error) {
	prefix := blobpath.Prefix(shop, category)
	canonical := prefix + blobpath.ThumbnailName
	ok, err := r.objects.Exists(ctx, canonical)
	if err != nil {
		return "", err
	}
	if ok {
		return canonical, nil
	}

	it := r.objects.List(ctx, prefix, objectstore.ListOptions{})
	defer it.Stop()
	best := ""
	for {
		p, err := it.Next()
		if errors.Is(err, objectstore.Done) {
			break
		}
		if err != nil {
			return "", err
		}
		name := strings.TrimPrefix(p, prefix)
		if strings.Contains(name, "/") || blobpath.IsFolderMarker(name) || !blobpath.IsImage(name) {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	if best == "" {
		return "", nil
	}
	return prefix + best, nil
}

func (r *ObjectRepository) EnsureFolder(ctx context.Context, shop, category string) error {
	return r.objects.Put(ctx, blobpath.Marker(blobpath.Prefix(shop, category)), nil, "application/octet-stream")
}
