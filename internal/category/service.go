package category

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/blobpath"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

// Service provides the category catalog and image uploads.
type Service struct {
	repo          Repository
	objects       objectstore.Store
	uploadTimeout time.Duration
	log           zerolog.Logger
}

func NewService(repo Repository, objects objectstore.Store, uploadTimeout time.Duration, log zerolog.Logger) *Service {
	return &Service{repo: repo, objects: objects, uploadTimeout: uploadTimeout, log: log}
}

// ListCategories returns each category of a shop once, sorted by name.
func (s *Service) ListCategories(ctx context.Context, shop string) ([]Category, error) {
	shop = strings.TrimSpace(shop)
	if shop == "" {
		return nil, apperr.Validation("shopname is required")
	}
	names, err := s.repo.Names(ctx, shop)
	if err != nil {
		return nil, apperr.Upstream("list categories", err)
	}

	out := make([]Category, 0, len(names))
	for _, name := range names {
		thumb, err := s.repo.Thumbnail(ctx, shop, name)
		if err != nil {
			return nil, apperr.Upstream("find thumbnail", err)
		}
		c := Category{Name: name}
		if thumb != "" {
			c.ThumbnailURL = s.objects.PublicURL(thumb)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) EnsureCategory(ctx context.Context, shop, category string) error {
	shop, category = strings.TrimSpace(shop), strings.TrimSpace(category)
	if shop == "" || category == "" {
		return apperr.Validation("shopname and category are required")
	}
	if err := s.repo.EnsureFolder(ctx, shop, category); err != nil {
		return apperr.Upstream("create category", err)
	}
	return nil
}

// UploadImage stores data under shop/category and makes it public. An empty
// name uploads the category thumbnail.
func (s *Service) UploadImage(ctx context.Context, shop, category, rawName string, data []byte, contentType string) (Upload, error) {
	shop, category = strings.TrimSpace(shop), strings.TrimSpace(category)
	if strings.TrimSpace(rawName) == "" {
		rawName = blobpath.ThumbnailName
	}
	p, err := blobpath.Resolve(shop, category, rawName)
	if err != nil {
		return Upload{}, err
	}
	if len(data) == 0 {
		return Upload{}, apperr.Validation("image file is empty")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	if err := s.objects.Put(ctx, p, data, contentType); err != nil {
		return Upload{}, apperr.Upstream("upload image", err)
	}
	if err := s.objects.MakePublic(ctx, p); err != nil {
		return Upload{}, apperr.Upstream("make image public", err)
	}
	s.log.Info().Str("path", p).Int("bytes", len(data)).Msg("image uploaded")
	return Upload{URL: s.objects.PublicURL(p), Path: p}, nil
}
