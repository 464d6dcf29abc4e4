// Package view serves the shared showcase gallery and public catalog images.
package view

import (
	"context"
	"errors"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/blobpath"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

// File is an object ready to be written to a response.
type File struct {
	Data        []byte
	ContentType string
}

type Service struct {
	objects objectstore.Store
	prefix  string
	timeout time.Duration
}

func NewService(objects objectstore.Store, prefix string, timeout time.Duration) *Service {
	return &Service{objects: objects, prefix: strings.Trim(prefix, "/"), timeout: timeout}
}

// List returns the image filenames directly under the gallery prefix, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	prefix := blobpath.Prefix(s.prefix)
	names, err := objectstore.Collect(s.objects.List(ctx, prefix, objectstore.ListOptions{}))
	if err != nil {
		return nil, apperr.Upstream("list gallery", err)
	}
	out := make([]string, 0, len(names))
	for _, p := range names {
		name := strings.TrimPrefix(p, prefix)
		if strings.Contains(name, "/") || !blobpath.IsImage(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Open reads one gallery image.
func (s *Service) Open(ctx context.Context, filename string) (File, error) {
	if filename == "" || strings.Contains(filename, "/") || filename == ".." {
		return File{}, apperr.Validation("invalid filename %q", filename)
	}
	return s.read(ctx, s.prefix+"/"+filename)
}

// OpenPublic reads any object whose ACL grants public read.
func (s *Service) OpenPublic(ctx context.Context, objectPath string) (File, error) {
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" || strings.Contains(objectPath, "..") {
		return File{}, apperr.Validation("invalid path %q", objectPath)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	attrs, err := s.objects.Attrs(ctx, objectPath)
	if errors.Is(err, objectstore.ErrNotFound) {
		return File{}, apperr.NotFound("file not found")
	}
	if err != nil {
		return File{}, apperr.Upstream("stat object", err)
	}
	if !attrs.Public {
		// private objects are indistinguishable from missing ones
		return File{}, apperr.NotFound("file not found")
	}
	return s.read(ctx, objectPath)
}

func (s *Service) read(ctx context.Context, objectPath string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	data, err := s.objects.Get(ctx, objectPath)
	if errors.Is(err, objectstore.ErrNotFound) {
		return File{}, apperr.NotFound("file not found")
	}
	if err != nil {
		return File{}, apperr.Upstream("read object", err)
	}
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(objectPath)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return File{Data: data, ContentType: ct}, nil
}
