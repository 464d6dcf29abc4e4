package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore implements Store over a Cloud Storage bucket, typically the
// Firebase default bucket.
type GCSStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGCSStore(bucket *storage.BucketHandle, bucketName string) *GCSStore {
	return &GCSStore{bucket: bucket, bucketName: strings.TrimSpace(bucketName)}
}

func (g *GCSStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	w := g.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", path, err)
	}
	// the object only becomes visible once Close succeeds
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", path, err)
	}
	return nil
}

func (g *GCSStore) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCSStore) Attrs(ctx context.Context, path string) (Attrs, error) {
	attrs, err := g.bucket.Object(path).Attrs(ctx)
	if err != nil {
		return Attrs{}, mapGCSError(err)
	}
	public := false
	for _, rule := range attrs.ACL {
		if rule.Entity == storage.AllUsers && rule.Role == storage.RoleReader {
			public = true
			break
		}
	}
	return Attrs{Path: attrs.Name, ContentType: attrs.ContentType, Size: attrs.Size, Public: public}, nil
}

func (g *GCSStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.bucket.Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *GCSStore) List(ctx context.Context, prefix string, opts ListOptions) Iterator {
	q := &storage.Query{Prefix: prefix}
	if opts.Delimiter {
		q.Delimiter = "/"
	} else {
		_ = q.SetAttrSelection([]string{"Name"})
	}
	return &gcsIterator{it: g.bucket.Objects(ctx, q), delimiter: opts.Delimiter}
}

func (g *GCSStore) MakePublic(ctx context.Context, path string) error {
	if err := g.bucket.Object(path).ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return mapGCSError(err)
	}
	return nil
}

func (g *GCSStore) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, strings.TrimLeft(path, "/"))
}

func mapGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

type gcsIterator struct {
	it        *storage.ObjectIterator
	delimiter bool
	stopped   bool
}

func (g *gcsIterator) Next() (string, error) {
	if g.stopped {
		return "", Done
	}
	for {
		attrs, err := g.it.Next()
		if err != nil {
			// iterator.Done passes through unchanged
			return "", err
		}
		if g.delimiter {
			// with a delimiter, objects directly under the prefix carry an empty Prefix
			if attrs.Prefix == "" {
				continue
			}
			return attrs.Prefix, nil
		}
		return attrs.Name, nil
	}
}

func (g *gcsIterator) Stop() { g.stopped = true }
