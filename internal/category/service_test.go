package category

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

const baseURL = "http://cdn.test/files"

func newTestService(objects objectstore.Store) *Service {
	return NewService(NewObjectRepository(objects), objects, time.Second, zerolog.Nop())
}

func put(t *testing.T, s objectstore.Store, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, s.Put(context.Background(), p, []byte("img"), "image/jpeg"))
	}
}

func TestListCategoriesEachOnceSorted(t *testing.T) {
	objects := objectstore.NewMemoryStore(baseURL)
	put(t, objects,
		"shop1/snacks/chips.jpg",
		"shop1/drinks/tea.jpg",
		"shop1/drinks/cola.jpg",
		"shop1/drinks/category.jpg",
		"shop1/.keep",
		"shop2/other/x.jpg",
	)
	svc := newTestService(objects)

	cats, err := svc.ListCategories(context.Background(), "shop1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "drinks", cats[0].Name)
	assert.Equal(t, baseURL+"/shop1/drinks/category.jpg", cats[0].ThumbnailURL)
	assert.Equal(t, "snacks", cats[1].Name)
	assert.Equal(t, baseURL+"/shop1/snacks/chips.jpg", cats[1].ThumbnailURL)
}

func TestThumbnailIndependentOfInsertionOrder(t *testing.T) {
	orders := [][]string{
		{"s/c/zeta.png", "s/c/alpha.jpg", "s/c/.keep", "s/c/notes.txt"},
		{"s/c/notes.txt", "s/c/.keep", "s/c/alpha.jpg", "s/c/zeta.png"},
	}
	for _, paths := range orders {
		objects := objectstore.NewMemoryStore(baseURL)
		put(t, objects, paths...)
		cats, err := newTestService(objects).ListCategories(context.Background(), "s")
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, baseURL+"/s/c/alpha.jpg", cats[0].ThumbnailURL)
	}
}

func TestEmptyCategoryHasNoThumbnail(t *testing.T) {
	objects := objectstore.NewMemoryStore(baseURL)
	svc := newTestService(objects)
	ctx := context.Background()

	require.NoError(t, svc.EnsureCategory(ctx, "shop1", "fresh"))
	cats, err := svc.ListCategories(ctx, "shop1")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "fresh", cats[0].Name)
	assert.Empty(t, cats[0].ThumbnailURL)

	none, err := svc.ListCategories(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListCategories(ctx, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUploadImage(t *testing.T) {
	objects := objectstore.NewMemoryStore(baseURL)
	svc := newTestService(objects)
	ctx := context.Background()

	up, err := svc.UploadImage(ctx, "shop1", "drinks", "cola.png", []byte{1, 2}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "shop1/drinks/cola.png.jpg", up.Path)
	assert.Equal(t, baseURL+"/shop1/drinks/cola.png.jpg", up.URL)
	attrs, err := objects.Attrs(ctx, up.Path)
	require.NoError(t, err)
	assert.True(t, attrs.Public)

	thumb, err := svc.UploadImage(ctx, "shop1", "drinks", "  ", []byte{1}, "")
	require.NoError(t, err)
	assert.Equal(t, "shop1/drinks/category.jpg", thumb.Path)

	_, err = svc.UploadImage(ctx, "shop1", "", "x.jpg", []byte{1}, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UploadImage(ctx, "shop1", "drinks", "x.jpg", nil, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
