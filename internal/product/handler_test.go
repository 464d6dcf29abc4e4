package product

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/auth"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
	"github.com/wichananm65/retail-shop-backend/internal/metrics"
)

func newTestService(log zerolog.Logger) (*Service, *metrics.Registry) {
	reg := metrics.NewRegistry()
	return NewService(NewDocRepository(docstore.NewMemoryStore()), reg, log), reg
}

func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Shop"); v != "" {
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: jwt.MapClaims{auth.ClaimShop: v, auth.ClaimRole: auth.RoleShop}})
		}
		if v := c.Get("X-Customer-Shop"); v != "" {
			c.Locals(auth.LocalsKey, &jwt.Token{Claims: jwt.MapClaims{
				auth.ClaimShop:     v,
				auth.ClaimCustomer: "alice",
				auth.ClaimPhone:    "0900000000",
				auth.ClaimRole:     auth.RoleCustomer,
			}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestUpsertCoercesMalformedNumbers(t *testing.T) {
	var logs bytes.Buffer
	svc, reg := newTestService(zerolog.New(&logs))
	ctx := context.Background()

	p, err := svc.UpsertProduct(ctx, "shop1", "drinks", "cola", map[string]any{
		FieldNumRemainPack:  "abc",
		FieldNumPerPack:     json.Number("12"),
		FieldPricePerPack:   "-3",
		FieldPricePerSingle: "19.50",
		FieldUnit:           " can ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.NumRemainPack)
	assert.Equal(t, int64(12), p.NumPerPack)
	assert.True(t, p.PricePerPack.IsZero())
	assert.True(t, p.PricePerSingle.Equal(decimal.RequireFromString("19.5")))
	assert.Equal(t, "can", p.Unit)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Coercions))
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), FieldNumRemainPack)
}

func TestUpsertMergesFields(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	ctx := context.Background()

	_, err := svc.UpsertProduct(ctx, "shop1", "drinks", "cola", map[string]any{
		FieldNumRemainSingle: 30.0,
		FieldPricePerSingle:  15.0,
		FieldImageURL:        "http://cdn/cola.jpg",
	})
	require.NoError(t, err)

	p, err := svc.UpsertProduct(ctx, "shop1", "drinks", "cola", map[string]any{FieldPricePerSingle: 17.25})
	require.NoError(t, err)
	assert.Equal(t, int64(30), p.NumRemainSingle)
	assert.Equal(t, "http://cdn/cola.jpg", p.ImageURL)
	assert.Equal(t, "17.25", p.PricePerSingle.String())
}

func TestPricesKeepFullPrecision(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	ctx := context.Background()

	_, err := svc.UpsertProduct(ctx, "shop1", "drinks", "cola", map[string]any{
		FieldPricePerPack: json.Number("12345678901234567.89"),
	})
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, "shop1", "drinks")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "12345678901234567.89", products[0].PricePerPack.String())
}

func TestUpsertRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	_, err := svc.UpsertProduct(context.Background(), "shop1", "", "cola", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListProductsSorted(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	ctx := context.Background()
	for _, name := range []string{"water", "cola", "tea"} {
		_, err := svc.UpsertProduct(ctx, "shop1", "drinks", name, map[string]any{FieldUnit: "bottle"})
		require.NoError(t, err)
	}
	items, err := svc.ListProducts(ctx, "shop1", "drinks")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"cola", "tea", "water"}, []string{items[0].Name, items[1].Name, items[2].Name})

	empty, err := svc.ListProducts(ctx, "shop1", "snacks")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpsertAndGetProductsRoutes(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	app := makeApp(NewHandler(svc))

	body := `{"shopname":"shop1","category":"drinks","productName":"cola","numRemainPack":"abc","pricePerPack":120.5,"unit":"can"}`
	req := httptest.NewRequest("POST", "/upsert_product", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shop", "shop1")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/get_products?shopname=shop1&category=drinks", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	var out struct {
		Status   string `json:"status"`
		Products []struct {
			Name          string          `json:"productName"`
			NumRemainPack int64           `json:"numRemainPack"`
			PricePerPack  decimal.Decimal `json:"pricePerPack"`
		} `json:"products"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "success", out.Status)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "cola", out.Products[0].Name)
	assert.Equal(t, int64(0), out.Products[0].NumRemainPack)
	assert.Equal(t, "120.5", out.Products[0].PricePerPack.String())
}

func TestUpsertRouteRejectsOtherShop(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	app := makeApp(NewHandler(svc))

	req := httptest.NewRequest("POST", "/upsert_product", strings.NewReader(`{"shopname":"shop1","category":"drinks","productName":"cola"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shop", "shop2")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestUpsertRouteRejectsCustomerToken(t *testing.T) {
	svc, _ := newTestService(zerolog.Nop())
	app := makeApp(NewHandler(svc))

	req := httptest.NewRequest("POST", "/upsert_product", strings.NewReader(`{"shopname":"shop1","category":"drinks","productName":"cola"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Customer-Shop", "shop1")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	products, err := svc.ListProducts(context.Background(), "shop1", "drinks")
	require.NoError(t, err)
	assert.Empty(t, products)
}
