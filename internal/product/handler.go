package product

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/get_products", h.getProducts)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/upsert_product", h.upsertProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	items, err := h.service.ListProducts(c.UserContext(), c.Query("shopname"), c.Query("category"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"products": items})
}

// upsertProduct takes a flat JSON object: the identifying keys plus any
// product fields to change.
func (h *Handler) upsertProduct(c *fiber.Ctx) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}

	shop := firstString(body, "shopname", "shop_name")
	claimed, err := auth.ShopFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.Auth("shop login required"))
	}
	if shop != "" && claimed != shop {
		return apperr.Respond(c, apperr.Auth("token does not belong to shop %q", shop))
	}

	p, err := h.service.UpsertProduct(c.UserContext(), shop,
		firstString(body, "category", "folder_name"),
		firstString(body, "productName", "product_name"),
		body)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"product": p})
}

func firstString(body map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := body[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
