package category

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/auth"
)

type Handler struct {
	service *Service
}

type createRequest struct {
	Shopname string `json:"shopname"`
	Category string `json:"category"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/get_categories", h.getCategories)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/create_category", h.createCategory)
	app.Post("/upload_image_with_folder", h.uploadImage)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.ListCategories(c.UserContext(), c.Query("shopname"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"categories": items})
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	payload := new(createRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	if err := ownShop(c, payload.Shopname); err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.service.EnsureCategory(c.UserContext(), payload.Shopname, payload.Category); err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusCreated, fiber.Map{"category": payload.Category})
}

func (h *Handler) uploadImage(c *fiber.Ctx) error {
	shop := c.FormValue("shopname")
	if err := ownShop(c, shop); err != nil {
		return apperr.Respond(c, err)
	}
	file, err := c.FormFile("image_file")
	if err != nil {
		return apperr.Respond(c, apperr.Validation("image_file is required"))
	}
	f, err := file.Open()
	if err != nil {
		return apperr.Respond(c, apperr.Upstream("open upload", err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return apperr.Respond(c, apperr.Upstream("read upload", err))
	}

	up, err := h.service.UploadImage(c.UserContext(), shop, c.FormValue("folder_name"), c.FormValue("file_name"), data, file.Header.Get("Content-Type"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"url": up.URL, "path": up.Path})
}

// ownShop requires a shop token issued for the given shop.
func ownShop(c *fiber.Ctx, shop string) error {
	claimed, err := auth.ShopFromCtx(c)
	if err != nil {
		return apperr.Auth("shop login required")
	}
	if shop != "" && claimed != shop {
		return apperr.Auth("token does not belong to shop %q", shop)
	}
	return nil
}
