package view

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/get_view_list", h.list)
	app.Get("/"+h.service.prefix+"/:filename", h.open)
	app.Get("/files/*", h.openPublic)
}

// list answers with a bare JSON array of filenames.
func (h *Handler) list(c *fiber.Ctx) error {
	names, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(names)
}

func (h *Handler) open(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("filename"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid filename"))
	}
	f, err := h.service.Open(c.UserContext(), name)
	if err != nil {
		return apperr.Respond(c, err)
	}
	c.Set(fiber.HeaderContentType, f.ContentType)
	return c.Send(f.Data)
}

func (h *Handler) openPublic(c *fiber.Ctx) error {
	p, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid path"))
	}
	f, err := h.service.OpenPublic(c.UserContext(), p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	c.Set(fiber.HeaderContentType, f.ContentType)
	return c.Send(f.Data)
}
