package order

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/auth"
)

// Handler exposes the ledger for the customer named by the token's phone claim.
type Handler struct {
	ledger *Ledger
}

func NewHandler(l *Ledger) *Handler {
	return &Handler{ledger: l}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/place_order", h.placeOrder)
	app.Post("/update_order", h.updateOrder)
	app.Post("/delete_order", h.deleteOrder)
	app.Get("/get_orders", h.getOrders)
	app.Get("/pending_count", h.pendingCount)
	app.Post("/increment_pending", h.incrementPending)
	app.Post("/confirm_orders", h.confirmOrders)
}

type placeRequest struct {
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitLabel   string          `json:"unitLabel"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ImageURL    string          `json:"imageUrl"`
}

// UnmarshalJSON also accepts product_name and image_url.
func (r *placeRequest) UnmarshalJSON(b []byte) error {
	type plain placeRequest
	var aux struct {
		plain
		ProductNameAlt string `json:"product_name"`
		ImageURLAlt    string `json:"image_url"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = placeRequest(aux.plain)
	if r.ProductName == "" {
		r.ProductName = aux.ProductNameAlt
	}
	if r.ImageURL == "" {
		r.ImageURL = aux.ImageURLAlt
	}
	return nil
}

type orderRef struct {
	ProductName string `json:"productName"`
	Timestamp   string `json:"timestamp"`
	Quantity    int64  `json:"quantity"`
}

type confirmRequest struct {
	Confirmed *bool `json:"confirmed"`
}

func phoneFrom(c *fiber.Ctx) (string, error) {
	phone, err := auth.ClaimFromCtx(c, auth.ClaimPhone)
	if err != nil {
		return "", apperr.Auth("customer login required")
	}
	return phone, nil
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	payload := new(placeRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	o, err := h.ledger.PlaceOrder(c.UserContext(), phone, payload.ProductName, payload.Quantity, payload.UnitLabel, payload.UnitPrice, payload.ImageURL)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusCreated, fiber.Map{"order": o})
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	payload := new(orderRef)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	o, err := h.ledger.UpdateOrder(c.UserContext(), phone, payload.ProductName, payload.Timestamp, payload.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"order": o})
}

func (h *Handler) deleteOrder(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	payload := new(orderRef)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	count, err := h.ledger.DeleteOrder(c.UserContext(), phone, payload.ProductName, payload.Timestamp)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"pendingCount": count})
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	orders, err := h.ledger.GetOrders(c.UserContext(), phone)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"orders": orders})
}

func (h *Handler) pendingCount(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	s, err := h.ledger.GetPendingCount(c.UserContext(), phone)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"pendingCount": s.PendingCount, "confirmed": s.Confirmed})
}

func (h *Handler) incrementPending(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	s, err := h.ledger.IncrementPending(c.UserContext(), phone)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"pendingCount": s.PendingCount})
}

// confirmOrders sets the confirmed flag; an empty body confirms.
func (h *Handler) confirmOrders(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	confirmed := true
	if len(c.Body()) > 0 {
		payload := new(confirmRequest)
		if err := c.BodyParser(payload); err != nil {
			return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
		}
		if payload.Confirmed != nil {
			confirmed = *payload.Confirmed
		}
	}
	s, err := h.ledger.SetConfirmed(c.UserContext(), phone, confirmed)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"pendingCount": s.PendingCount, "confirmed": s.Confirmed})
}
