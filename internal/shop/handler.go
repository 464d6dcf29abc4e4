package shop

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/auth"
)

type Handler struct {
	service *Service
	tokens  *auth.Issuer
}

type registerRequest struct {
	Shopname string `json:"shopname"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UnmarshalJSON also accepts shop_name.
func (r *registerRequest) UnmarshalJSON(b []byte) error {
	type plain registerRequest
	var aux struct {
		plain
		ShopName string `json:"shop_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = registerRequest(aux.plain)
	if r.Shopname == "" {
		r.Shopname = aux.ShopName
	}
	return nil
}

type loginRequest struct {
	Shopname string `json:"shopname"`
	Password string `json:"password"`
}

func (r *loginRequest) UnmarshalJSON(b []byte) error {
	type plain loginRequest
	var aux struct {
		plain
		ShopName string `json:"shop_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = loginRequest(aux.plain)
	if r.Shopname == "" {
		r.Shopname = aux.ShopName
	}
	return nil
}

func NewHandler(service *Service, tokens *auth.Issuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/register_shop", h.register)
	app.Post("/check_password", h.login)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}

	shop, err := h.service.RegisterShop(c.UserContext(), payload.Shopname, payload.Phone, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "shop registered",
		"shop":    shop,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	if payload.Shopname == "" || payload.Password == "" {
		return apperr.Respond(c, apperr.Validation("shopname and password are required"))
	}

	result, err := h.service.AuthenticateShop(c.UserContext(), payload.Shopname, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	switch result {
	case AuthNotFound:
		return apperr.Respond(c, apperr.NotFound("shop %q is not registered", payload.Shopname))
	case AuthWrongPassword:
		return apperr.Respond(c, apperr.Auth("wrong password"))
	}

	token, err := h.tokens.Issue(jwt.MapClaims{
		auth.ClaimShop: payload.Shopname,
		auth.ClaimRole: auth.RoleShop,
	})
	if err != nil {
		return apperr.Respond(c, apperr.Upstream("sign token", err))
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "login successful",
		"shopname": payload.Shopname,
		"token":    token,
	})
}
