package customer

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
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	Shopname     string `json:"shopname"`
	Password     string `json:"password"`
}

// UnmarshalJSON also accepts customer_name, phone and shop_name.
func (r *registerRequest) UnmarshalJSON(b []byte) error {
	type plain registerRequest
	var aux struct {
		plain
		CustomerNameAlt string `json:"customer_name"`
		Phone           string `json:"phone"`
		ShopName        string `json:"shop_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = registerRequest(aux.plain)
	if r.CustomerName == "" {
		r.CustomerName = aux.CustomerNameAlt
	}
	if r.PhoneNumber == "" {
		r.PhoneNumber = aux.Phone
	}
	if r.Shopname == "" {
		r.Shopname = aux.ShopName
	}
	return nil
}

type loginRequest struct {
	CustomerName string `json:"customerName"`
	Password     string `json:"password"`
}

func (r *loginRequest) UnmarshalJSON(b []byte) error {
	type plain loginRequest
	var aux struct {
		plain
		CustomerNameAlt string `json:"customer_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = loginRequest(aux.plain)
	if r.CustomerName == "" {
		r.CustomerName = aux.CustomerNameAlt
	}
	return nil
}

func NewHandler(service *Service, tokens *auth.Issuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/register_customer", h.register)
	app.Post("/login_customer", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/customer_profile", h.getProfile)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}

	created, err := h.service.Register(c.UserContext(), Customer{
		Name:        payload.CustomerName,
		PhoneNumber: payload.PhoneNumber,
		Address:     payload.Address,
		Shopname:    payload.Shopname,
	}, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusCreated, fiber.Map{
		"message":  "customer registered",
		"customer": created,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	if payload.CustomerName == "" || payload.Password == "" {
		return apperr.Respond(c, apperr.Validation("customerName and password are required"))
	}

	cust, result, err := h.service.Authenticate(c.UserContext(), payload.CustomerName, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	switch result {
	case AuthNotFound:
		return apperr.Respond(c, apperr.NotFound("customer %q is not registered", payload.CustomerName))
	case AuthWrongPassword:
		return apperr.Respond(c, apperr.Auth("wrong password"))
	}

	token, err := h.tokens.Issue(jwt.MapClaims{
		auth.ClaimCustomer: cust.Name,
		auth.ClaimPhone:    cust.PhoneNumber,
		auth.ClaimShop:     cust.Shopname,
		auth.ClaimRole:     auth.RoleCustomer,
	})
	if err != nil {
		return apperr.Respond(c, apperr.Upstream("sign token", err))
	}
	cust.PasswordHash = ""
	return apperr.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "login successful",
		"customer": cust,
		"token":    token,
	})
}

// getProfile returns the customer named in the token.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	name, err := auth.ClaimFromCtx(c, auth.ClaimCustomer)
	if err != nil {
		return apperr.Respond(c, apperr.Auth("customer login required"))
	}
	cust, err := h.service.Profile(c.UserContext(), name)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Success(c, fiber.StatusOK, fiber.Map{"customer": cust})
}
