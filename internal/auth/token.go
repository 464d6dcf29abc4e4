// Package auth issues login tokens and reads their claims back from a request.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ClaimShop     = "shopname"
	ClaimCustomer = "customerName"
	ClaimPhone    = "phone"
	ClaimRole     = "role"

	RoleShop     = "shop"
	RoleCustomer = "customer"

	// LocalsKey is where jwtware stores the parsed token.
	LocalsKey = "user"
)

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 token carrying claims plus an expiry.
func (i *Issuer) Issue(claims jwt.MapClaims) (string, error) {
	all := jwt.MapClaims{"exp": time.Now().Add(i.ttl).Unix()}
	for k, v := range claims {
		all[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString(i.secret)
}

// ShopFromCtx returns the shop of a request authenticated with a shop login.
// Customer tokens also name a shop, their home shop, and are rejected.
func ShopFromCtx(c *fiber.Ctx) (string, error) {
	role, err := ClaimFromCtx(c, ClaimRole)
	if err != nil || role != RoleShop {
		return "", fiber.ErrUnauthorized
	}
	return ClaimFromCtx(c, ClaimShop)
}

// ClaimFromCtx returns a non-empty string claim of the authenticated request.
func ClaimFromCtx(c *fiber.Ctx, name string) (string, error) {
	u := c.Locals(LocalsKey)
	if u == nil {
		return "", fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	v, ok := claims[name].(string)
	if !ok || v == "" {
		return "", fiber.ErrUnauthorized
	}
	return v, nil
}
