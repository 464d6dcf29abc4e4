package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Register(ctx context.Context, c Customer, password string) (Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	c.Address = strings.TrimSpace(c.Address)
	c.Shopname = strings.TrimSpace(c.Shopname)
	if c.Name == "" || c.PhoneNumber == "" || c.Shopname == "" || password == "" {
		return Customer{}, apperr.Validation("customerName, phoneNumber, shopname and password are required")
	}
	if !ValidPhone(c.PhoneNumber) {
		return Customer{}, apperr.Validation("phoneNumber must be exactly 10 digits")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Customer{}, apperr.Upstream("hash password", err)
	}
	c.PasswordHash = string(hashed)
	c.CreatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrExists) {
			return Customer{}, apperr.Conflict("customer %q already exists", c.Name)
		}
		return Customer{}, apperr.Upstream("create customer", err)
	}
	s.log.Info().Str("customerName", c.Name).Str("shopname", c.Shopname).Msg("customer registered")
	return c, nil
}

// Authenticate returns the customer alongside the result so callers can read
// the phone number on success.
func (s *Service) Authenticate(ctx context.Context, name, password string) (Customer, AuthResult, error) {
	c, err := s.repo.Get(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrNotFound) {
		return Customer{}, AuthNotFound, nil
	}
	if err != nil {
		return Customer{}, AuthNotFound, apperr.Upstream("load customer", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return Customer{}, AuthWrongPassword, nil
	}
	return c, AuthOK, nil
}

func (s *Service) Profile(ctx context.Context, name string) (Customer, error) {
	c, err := s.repo.Get(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrNotFound) {
		return Customer{}, apperr.NotFound("customer %q not found", name)
	}
	if err != nil {
		return Customer{}, apperr.Upstream("load customer", err)
	}
	c.PasswordHash = ""
	return c, nil
}
