package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
	"github.com/wichananm65/retail-shop-backend/internal/blobpath"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

type Service struct {
	repo    Repository
	objects objectstore.Store
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, objects objectstore.Store, log zerolog.Logger) *Service {
	return &Service{repo: repo, objects: objects, log: log, now: time.Now}
}

// RegisterShop stores a new shop and creates its object namespace.
func (s *Service) RegisterShop(ctx context.Context, name, phone, password string) (Shop, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" || password == "" {
		return Shop{}, apperr.Validation("shopname, phone and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Shop{}, apperr.Upstream("hash password", err)
	}
	shop := Shop{
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hashed),
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	// no shop record may exist without its folder marker
	marker := blobpath.Marker(blobpath.Prefix(name))
	if err := s.objects.Put(ctx, marker, nil, "application/octet-stream"); err != nil {
		return Shop{}, apperr.Upstream("create shop folder", err)
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		if errors.Is(err, ErrExists) {
			return Shop{}, apperr.Conflict("shop %q is already registered", name)
		}
		return Shop{}, apperr.Upstream("create shop", err)
	}
	s.log.Info().Str("shopname", name).Msg("shop registered")
	return shop, nil
}

// AuthenticateShop checks credentials. Only gateway failures return an error.
func (s *Service) AuthenticateShop(ctx context.Context, name, password string) (AuthResult, error) {
	shop, err := s.repo.Get(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrNotFound) {
		return AuthNotFound, nil
	}
	if err != nil {
		return AuthNotFound, apperr.Upstream("load shop", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(shop.PasswordHash), []byte(password)) != nil {
		return AuthWrongPassword, nil
	}
	return AuthOK, nil
}
