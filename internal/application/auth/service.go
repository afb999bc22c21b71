package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates staff accounts and issues the JWT the auth
// middleware verifies. Claims carry role and branch so route guards and the
// recipient resolver work without extra lookups.
type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenSigner issues the signed JWT for an authenticated staff account. A
// nil signer means the server started without signing keys; logins are
// refused rather than panicking on Sign.
type TokenSigner interface {
	Sign(userID, role, branch string) (string, error)
}

type service struct {
	users  userStore
	signer TokenSigner
}

func NewService(users userStore, signer TokenSigner) Service {
	return &service{users: users, signer: signer}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return "", nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if s.signer == nil {
		return "", nil, fmt.Errorf("token signing unavailable: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !u.Enable {
		return "", nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	branch := ""
	if u.Branch != nil {
		branch = *u.Branch
	}
	token, err := s.signer.Sign(u.UserID, u.Role, branch)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
