package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/ridersroast/motocafe-backend/pkg/auth"
	"github.com/ridersroast/motocafe-backend/pkg/config"
	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service signs admins in to the back office.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type adminReader interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type service struct {
	admins adminReader
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewService constructs the login service.
func NewService(admins adminReader, jwtCfg config.JWTConfig) (Service, error) {
	if admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		admins: admins,
		jwtCfg: jwtCfg,
		now:    time.Now,
	}, nil
}

// Login verifies credentials and mints a bearer token. Unknown emails and
// wrong passwords produce the same response.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up admin")
	}
	if admin == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(req.Password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		AdminID: admin.ID,
		Email:   admin.Email,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Admin: AdminSummary{
			ID:    admin.ID,
			Email: admin.Email,
			Name:  admin.Name,
		},
	}, nil
}
