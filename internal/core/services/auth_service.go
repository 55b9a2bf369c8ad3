package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/utils"
)

// tokenService issues JWTs carrying the user's role claim.
type tokenService struct {
	jwtSecret   string
	tokenExpiry time.Duration
	issuer      string
}

// NewTokenService creates a new token service.
func NewTokenService(jwtSecret string, tokenExpiry time.Duration, issuer string) portssvc.TokenSvcFacade {
	return &tokenService{
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		issuer:      issuer,
	}
}

// Ensure tokenService implements the portssvc.TokenSvcFacade interface
var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken issues a signed JWT for the user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.tokenExpiry)
	token, err := utils.GenerateJWT(user.UserID, string(user.Role), s.jwtSecret, s.tokenExpiry, s.issuer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiresAt, nil
}
