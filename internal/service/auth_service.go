package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/config"
	"github.com/spec-kit/person-admin/internal/domain"
)

// ErrInvalidCredentials is returned for a failed operator login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService signs in the configured operator.
type AuthService struct {
	adminEmail string
	adminHash  string
	tokenMgr   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		adminEmail: strings.TrimSpace(cfg.AdminEmail),
		adminHash:  cfg.AdminPasswordHash,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// Open reports whether admin routes run without login because no
// operator password is configured.
func (s *AuthService) Open() bool {
	return s.adminHash == ""
}

// Login authenticates the operator and returns a signed token.
func (s *AuthService) Login(_ context.Context, email, password string) (*domain.Operator, string, error) {
	if s.Open() {
		return nil, "", errors.New("operator login is not configured")
	}
	if !strings.EqualFold(strings.TrimSpace(email), s.adminEmail) {
		return nil, "", ErrInvalidCredentials
	}
	if err := auth.ComparePassword(s.adminHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, exp, err := s.tokenMgr.GenerateToken(s.adminEmail, domain.SubjectTypeOperator)
	if err != nil {
		return nil, "", err
	}
	operator := &domain.Operator{Email: s.adminEmail, SignedIn: time.Now(), ExpiresAt: exp}
	return operator, token, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
