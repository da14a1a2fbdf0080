package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/person-admin/internal/domain"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// CookieName carries the operator token for browser requests.
	CookieName = "person_admin_token"
)

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	SubjectID   string
}

// AuthMiddleware validates bearer tokens or the operator cookie.
type AuthMiddleware struct {
	tokens *TokenManager
	open   bool
}

// NewAuthMiddleware constructs middleware. When open is true, requests
// without credentials pass as an anonymous operator; presented tokens are
// still validated.
func NewAuthMiddleware(tokens *TokenManager, open bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, open: open}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := tokenFromRequest(c)
	if err != nil {
		return err
	}
	if raw == "" {
		if m.open {
			c.Locals(principalKey, &Principal{SubjectType: domain.SubjectTypeOperator})
			return c.Next()
		}
		return apperrors.NewUnauthorized("missing credentials")
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	switch claims.Subject {
	case domain.SubjectTypeOperator, domain.SubjectTypeService:
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, &Principal{SubjectType: claims.Subject, SubjectID: claims.SubjectID})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func tokenFromRequest(c *fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return parts[1], nil
	}
	return c.Cookies(CookieName), nil
}
