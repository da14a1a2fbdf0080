package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/person-admin/internal/api/dto"
	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/service"
)

// LoginPath is where unauthenticated operators are sent.
const LoginPath = "/auth/login"

type loginPage struct {
	Email string
	Error string
}

// AuthHandler exposes operator sign in and sign out.
type AuthHandler struct {
	auth        *service.AuthService
	landingPath string
	secure      bool
}

// NewAuthHandler constructs handler. Successful form logins land on landingPath.
func NewAuthHandler(authService *service.AuthService, landingPath string, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authService, landingPath: landingPath, secure: secureCookie}
}

// LoginForm GET /auth/login.
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if h.auth.Open() {
		return c.Redirect(h.landingPath, http.StatusSeeOther)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return renderTemplate(c, "login_page", loginPage{})
}

// Login POST /auth/login. JSON callers get the token in the body, form
// callers get the operator cookie and a redirect.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	operator, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			return err
		}
		if wantsJSON(c) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		c.Status(http.StatusUnauthorized)
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return renderTemplate(c, "login_page", loginPage{Email: req.Email, Error: "Invalid email or password."})
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"operator": fiber.Map{"email": operator.Email},
				"auth":     dto.AuthResponse{Token: token, ExpiresAt: operator.ExpiresAt},
			},
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  operator.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.landingPath, http.StatusSeeOther)
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	_ = h.auth.Logout(c.UserContext(), c.Cookies(auth.CookieName))
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if wantsJSON(c) {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.Redirect(LoginPath, http.StatusSeeOther)
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}
