package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dexquiz/dexquiz/internal/logging"
	authmw "github.com/dexquiz/dexquiz/internal/middleware/auth"
	"github.com/dexquiz/dexquiz/internal/service"
	"github.com/dexquiz/dexquiz/internal/tokens"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies Cookies
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(h.Cookies.create(accessCookie, pair.AccessToken, tokens.AccessTTL))
	c.SetCookie(h.Cookies.create(refreshCookie, pair.RefreshToken, tokens.RefreshTTL))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := h.Svc.Register(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Username already exists.")
		}
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "User registered",
		"username": req.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
		}
		return serviceError(err)
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing refresh token")
	}

	pair, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		case errors.Is(err, service.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
		default:
			return serviceError(err)
		}
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Token refreshed for %s", pair.Subject),
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	c.SetCookie(h.Cookies.delete(accessCookie))
	c.SetCookie(h.Cookies.delete(refreshCookie))

	logging.FromContext(c.Request().Context()).Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"detail": "Logged out successfully"})
}

func (h *AuthHTTP) Username(c echo.Context) error {
	username, ok := authmw.Username(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username})
}
