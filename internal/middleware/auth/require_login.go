package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/models"
	"github.com/dexquiz/dexquiz/internal/service"
)

const AccessCookie = "access_token"

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// RequireLogin rejects requests without a valid access_token cookie whose
// subject still exists. It never refreshes tokens.
func RequireLogin(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "require_login")

			cookie, err := c.Cookie(AccessCookie)
			if err != nil || cookie.Value == "" {
				l.Warn("auth_failed", "status", 401, "reason", "missing access token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			user, err := a.Authenticate(ctx, cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					l.Warn("auth_failed", "status", 401, "reason", err.Error())
					return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
				}
				l.Error("auth_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
			}

			setUserContext(c, user)
			return next(c)
		}
	}
}
