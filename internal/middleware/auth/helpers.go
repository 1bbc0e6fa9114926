package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/models"
)

const (
	ctxUsername = "username"
	ctxUserID   = "userID"
)

func setUserContext(c echo.Context, user *models.User) {
	c.Set(ctxUsername, user.Username)
	c.Set(ctxUserID, user.ID)

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("username", user.Username)
	c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
}

// Username returns the identity set by RequireLogin.
func Username(c echo.Context) (string, bool) {
	u, ok := c.Get(ctxUsername).(string)
	return u, ok && u != ""
}
