package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/service"
)

const internalDetail = "Internal server error"

// ErrorHandler renders every error as {"detail": "..."}. 5xx responses use
// a fixed detail so driver errors never reach clients.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := internalDetail

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if code < http.StatusInternalServerError || code == http.StatusServiceUnavailable {
			detail = messageOf(he)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"detail": detail})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", err)
	}
}

func messageOf(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}

// serviceError maps errors that every handler treats the same way.
func serviceError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Pokémon data provider unavailable").SetInternal(err)
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internalDetail).SetInternal(err)
	}
}
