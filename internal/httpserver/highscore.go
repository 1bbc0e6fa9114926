package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authmw "github.com/dexquiz/dexquiz/internal/middleware/auth"
	"github.com/dexquiz/dexquiz/internal/service"
)

type HighscoreHTTP struct {
	Svc *service.HighscoreService
}

func (h *HighscoreHTTP) Submit(c echo.Context) error {
	username, ok := authmw.Username(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	sid, ok := sessionID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Session ID missing")
	}

	entry, err := h.Svc.Submit(c.Request().Context(), username, sid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQuizData):
			return echo.NewHTTPError(http.StatusNotFound, "No quiz data found for this session")
		case errors.Is(err, service.ErrNoScore):
			return echo.NewHTTPError(http.StatusNotFound, "No score found in session")
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		default:
			return serviceError(err)
		}
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *HighscoreHTTP) List(c echo.Context) error {
	entries, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *HighscoreHTTP) Mine(c echo.Context) error {
	username, ok := authmw.Username(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	entries, err := h.Svc.ListForUser(c.Request().Context(), username)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *HighscoreHTTP) Top(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("top"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "top must be an integer")
	}
	entries, err := h.Svc.Top(c.Request().Context(), n)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
