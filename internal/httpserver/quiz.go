package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/service"
)

type QuizHTTP struct {
	Svc     *service.QuizService
	Cookies Cookies
}

func sessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(quizCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// sessionOrNew returns the cookie's session id or mints one. The cookie is
// always re-set so its max-age slides with the stored state.
func (h *QuizHTTP) sessionOrNew(c echo.Context) string {
	sid, ok := sessionID(c)
	if !ok {
		sid = h.Svc.NewSessionID()
	}
	c.SetCookie(h.Cookies.quiz(sid))
	return sid
}

func (h *QuizHTTP) StartQuiz(c echo.Context) error {
	sid := h.Svc.NewSessionID()
	c.SetCookie(h.Cookies.quiz(sid))
	logging.FromContext(c.Request().Context()).Info("quiz_started")
	return c.Redirect(http.StatusFound, "/quiz")
}

func (h *QuizHTTP) Current(c echo.Context) error {
	sid := h.sessionOrNew(c)
	puzzle, err := h.Svc.CurrentPuzzle(c.Request().Context(), sid)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, puzzle)
}

func (h *QuizHTTP) NextQuiz(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "No quiz session found")
	}

	score, err := h.Svc.NextQuiz(c.Request().Context(), sid)
	if err != nil {
		return serviceError(err)
	}
	c.SetCookie(h.Cookies.quiz(sid))
	return c.JSON(http.StatusOK, echo.Map{"message": "New quiz loaded.", "score": score})
}

func (h *QuizHTTP) Guess(c echo.Context) error {
	guess := c.FormValue("guess")
	if guess == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'guess' is required")
	}

	sid := h.sessionOrNew(c)
	res, err := h.Svc.EvaluateGuess(c.Request().Context(), sid, guess)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *QuizHTTP) Reset(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "No quiz session found")
	}

	if err := h.Svc.ResetScore(c.Request().Context(), sid); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Quiz session state not found")
		}
		return serviceError(err)
	}
	c.SetCookie(h.Cookies.quiz(sid))
	return c.JSON(http.StatusOK, echo.Map{"message": "Quiz score has been reset.", "score": 0})
}
