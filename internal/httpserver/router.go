package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/metrics"
	authmw "github.com/dexquiz/dexquiz/internal/middleware/auth"
	loggingmw "github.com/dexquiz/dexquiz/internal/middleware/logging"
)

type Checker func(ctx context.Context) error

type Deps struct {
	AuthHandler      *AuthHTTP
	QuizHandler      *QuizHTTP
	HighscoreHandler *HighscoreHTTP

	Authn   authmw.Authenticator
	Metrics *metrics.Metrics

	// Ready maps a dependency name to its ping.
	Ready map[string]Checker

	// AuthRateLimit is requests per second per IP on login and register; 0 disables it.
	AuthRateLimit float64
}

// New builds the echo instance with the shared middleware stack.
func New(log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(log))
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	limited := authRateLimiter(d.AuthRateLimit)
	requireLogin := authmw.RequireLogin(d.Authn)

	api.POST("/register", d.AuthHandler.Register, limited...)
	api.POST("/token", d.AuthHandler.Login, limited...)
	api.POST("/token/refresh", d.AuthHandler.Refresh)
	api.POST("/logout", d.AuthHandler.LogOut)
	api.GET("/username", d.AuthHandler.Username, requireLogin)

	api.GET("/start_quiz", d.QuizHandler.StartQuiz)
	api.GET("/quiz", d.QuizHandler.Current)
	api.POST("/quiz", d.QuizHandler.Guess)
	api.POST("/quiz/reset", d.QuizHandler.Reset)
	api.POST("/next_quiz", d.QuizHandler.NextQuiz)

	api.GET("/highscores", d.HighscoreHandler.List, requireLogin)
	api.GET("/highscores/me", d.HighscoreHandler.Mine, requireLogin)
	api.GET("/highscore/:top", d.HighscoreHandler.Top, requireLogin)
	api.POST("/highscore", d.HighscoreHandler.Submit, requireLogin)
}

func authRateLimiter(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(perSecond) * 2,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", 429)
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
		},
	})}
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := echo.Map{}
	healthy := true
	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "dependency", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}
