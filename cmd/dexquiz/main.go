package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dexquiz/dexquiz/internal/cache"
	"github.com/dexquiz/dexquiz/internal/config"
	"github.com/dexquiz/dexquiz/internal/db"
	"github.com/dexquiz/dexquiz/internal/events"
	"github.com/dexquiz/dexquiz/internal/httpserver"
	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/metrics"
	"github.com/dexquiz/dexquiz/internal/pokeapi"
	"github.com/dexquiz/dexquiz/internal/quizstate"
	"github.com/dexquiz/dexquiz/internal/repo"
	"github.com/dexquiz/dexquiz/internal/service"
	"github.com/dexquiz/dexquiz/internal/tokens"
)

func main() {
	cfg := config.Load()
	cfg.MustValidate()

	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	gdb, err := db.Open(db.Options{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL, PoolSize: cfg.DBPoolSize})
	if err != nil {
		log.Error("db init failed", "error", err)
		os.Exit(1)
	}
	users := repo.New(gdb)

	rdb := cache.Open(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	states := quizstate.New(rdb)

	startCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HealthRetries+1)*(cfg.HealthDelay+3*time.Second))
	err = db.MigrateWhenHealthy(startCtx, gdb, func(ctx context.Context) bool {
		return users.IsHealthy(ctx, cfg.HealthRetries, cfg.HealthDelay)
	})
	if err != nil {
		cancel()
		log.Error("database init failed", "retries", cfg.HealthRetries, "error", err)
		os.Exit(1)
	}
	if !states.IsHealthy(startCtx, cfg.HealthRetries, cfg.HealthDelay) {
		cancel()
		log.Error("redis unhealthy", "retries", cfg.HealthRetries)
		os.Exit(1)
	}
	cancel()

	tok, err := tokens.NewService(cfg.SecretKey)
	if err != nil {
		log.Error("token service", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Nop{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPub
		log.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	m := metrics.New()
	provider := &pokeapi.CachedProvider{
		Next: pokeapi.NewClient(cfg.PokeAPIURL),
		RDB:  rdb,
		TTL:  cfg.PokeAPICacheTTL,
	}

	authSvc := &service.AuthService{Users: users, Tokens: tok, Events: publisher, Metrics: m}
	quizSvc := &service.QuizService{States: states, Provider: provider, Metrics: m, FixedPokemonID: cfg.FixedPokemonID}
	hsSvc := &service.HighscoreService{Scores: users, States: states, Events: publisher, Metrics: m}
	cookies := httpserver.Cookies{Secure: cfg.CookieSecure}

	e := httpserver.New(log)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:      &httpserver.AuthHTTP{Svc: authSvc, Cookies: cookies},
		QuizHandler:      &httpserver.QuizHTTP{Svc: quizSvc, Cookies: cookies},
		HighscoreHandler: &httpserver.HighscoreHTTP{Svc: hsSvc},
		Authn:            authSvc,
		Metrics:          m,
		Ready: map[string]httpserver.Checker{
			"database": users.Ping,
			"redis":    states.Ping,
		},
		AuthRateLimit: cfg.AuthRateLimit,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	go func() {
		<-quit
		log.Warn("force exit")
		os.Exit(1)
	}()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		log.Error("db close error", "error", err)
	}
	if err := rdb.Close(); err != nil {
		log.Error("redis close error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Error("kafka close error", "error", err)
		}
	}

	log.Info("shutdown complete")
}
