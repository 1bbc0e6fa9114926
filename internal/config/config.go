package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string

	SecretKey []byte

	DBDriver    string
	DatabaseURL string
	DBPoolSize  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	PokeAPIURL      string
	PokeAPICacheTTL time.Duration
	FixedPokemonID  int

	KafkaBrokers []string
	KafkaTopic   string

	HealthRetries int
	HealthDelay   time.Duration

	AuthRateLimit float64
	CookieSecure  bool
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8000),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		SecretKey: []byte(os.Getenv("SECRET_KEY")),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPoolSize:  EnvIntDefault("DB_POOL_SIZE", 10),

		RedisAddr:     EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		RedisPoolSize: EnvIntDefault("REDIS_POOL_SIZE", 10),

		PokeAPIURL:      EnvDefault("POKEAPI_URL", "https://pokeapi.co/api/v2/"),
		PokeAPICacheTTL: EnvDurationDefault("POKEAPI_CACHE_TTL", 24*time.Hour),
		FixedPokemonID:  EnvIntDefault("QUIZ_FIXED_POKEMON_ID", 0),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "quiz_events"),

		HealthRetries: EnvIntDefault("HEALTH_RETRIES", 5),
		HealthDelay:   EnvDurationDefault("HEALTH_DELAY", 2*time.Second),

		AuthRateLimit: EnvFloatDefault("AUTH_RATE_LIMIT", 5),
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", false),
	}
}

// MustValidate aborts the process when a required setting is missing.
func (c Config) MustValidate() {
	MustNonEmptyBytes(c.SecretKey, "SECRET_KEY")
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
