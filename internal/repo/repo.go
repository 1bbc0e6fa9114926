package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/dexquiz/dexquiz/internal/db"
	"github.com/dexquiz/dexquiz/internal/health"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrEmptyField        = errors.New("required field is empty")
	ErrUserNotFound      = errors.New("user not found")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(gdb *gorm.DB) *GormRepo {
	return &GormRepo{DB: gdb}
}

func (r *GormRepo) Ping(ctx context.Context) error {
	return db.Ping(ctx, r.DB)
}

// IsHealthy retries Ping a bounded number of times. Startup only.
func (r *GormRepo) IsHealthy(ctx context.Context, retries int, delay time.Duration) bool {
	return health.Wait(ctx, "database", r.Ping, retries, delay) == nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
