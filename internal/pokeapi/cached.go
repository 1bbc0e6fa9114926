package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dexquiz/dexquiz/internal/logging"
)

// CachedProvider keeps upstream payloads in Redis. Cache failures are
// logged and never fail a fetch.
type CachedProvider struct {
	Next Provider
	RDB  redis.UniversalClient
	TTL  time.Duration
}

func cacheKey(id int) string { return "pokeapi:pokemon:" + strconv.Itoa(id) }

func (c *CachedProvider) Fetch(ctx context.Context, id int) (*Pokemon, error) {
	if c.TTL <= 0 || c.RDB == nil {
		return c.Next.Fetch(ctx, id)
	}
	l := logging.FromContext(ctx)

	raw, err := c.RDB.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var p Pokemon
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		l.Warn("pokeapi_cache_decode_failed", "pokemon_id", id)
	case !errors.Is(err, redis.Nil):
		l.Warn("pokeapi_cache_read_failed", "pokemon_id", id, "error", err)
	}

	p, err := c.Next.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := c.RDB.Set(ctx, cacheKey(id), raw, c.TTL).Err(); err != nil {
			l.Warn("pokeapi_cache_write_failed", "pokemon_id", id, "error", err)
		}
	}
	return p, nil
}
