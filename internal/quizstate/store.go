package quizstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dexquiz/dexquiz/internal/cache"
	"github.com/dexquiz/dexquiz/internal/health"
)

// TTL is the sliding expiry applied to both keys on every read and write.
const TTL = 1800 * time.Second

var ErrStateNotFound = errors.New("quiz state not found")

// State is one session's puzzle. Score is read from the counter key and
// is never stored inside the JSON blob.
type State struct {
	PokemonID int            `json:"pokemon_id"`
	Name      string         `json:"name"`
	Height    int            `json:"height"`
	Weight    int            `json:"weight"`
	Stats     map[string]int `json:"stats"`
	Types     []string       `json:"types"`
	Entry     string         `json:"entry"`
	HintIndex int            `json:"hint_index"`
	Score     int            `json:"-"`
}

type Store struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func stateKey(sessionID string) string { return "quiz:" + sessionID }
func scoreKey(sessionID string) string { return "quiz:" + sessionID + ":score" }

// GetState returns ErrStateNotFound when the blob is absent. A missing
// counter reads as score 0.
func (s *Store) GetState(ctx context.Context, sessionID string) (*State, error) {
	var (
		blob  *redis.StringCmd
		score *redis.StringCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		blob = p.GetEx(ctx, stateKey(sessionID), TTL)
		score = p.Get(ctx, scoreKey(sessionID))
		p.Expire(ctx, scoreKey(sessionID), TTL)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get quiz state: %w", err)
	}

	raw, err := blob.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz state: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode quiz state: %w", err)
	}

	n, err := score.Int()
	switch {
	case errors.Is(err, redis.Nil):
		st.Score = 0
	case err != nil:
		return nil, fmt.Errorf("get quiz score: %w", err)
	default:
		st.Score = n
	}
	return &st, nil
}

// SetState overwrites the blob and slides both expiries. The counter is
// created at zero if missing and otherwise left alone.
func (s *Store) SetState(ctx context.Context, sessionID string, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode quiz state: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, stateKey(sessionID), raw, TTL)
		p.SetNX(ctx, scoreKey(sessionID), 0, TTL)
		p.Expire(ctx, scoreKey(sessionID), TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set quiz state: %w", err)
	}
	return nil
}

func (s *Store) ClearState(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, stateKey(sessionID), scoreKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear quiz state: %w", err)
	}
	return nil
}

// IncrementScore adds delta atomically and returns the new total.
func (s *Store) IncrementScore(ctx context.Context, sessionID string, delta int) (int, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.IncrBy(ctx, scoreKey(sessionID), int64(delta))
		p.Expire(ctx, scoreKey(sessionID), TTL)
		p.Expire(ctx, stateKey(sessionID), TTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment quiz score: %w", err)
	}
	return int(incr.Val()), nil
}

// GetScore reports ok=false when the counter key does not exist.
func (s *Store) GetScore(ctx context.Context, sessionID string) (int, bool, error) {
	n, err := s.rdb.GetEx(ctx, scoreKey(sessionID), TTL).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get quiz score: %w", err)
	}
	return n, true, nil
}

func (s *Store) ResetScore(ctx context.Context, sessionID string) error {
	if err := s.rdb.Set(ctx, scoreKey(sessionID), 0, TTL).Err(); err != nil {
		return fmt.Errorf("reset quiz score: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return cache.Ping(ctx, s.rdb)
}

// IsHealthy retries Ping a bounded number of times. Startup only.
func (s *Store) IsHealthy(ctx context.Context, retries int, delay time.Duration) bool {
	return health.Wait(ctx, "redis", s.Ping, retries, delay) == nil
}
