package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dexquiz/dexquiz/internal/db"
	"github.com/dexquiz/dexquiz/internal/events/eventstest"
	"github.com/dexquiz/dexquiz/internal/metrics"
	"github.com/dexquiz/dexquiz/internal/pokeapi"
	"github.com/dexquiz/dexquiz/internal/quizstate"
	"github.com/dexquiz/dexquiz/internal/repo"
	"github.com/dexquiz/dexquiz/internal/tokens"
)

type fakeProvider struct {
	byID map[int]*pokeapi.Pokemon
	err  error
}

func (f *fakeProvider) Fetch(_ context.Context, id int) (*pokeapi.Pokemon, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: no pokemon %d", pokeapi.ErrUpstream, id)
	}
	return p, nil
}

func testPokedex() *fakeProvider {
	return &fakeProvider{byID: map[int]*pokeapi.Pokemon{
		1: {
			ID: 1, Name: "bulbasaur", Height: 7, Weight: 69,
			Stats: []pokeapi.Stat{{Name: "hp", BaseStat: 45}, {Name: "special-attack", BaseStat: 65}},
			Types: []string{"grass", "poison"},
			FlavorTextEntries: []pokeapi.FlavorText{
				{Text: "BULBASAUR can be seen\nnapping in bright sunlight.", Language: "en"},
				{Text: "Bisasam macht gern ein Nickerchen.", Language: "de"},
			},
		},
		4: {
			ID: 4, Name: "charmander", Height: 6, Weight: 85,
			Stats: []pokeapi.Stat{{Name: "hp", BaseStat: 39}},
			Types: []string{"fire"},
		},
	}}
}

type env struct {
	mr     *miniredis.Miniredis
	repo   *repo.GormRepo
	states *quizstate.Store
	dex    *fakeProvider
	events *eventstest.Recorder

	auth       *AuthService
	quiz       *QuizService
	highscores *HighscoreService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "svc.db") + "?_pragma=foreign_keys(1)"
	gdb, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: dsn, PoolSize: 1})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tok, err := tokens.NewService([]byte("test-secret"))
	require.NoError(t, err)

	e := &env{
		mr:     mr,
		repo:   repo.New(gdb),
		states: quizstate.New(rdb),
		dex:    testPokedex(),
		events: &eventstest.Recorder{},
	}
	m := metrics.New()
	e.auth = &AuthService{Users: e.repo, Tokens: tok, Events: e.events, Metrics: m}
	e.quiz = &QuizService{States: e.states, Provider: e.dex, Metrics: m, FixedPokemonID: 1}
	e.highscores = &HighscoreService{Scores: e.repo, States: e.states, Events: e.events, Metrics: m}
	return e
}
