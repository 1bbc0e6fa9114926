package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
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
	"github.com/dexquiz/dexquiz/internal/service"
	"github.com/dexquiz/dexquiz/internal/tokens"
)

type staticDex struct{}

func (staticDex) Fetch(_ context.Context, id int) (*pokeapi.Pokemon, error) {
	return &pokeapi.Pokemon{
		ID: id, Name: "bulbasaur", Height: 7, Weight: 69,
		Stats: []pokeapi.Stat{{Name: "hp", BaseStat: 45}},
		Types: []string{"grass", "poison"},
		FlavorTextEntries: []pokeapi.FlavorText{
			{Text: "Bulbasaur can be seen napping.", Language: "en"},
		},
	}, nil
}

type testServer struct {
	srv    *httptest.Server
	mr     *miniredis.Miniredis
	tokens *tokens.Service
	events *eventstest.Recorder
}

func newTestServer(t *testing.T, rateLimit float64) *testServer {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "http.db") + "?_pragma=foreign_keys(1)"
	gdb, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: dsn, PoolSize: 1})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tok, err := tokens.NewService([]byte("test-secret"))
	require.NoError(t, err)

	users := repo.New(gdb)
	states := quizstate.New(rdb)
	rec := &eventstest.Recorder{}
	m := metrics.New()

	authSvc := &service.AuthService{Users: users, Tokens: tok, Events: rec, Metrics: m}
	cookies := Cookies{}

	e := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Register(e, &Deps{
		AuthHandler:      &AuthHTTP{Svc: authSvc, Cookies: cookies},
		QuizHandler:      &QuizHTTP{Svc: &service.QuizService{States: states, Provider: staticDex{}, Metrics: m, FixedPokemonID: 1}, Cookies: cookies},
		HighscoreHandler: &HighscoreHTTP{Svc: &service.HighscoreService{Scores: users, States: states, Events: rec, Metrics: m}},
		Authn:            authSvc,
		Metrics:          m,
		Ready: map[string]Checker{
			"database": users.Ping,
			"redis":    states.Ping,
		},
		AuthRateLimit: rateLimit,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, mr: mr, tokens: tok, events: rec}
}

// client keeps cookies and never follows redirects.
func (ts *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (ts *testServer) do(t *testing.T, c *http.Client, method, path string, form url.Values, jsonBody string) (*http.Response, map[string]any) {
	t.Helper()

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case form != nil:
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case jsonBody != "":
		body = strings.NewReader(jsonBody)
		contentType = "application/json"
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (ts *testServer) doList(t *testing.T, c *http.Client, path string) (int, []map[string]any) {
	t.Helper()

	resp, err := c.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (ts *testServer) registerAndLogin(t *testing.T, c *http.Client, username, password string) {
	t.Helper()

	resp, _ := ts.do(t, c, http.MethodPost, "/api/register", nil,
		`{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = ts.do(t, c, http.MethodPost, "/api/token", url.Values{"username": {username}, "password": {password}}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
