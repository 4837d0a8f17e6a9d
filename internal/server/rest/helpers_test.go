package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

type testEnv struct {
	server  *Server
	handler http.Handler
	clock   *testClock
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	store := memory.NewStore(memory.WithClock(clock.Now))
	m := metrics.New()
	l := logging.Nop()

	users := services.NewUserService(store, nil, store, cfg, l, services.WithClock(clock), services.WithObserver(m))
	tasks := services.NewTaskService(store, nil, store, l, clock)

	s := NewServer(cfg, l, users, tasks, m, clock)
	return &testEnv{server: s, handler: s.Handler(), clock: clock, metrics: m}
}

type call struct {
	method  string
	path    string
	body    string
	token   string
	cookies []*http.Cookie
	header  map[string]string
}

func (e *testEnv) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) url(path string) string {
	return e.server.config.APIPrefix() + path
}

// signup registers and logs in a user, returning the access token and the
// refresh cookie.
func (e *testEnv) signup(t *testing.T, username, email string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, call{
		method: http.MethodPost,
		path:   e.url("/register"),
		body:   `{"username":"` + username + `","email":"` + email + `","password":"secret123"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return e.login(t, email, "secret123")
}

func (e *testEnv) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, call{
		method: http.MethodPost,
		path:   e.url("/login"),
		body:   `{"email":"` + email + `","password":"` + password + `"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp accessTokenResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)

	return resp.AccessToken, refreshCookie(t, rec)
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.RefreshTokenCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", common.RefreshTokenCookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
