package rest

import (
	"net/http"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, call{
		method: http.MethodPost,
		path:   e.url("/register"),
		body:   `{"username":"alice","email":"alice@example.com","password":"secret123"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully"}`, rec.Body.String())

	rec = e.do(t, call{
		method: http.MethodPost,
		path:   e.url("/register"),
		body:   `{"username":"alice2","email":"alice@example.com","password":"secret123"}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, rec.Body.String())
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "short username",
			body: `{"username":"al","email":"alice@example.com","password":"secret123"}`,
			want: `{"errors":[{"path":"username","location":"body","msg":"Username must be 3-30 characters."}]}`,
		},
		{
			name: "bad email",
			body: `{"username":"alice","email":"nope","password":"secret123"}`,
			want: `{"errors":[{"path":"email","location":"body","msg":"Email must be valid."}]}`,
		},
		{
			name: "short password",
			body: `{"username":"alice","email":"alice@example.com","password":"123"}`,
			want: `{"errors":[{"path":"password","location":"body","msg":"Password must be at least 6 characters."}]}`,
		},
		{
			name: "wrong type",
			body: `{"username":5,"email":"alice@example.com","password":"secret123"}`,
			want: `{"errors":[{"path":"username","location":"body","msg":"Invalid value."}]}`,
		},
		{
			name: "malformed",
			body: `{"username":`,
			want: `{"errors":[{"path":"body","location":"body","msg":"Malformed JSON body."}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			rec := e.do(t, call{method: http.MethodPost, path: e.url("/register"), body: tt.body})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestRegister_EmptyBody(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, call{method: http.MethodPost, path: e.url("/register")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[{"path":"payload","location":"body","msg":"Payload cannot be empty"}]}`, rec.Body.String())
}

func TestLogin_SetsRefreshCookie(t *testing.T) {
	e := newTestEnv(t)
	access, cookie := e.signup(t, "alice", "alice@example.com")

	assert.NotEmpty(t, access)
	assert.Len(t, cookie.Value, 64)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(e.server.config.RefreshTokenValidityDuration.Seconds()), cookie.MaxAge)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.Environment = config.EnvironmentProduction })
	_, cookie := e.signup(t, "alice", "alice@example.com")
	assert.True(t, cookie.Secure)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "alice", "alice@example.com")

	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong-password"}`,
		`{"email":"bob@example.com","password":"secret123"}`,
	} {
		rec := e.do(t, call{method: http.MethodPost, path: e.url("/login"), body: body})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	e := newTestEnv(t)
	_, first := e.signup(t, "alice", "alice@example.com")

	rec := e.do(t, call{method: http.MethodPost, path: e.url("/refresh"), cookies: []*http.Cookie{first}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp accessTokenResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)

	second := refreshCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)

	// The consumed token is rejected and takes the whole family with it.
	rec = e.do(t, call{method: http.MethodPost, path: e.url("/refresh"), cookies: []*http.Cookie{first}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid refresh token"}`, rec.Body.String())

	rec = e.do(t, call{method: http.MethodPost, path: e.url("/refresh"), cookies: []*http.Cookie{second}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskkeeper_refresh_token_reuse_total 2")
	assert.Contains(t, rec.Body.String(), `taskkeeper_refresh_attempts_total{outcome="success"} 1`)
}

func TestRefresh_MissingCookie(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, call{method: http.MethodPost, path: e.url("/refresh")})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Missing refresh token"}`, rec.Body.String())

	rec = e.do(t, call{
		method:  http.MethodPost,
		path:    e.url("/refresh"),
		cookies: []*http.Cookie{{Name: common.RefreshTokenCookieName, Value: ""}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Missing refresh token"}`, rec.Body.String())
}

func TestRefresh_UnknownToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, call{
		method:  http.MethodPost,
		path:    e.url("/refresh"),
		cookies: []*http.Cookie{{Name: common.RefreshTokenCookieName, Value: "deadbeef"}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid refresh token"}`, rec.Body.String())
}

func TestRefresh_Expired(t *testing.T) {
	e := newTestEnv(t)
	_, cookie := e.signup(t, "alice", "alice@example.com")

	e.clock.Advance(e.server.config.RefreshTokenValidityDuration)

	rec := e.do(t, call{method: http.MethodPost, path: e.url("/refresh"), cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid refresh token"}`, rec.Body.String())
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	_, cookie := e.signup(t, "alice", "alice@example.com")

	for i := 0; i < 2; i++ {
		rec := e.do(t, call{method: http.MethodPost, path: e.url("/logout"), cookies: []*http.Cookie{cookie}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		cleared := refreshCookie(t, rec)
		assert.Empty(t, cleared.Value)
		assert.Equal(t, -1, cleared.MaxAge)
	}

	rec := e.do(t, call{method: http.MethodPost, path: e.url("/refresh"), cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_WithoutCookie(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, call{method: http.MethodPost, path: e.url("/logout")})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
