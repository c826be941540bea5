package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdentityProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/oauth2/userInfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":              "f00",
			"cognito:username": "jdoe",
			"email":            "jdoe@example.com",
			"name":             "J Doe",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func hostedAuthenticator(t *testing.T, idp *httptest.Server) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(Config{
		Provider:      "hosted",
		ClientID:      "client",
		ClientSecret:  "secret",
		RedirectURL:   "http://localhost:8080/auth/callback",
		AuthURL:       idp.URL + "/oauth2/authorize",
		TokenURL:      idp.URL + "/oauth2/token",
		UserInfoURL:   idp.URL + "/oauth2/userInfo",
		SessionSecret: "session-secret",
	}, zap.NewNop())
	require.NoError(t, err)
	return a
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthenticator_LoginRedirectsWithState(t *testing.T) {
	idp := newIdentityProvider(t)
	a := hostedAuthenticator(t, idp)

	rec := httptest.NewRecorder()
	a.Login(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := cookieNamed(rec.Result().Cookies(), stateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, state.Value, location.Query().Get("state"))
	assert.Equal(t, "client", location.Query().Get("client_id"))
}

func TestAuthenticator_CallbackIssuesSession(t *testing.T) {
	idp := newIdentityProvider(t)
	a := hostedAuthenticator(t, idp)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	a.Callback(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
	session := cookieNamed(rec.Result().Cookies(), defaultCookie)
	require.NotNil(t, session)

	user, err := a.sessions.Parse(session.Value)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, "jdoe@example.com", user.Email)
}

func TestAuthenticator_CallbackRejectsStateMismatch(t *testing.T) {
	idp := newIdentityProvider(t)
	a := hostedAuthenticator(t, idp)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code&state=other", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	a.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthenticator_CallbackRejectsBadCode(t *testing.T) {
	idp := newIdentityProvider(t)
	a := hostedAuthenticator(t, idp)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	a.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_Middleware(t *testing.T) {
	idp := newIdentityProvider(t)
	a := hostedAuthenticator(t, idp)
	var seen string
	protected := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UsernameFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	browser := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	browser.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, browser)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	token, _, err := a.sessions.Issue(User{Username: "jdoe"})
	require.NoError(t, err)
	signedIn := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	signedIn.AddCookie(&http.Cookie{Name: defaultCookie, Value: token})
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, signedIn)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", seen)
}

func TestAuthenticator_MockSignsEveryoneIn(t *testing.T) {
	a, err := NewAuthenticator(Config{Provider: "mock", SessionSecret: "s", MockUsername: "dev"}, zap.NewNop())
	require.NoError(t, err)

	var seen string
	a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UsernameFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/welcome", nil))

	assert.Equal(t, "dev", seen)
}

func TestNewAuthenticator_RequiresHostedSettings(t *testing.T) {
	_, err := NewAuthenticator(Config{Provider: "hosted", SessionSecret: "s"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewAuthenticator(Config{
		Provider:    "hosted",
		ClientID:    "client",
		AuthURL:     "https://idp.example.com/authorize",
		TokenURL:    "https://idp.example.com/token",
		UserInfoURL: "https://idp.example.com/userInfo",
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAuthenticator_MockWithoutSecretIssuesSessions(t *testing.T) {
	a, err := NewAuthenticator(Config{Provider: "mock"}, zap.NewNop())
	require.NoError(t, err)

	token, _, err := a.sessions.Issue(User{Username: "admin"})
	require.NoError(t, err)
	user, err := a.sessions.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
}

func TestLogout_ClearsSessionAndFallsThrough(t *testing.T) {
	a := hostedAuthenticator(t, newIdentityProvider(t))
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	a.Logout(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, a.cookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	a.logoutURL = "https://idp.example.com/logout"
	rec = httptest.NewRecorder()
	a.Logout(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://idp.example.com/logout", rec.Header().Get("Location"))
}
