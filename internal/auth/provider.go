package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookieName = "bookstore-oauth-state"
	defaultCookie   = "bookstore-admin"
)

// Config holds identity provider and session settings.
type Config struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=hosted mock"`
	ClientID      string        `mapstructure:"client_id" validate:"required_if=Provider hosted"`
	ClientSecret  string        `mapstructure:"client_secret"`
	RedirectURL   string        `mapstructure:"redirect_url" validate:"required_if=Provider hosted"`
	AuthURL       string        `mapstructure:"auth_url" validate:"required_if=Provider hosted"`
	TokenURL      string        `mapstructure:"token_url" validate:"required_if=Provider hosted"`
	UserInfoURL   string        `mapstructure:"userinfo_url" validate:"required_if=Provider hosted"`
	LogoutURL     string        `mapstructure:"logout_url"`
	Scopes        []string      `mapstructure:"scopes"`
	SessionSecret string        `mapstructure:"session_secret" validate:"required_if=Provider hosted"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	MockUsername  string        `mapstructure:"mock_username"`
}

// Authenticator signs administrators in against the hosted identity provider
// and guards the console behind a session cookie.
type Authenticator struct {
	oauth       *oauth2.Config
	userInfoURL string
	logoutURL   string
	sessions    *SessionManager
	cookieName  string
	mock        *User
	logger      *zap.Logger
}

// NewAuthenticator builds an Authenticator from config. With Provider "mock"
// every request is signed in as MockUsername.
func NewAuthenticator(cfg Config, logger *zap.Logger) (*Authenticator, error) {
	if cfg.SessionSecret == "" {
		if cfg.Provider != "mock" {
			return nil, fmt.Errorf("session secret is required")
		}
		// Mock sessions never outlive the process.
		secret, err := generateState()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
	}
	a := &Authenticator{
		userInfoURL: cfg.UserInfoURL,
		logoutURL:   cfg.LogoutURL,
		sessions:    NewSessionManager(cfg.SessionSecret, cfg.SessionTTL),
		cookieName:  cfg.CookieName,
		logger:      logger,
	}
	if a.cookieName == "" {
		a.cookieName = defaultCookie
	}

	switch cfg.Provider {
	case "mock":
		username := cfg.MockUsername
		if username == "" {
			username = "admin"
		}
		a.mock = &User{Username: username, Name: "Local Admin", Role: "admin"}
		logger.Warn("mock identity provider enabled", zap.String("username", username))
	case "hosted", "":
		if cfg.ClientID == "" || cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
			return nil, fmt.Errorf("client id, auth url, token url and userinfo url are required for the hosted provider")
		}
		scopes := cfg.Scopes
		if len(scopes) == 0 {
			scopes = []string{"openid", "email", "profile"}
		}
		a.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		}
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
	return a, nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Login redirects to the identity provider's sign-in page.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request) {
	if a.mock != nil {
		a.startSession(w, r, *a.mock)
		return
	}
	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to start sign-in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the authorization code flow and issues the session cookie.
func (a *Authenticator) Callback(w http.ResponseWriter, r *http.Request) {
	if a.mock != nil {
		a.startSession(w, r, *a.mock)
		return
	}
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.FormValue("state") {
		http.Error(w, "invalid sign-in state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	token, err := a.oauth.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		a.logger.Warn("code exchange failed", zap.Error(err))
		http.Error(w, "sign-in failed", http.StatusUnauthorized)
		return
	}
	user, err := a.fetchUser(r.Context(), token)
	if err != nil {
		a.logger.Warn("userinfo lookup failed", zap.Error(err))
		http.Error(w, "sign-in failed", http.StatusUnauthorized)
		return
	}
	a.startSession(w, r, user)
}

type userInfo struct {
	Username          string `json:"username"`
	PreferredUsername string `json:"preferred_username"`
	CognitoUsername   string `json:"cognito:username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Subject           string `json:"sub"`
}

func (a *Authenticator) fetchUser(ctx context.Context, token *oauth2.Token) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return User{}, err
	}
	resp, err := a.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return User{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	username := firstNonEmpty(info.CognitoUsername, info.Username, info.PreferredUsername, info.Email, info.Subject)
	if username == "" {
		return User{}, fmt.Errorf("userinfo carries no username")
	}
	return User{Username: username, Name: info.Name, Email: info.Email, Role: "admin"}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (a *Authenticator) startSession(w http.ResponseWriter, r *http.Request, user User) {
	value, expires, err := a.sessions.Issue(user)
	if err != nil {
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	a.logger.Info("admin signed in", zap.String("username", user.Username))
	http.Redirect(w, r, "/welcome", http.StatusSeeOther)
}

// Logout clears the session cookie and hands off to the provider's sign-out
// endpoint when one is configured, otherwise to next.
func (a *Authenticator) Logout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: a.cookieName, Value: "", Path: "/", MaxAge: -1})
		if a.logoutURL != "" {
			http.Redirect(w, r, a.logoutURL, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware resolves the session into the request context. Browsers without
// a session are sent to sign in; other clients get 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.mock != nil {
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), *a.mock)))
			return
		}
		cookie, err := r.Cookie(a.cookieName)
		if err == nil {
			user, parseErr := a.sessions.Parse(cookie.Value)
			if parseErr == nil {
				next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
				return
			}
			err = parseErr
		}
		a.logger.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
		if strings.Contains(r.Header.Get("Accept"), "text/html") {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
