package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidSession = errors.New("invalid session")

type sessionClaims struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed session cookie value.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token for user.
func (m *SessionManager) Issue(user User) (string, time.Time, error) {
	issuedAt := m.now()
	expires := issuedAt.Add(m.ttl)
	claims := sessionClaims{
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a session token and returns the user it was issued for.
func (m *SessionManager) Parse(tokenString string) (User, error) {
	claims := &sessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", errInvalidSession, err)
	}
	if !token.Valid || claims.Username == "" {
		return User{}, errInvalidSession
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(m.now()) {
		return User{}, fmt.Errorf("%w: expired", errInvalidSession)
	}
	return User{Username: claims.Username, Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}
