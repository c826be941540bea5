package auth

import (
	"context"
	"strings"
)

// User is the signed-in administrator as asserted by the identity provider.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

type contextKey string

const userKey contextKey = "user"

// ContextWithUser returns a new context that carries the authenticated user.
func ContextWithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the context, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userKey).(User)
	if !ok || strings.TrimSpace(user.Username) == "" {
		return User{}, false
	}
	return user, true
}

// UsernameFromContext returns the authenticated username or an empty string.
func UsernameFromContext(ctx context.Context) string {
	user, _ := UserFromContext(ctx)
	return user.Username
}
