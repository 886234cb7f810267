package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrms/auth"
	"hrms/models"
	"hrms/respond"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator resolves the session token on incoming requests.
type Authenticator struct {
	tokens TokenVerifier
}

func NewAuthenticator(tokens TokenVerifier) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Required rejects requests without a valid session with 401.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.tokens.Verify(TokenFromRequest(r))
		if err != nil {
			clearInvalidCookie(w, r)
			respond.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalAuth lets requests without any token through anonymously. A
// token that is presented but fails verification is still rejected.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.tokens.Verify(token)
		if err != nil {
			clearInvalidCookie(w, r)
			respond.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole admits sessions whose role is one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := auth.Roles(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Authorize(ClaimsFromContext(r.Context()), allowed); err != nil {
				respond.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest reads the token cookie first, then a Bearer header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func clearInvalidCookie(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(TokenCookie); err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
