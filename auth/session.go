package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hrms/apperr"
	"hrms/models"
)

var (
	ErrMissingToken = apperr.New(apperr.KindUnauthenticated, "missing_token", "session token required")
	ErrInvalidToken = apperr.New(apperr.KindUnauthenticated, "invalid_token", "session token is invalid")
	ErrExpiredToken = apperr.New(apperr.KindUnauthenticated, "expired_token", "session token has expired")
)

// Claims is the signed session payload. ActingAs is set only on
// impersonation tokens and names the admin who minted it; authorization
// decisions never read it.
type Claims struct {
	AccountID string      `json:"account_id"`
	Role      models.Role `json:"role"`
	ActingAs  string      `json:"act,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Impersonated() bool {
	return c != nil && c.ActingAs != ""
}

// SessionManager signs and verifies HS256 session tokens. It holds no
// mutable state after construction.
type SessionManager struct {
	secret           []byte
	ttl              time.Duration
	impersonationTTL time.Duration
	now              func() time.Time
}

type SessionOption func(*SessionManager)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithImpersonationTTL bounds the lifetime of view-as tokens. Defaults to ttl.
func WithImpersonationTTL(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.impersonationTTL = d
		}
	}
}

func NewSessionManager(secret string, ttl time.Duration, opts ...SessionOption) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("auth: session secret must be set")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	m := &SessionManager{
		secret:           []byte(secret),
		ttl:              ttl,
		impersonationTTL: ttl,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL is the lifetime of regular sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a session for the account's own identity.
func (m *SessionManager) Issue(account *models.Account) (string, error) {
	if account == nil || account.ID == "" || !account.Role.Valid() {
		return "", fmt.Errorf("auth: cannot issue session for incomplete account")
	}
	return m.sign(account.ID, account.Role, "", m.ttl)
}

// IssueImpersonation mints a session carrying the target's identity and role.
// The caller must hold a non-impersonated ADMIN session.
func (m *SessionManager) IssueImpersonation(admin *Claims, target *models.Account) (string, error) {
	if err := Authorize(admin, Roles(models.RoleAdmin)); err != nil {
		return "", err
	}
	if admin.Impersonated() {
		return "", apperr.Wrap(apperr.ErrForbidden, errors.New("nested impersonation"))
	}
	if target == nil || target.ID == "" || !target.Role.Valid() {
		return "", fmt.Errorf("auth: cannot impersonate incomplete account")
	}
	return m.sign(target.ID, target.Role, admin.AccountID, m.impersonationTTL)
}

func (m *SessionManager) sign(accountID string, role models.Role, actingAs string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		AccountID: accountID,
		Role:      role,
		ActingAs:  actingAs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Missing, invalid, and expired tokens
// fail with distinct errors.
func (m *SessionManager) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(ErrExpiredToken, err)
		}
		return nil, apperr.Wrap(ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
