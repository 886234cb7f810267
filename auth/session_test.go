package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"hrms/apperr"
	"hrms/models"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

func newTestManager(t *testing.T, clk *stubClock) *SessionManager {
	t.Helper()
	m, err := NewSessionManager("test-secret", time.Hour, WithClock(clk.Now), WithImpersonationTTL(15*time.Minute))
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}
	return m
}

func employee() *models.Account {
	return &models.Account{ID: "OIJD20260001", Role: models.RoleEmployee}
}

func TestSessionManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clk)

	token, err := m.Issue(employee())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.AccountID != "OIJD20260001" || claims.Role != models.RoleEmployee {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Impersonated() {
		t.Fatalf("own session must not be marked impersonated")
	}
	if !claims.ExpiresAt.Time.Equal(clk.now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt.Time)
	}
}

func TestSessionManager_Expired(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clk)

	token, err := m.Issue(employee())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clk.now = clk.now.Add(time.Hour + time.Second)

	_, err = m.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("expected unauthenticated kind, got %v", apperr.KindOf(err))
	}
}

func TestSessionManager_TamperedSignature(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clk)

	token, err := m.Issue(employee())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	idx := strings.LastIndex(token, ".") + 1
	replacement := byte('A')
	if token[idx] == 'A' {
		replacement = 'B'
	}
	tampered := token[:idx] + string(replacement) + token[idx+1:]

	if _, err := m.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionManager_TamperedPayload(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clk)

	token, err := m.Issue(employee())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	idx := strings.Index(token, ".") + 5
	replacement := byte('x')
	if token[idx] == 'x' {
		replacement = 'y'
	}
	tampered := token[:idx] + string(replacement) + token[idx+1:]

	if _, err := m.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionManager_WrongSecret(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Now()}
	issuer := newTestManager(t, clk)
	other, err := NewSessionManager("another-secret", time.Hour, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, err := issuer.Issue(employee())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionManager_MissingAndMalformed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, &stubClock{now: time.Now()})

	if _, err := m.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := m.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionManager_Impersonation(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clk)

	admin := &Claims{AccountID: "OIAU20260001", Role: models.RoleAdmin}
	token, err := m.IssueImpersonation(admin, employee())
	if err != nil {
		t.Fatalf("IssueImpersonation returned error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.AccountID != "OIJD20260001" || claims.Role != models.RoleEmployee {
		t.Fatalf("impersonation token must carry target identity, got %+v", claims)
	}
	if claims.ActingAs != "OIAU20260001" {
		t.Fatalf("expected acting-as admin, got %q", claims.ActingAs)
	}
	if !claims.ExpiresAt.Time.Equal(clk.now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected impersonation expiry %v", claims.ExpiresAt.Time)
	}
}

func TestSessionManager_ImpersonationRequiresAdmin(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, &stubClock{now: time.Now()})

	cases := []struct {
		name   string
		caller *Claims
		want   error
	}{
		{name: "anonymous", caller: nil, want: apperr.ErrUnauthenticated},
		{name: "employee", caller: &Claims{AccountID: "OIJD20260002", Role: models.RoleEmployee}, want: apperr.ErrForbidden},
		{name: "nested", caller: &Claims{AccountID: "OIAU20260001", Role: models.RoleAdmin, ActingAs: "OIAU20260002"}, want: apperr.ErrForbidden},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.IssueImpersonation(tc.caller, employee()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewSessionManager_RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSessionManager("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewSessionManager("s", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
