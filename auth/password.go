// Package auth owns credentials, session tokens and role checks.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"hrms/apperr"
)

const (
	MinPasswordLength = 8
	maxPasswordBytes  = 72
)

var (
	ErrWeakPassword       = apperr.New(apperr.KindValidation, "weak_password", fmt.Sprintf("password must be %d to %d characters", MinPasswordLength, maxPasswordBytes))
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid_credentials", "invalid credentials")
)

// CredentialStore hashes and verifies passwords with bcrypt.
type CredentialStore struct {
	cost int
}

func NewCredentialStore(cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{cost: cost}
}

func (s *CredentialStore) Hash(password string) (string, error) {
	if len(password) < MinPasswordLength || len(password) > maxPasswordBytes {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *CredentialStore) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return apperr.Wrap(ErrInvalidCredentials, err)
}
