package accounts

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"hrms/apperr"
	"hrms/auth"
	"hrms/identity"
	"hrms/models"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager abstracts transaction control.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type IdentifierIssuer interface {
	Issue(ctx context.Context, firstName, lastName string, joinYear int) (string, error)
}

type Credentials interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

type SessionIssuer interface {
	Issue(account *models.Account) (string, error)
	IssueImpersonation(admin *auth.Claims, target *models.Account) (string, error)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
	maxNameLength       = 100

	// Hashed once per Service and compared on unknown logins.
	dummyPassword = "unknown-login-placeholder"
)

// Salaries must fit numeric(12,2).
var maxSalary = decimal.New(1, 10)

var adminOnly = auth.Roles(models.RoleAdmin)

type Service struct {
	repo     Repository
	ids      IdentifierIssuer
	creds    Credentials
	sessions SessionIssuer
	clock    Clock
	tx       TransactionManager
	validate *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

func NewService(repo Repository, ids IdentifierIssuer, creds Credentials, sessions SessionIssuer, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:     repo,
		ids:      ids,
		creds:    creds,
		sessions: sessions,
		clock:    clock,
		tx:       tx,
		validate: validator.New(),
	}
}

// Session is a signed token together with the account it asserts.
type Session struct {
	Account *models.Account
	Token   string
}

type CreateAccountInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       models.Role
	Department string
	JobTitle   string
	Phone      string
	Address    string
	Salary     decimal.Decimal
	// JoinDate defaults to today; its year selects the identifier serial space.
	JoinDate *time.Time
}

// SignUp registers an EMPLOYEE account and signs it in.
func (s *Service) SignUp(ctx context.Context, in CreateAccountInput) (*Session, error) {
	in.Role = models.RoleEmployee
	account, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	token, err := s.sessions.Issue(account)
	if err != nil {
		return nil, err
	}
	return &Session{Account: account, Token: token}, nil
}

// CreateAccount lets an admin register an account of either role.
func (s *Service) CreateAccount(ctx context.Context, admin *auth.Claims, in CreateAccountInput) (*models.Account, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	account, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Printf("[accounts] %s created account %s (%s)", admin.AccountID, account.ID, account.Role)
	return account, nil
}

func (s *Service) create(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	email, err := s.normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if !validSalary(in.Salary) {
		return nil, ErrInvalidSalary
	}
	if err := checkLengths(in.FirstName, in.LastName, in.Department, in.JobTitle); err != nil {
		return nil, err
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	joinDate := dateOf(s.clock.Now())
	if in.JoinDate != nil {
		joinDate = dateOf(*in.JoinDate)
	}

	var created *models.Account
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByEmail(txCtx, email)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}

		// Serial allocation and the insert share txCtx: a failed insert
		// rolls the counter back with it.
		id, err := s.ids.Issue(txCtx, in.FirstName, in.LastName, joinDate.Year())
		if err != nil {
			return err
		}

		now := s.clock.Now()
		account := &models.Account{
			ID:           id,
			CreatedAt:    now,
			UpdatedAt:    now,
			Email:        email,
			PasswordHash: hash,
			Role:         in.Role,
			JoinYear:     joinDate.Year(),
			Profile: &models.Profile{
				AccountID:  id,
				CreatedAt:  now,
				UpdatedAt:  now,
				FirstName:  strings.TrimSpace(in.FirstName),
				LastName:   strings.TrimSpace(in.LastName),
				Department: strings.TrimSpace(in.Department),
				JobTitle:   strings.TrimSpace(in.JobTitle),
				Salary:     in.Salary,
				Phone:      strings.TrimSpace(in.Phone),
				Address:    strings.TrimSpace(in.Address),
				JoinDate:   joinDate,
			},
		}
		if err := s.repo.Create(txCtx, account); err != nil {
			return err
		}
		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[accounts] issued %s for %s <%s>", created.ID, created.DisplayName(), created.Email)
	return created, nil
}

// SignIn accepts either an email address or an identifier as login.
func (s *Service) SignIn(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	var account *models.Account
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if strings.Contains(login, "@") {
			account, err = s.repo.FindByEmail(txCtx, strings.ToLower(login))
		} else {
			account, err = s.repo.FindByID(txCtx, identity.Normalize(login))
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Spend the same bcrypt work as a wrong password would.
			_ = s.creds.Verify(s.unknownLoginHash(), password)
			log.Printf("[accounts] sign-in failed for unknown login %q", login)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.creds.Verify(account.PasswordHash, password); err != nil {
		log.Printf("[accounts] sign-in failed for %s", account.ID)
		return nil, err
	}

	token, err := s.sessions.Issue(account)
	if err != nil {
		return nil, err
	}
	return &Session{Account: account, Token: token}, nil
}

func (s *Service) unknownLoginHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.creds.Hash(dummyPassword)
		if err != nil {
			log.Printf("[accounts] hash placeholder password: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ChangePassword replaces the session account's password once the current
// one checks out. View-as sessions cannot change the target's password.
func (s *Service) ChangePassword(ctx context.Context, claims *auth.Claims, current, next string) error {
	if claims == nil {
		return apperr.ErrUnauthenticated
	}
	if claims.Impersonated() {
		return apperr.Wrap(apperr.ErrForbidden, errors.New("password change during impersonation"))
	}

	hash, err := s.creds.Hash(next)
	if err != nil {
		return err
	}

	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		account, err := s.repo.FindByID(txCtx, claims.AccountID)
		if err != nil {
			return err
		}
		if err := s.creds.Verify(account.PasswordHash, current); err != nil {
			return err
		}
		return s.repo.UpdatePassword(txCtx, account.ID, hash)
	})
	if err != nil {
		return err
	}

	log.Printf("[accounts] %s changed password", claims.AccountID)
	return nil
}

// Impersonate mints a session scoped to targetID for an admin.
func (s *Service) Impersonate(ctx context.Context, admin *auth.Claims, targetID string) (*Session, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}

	target, err := s.find(ctx, identity.Normalize(targetID))
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.IssueImpersonation(admin, target)
	if err != nil {
		return nil, err
	}
	log.Printf("[accounts] %s is viewing as %s", admin.AccountID, target.ID)
	return &Session{Account: target, Token: token}, nil
}

// Me loads the account the session asserts.
func (s *Service) Me(ctx context.Context, claims *auth.Claims) (*models.Account, error) {
	if claims == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return s.find(ctx, claims.AccountID)
}

func (s *Service) Get(ctx context.Context, admin *auth.Claims, id string) (*models.Account, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	return s.find(ctx, identity.Normalize(id))
}

func (s *Service) List(ctx context.Context, admin *auth.Claims, filter ListFilter) ([]models.Account, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListPageSize
	case filter.Limit > maxListPageSize:
		filter.Limit = maxListPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var out []models.Account
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.List(txCtx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfileInput carries the fields to change; nil leaves a field as is.
type UpdateProfileInput struct {
	FirstName  *string
	LastName   *string
	Department *string
	JobTitle   *string
	Phone      *string
	Address    *string
	Salary     *decimal.Decimal
}

// UpdateProfile edits profile fields. Identifier, email and role are not editable.
func (s *Service) UpdateProfile(ctx context.Context, admin *auth.Claims, id string, in UpdateProfileInput) (*models.Account, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	if in.Salary != nil && !validSalary(*in.Salary) {
		return nil, ErrInvalidSalary
	}
	for _, name := range []*string{in.FirstName, in.LastName} {
		if name != nil && strings.TrimSpace(*name) == "" {
			return nil, identity.ErrEmptyName
		}
	}

	var updated *models.Account
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		account, err := s.repo.FindByID(txCtx, identity.Normalize(id))
		if err != nil {
			return err
		}
		p := account.Profile
		if p == nil {
			p = &models.Profile{AccountID: account.ID}
		}
		setTrimmed(&p.FirstName, in.FirstName)
		setTrimmed(&p.LastName, in.LastName)
		setTrimmed(&p.Department, in.Department)
		setTrimmed(&p.JobTitle, in.JobTitle)
		setTrimmed(&p.Phone, in.Phone)
		setTrimmed(&p.Address, in.Address)
		if in.Salary != nil {
			p.Salary = *in.Salary
		}
		if err := checkLengths(p.FirstName, p.LastName, p.Department, p.JobTitle); err != nil {
			return err
		}
		p.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateProfile(txCtx, p); err != nil {
			return err
		}
		account.Profile = p
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkVerified sets the verification flag. Verifying twice is a no-op.
func (s *Service) MarkVerified(ctx context.Context, admin *auth.Claims, id string) (*models.Account, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}

	var account *models.Account
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, identity.Normalize(id))
		if err != nil {
			return err
		}
		if !found.Verified {
			if err := s.repo.SetVerified(txCtx, found.ID); err != nil {
				return err
			}
			found.Verified = true
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SeedAdmin describes the bootstrap administrator.
type SeedAdmin struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// EnsureAdmin creates the bootstrap administrator unless an account with
// that email already exists. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, seed SeedAdmin) (*models.Account, bool, error) {
	email, err := s.normalizeEmail(seed.Email)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	account, err := s.create(ctx, CreateAccountInput{
		Email:     email,
		Password:  seed.Password,
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Role:      models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			existing, ferr := s.repo.FindByEmail(ctx, email)
			return existing, false, ferr
		}
		return nil, false, err
	}
	return account, true, nil
}

func (s *Service) find(ctx context.Context, id string) (*models.Account, error) {
	var account *models.Account
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.repo.FindByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return "", apperr.Wrap(ErrInvalidEmail, err)
	}
	return email, nil
}

func checkLengths(fields ...string) error {
	for _, f := range fields {
		if len(strings.TrimSpace(f)) > maxNameLength {
			return ErrInvalidField
		}
	}
	return nil
}

func validSalary(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxSalary)
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
