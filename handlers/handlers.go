// Package handlers exposes the account, attendance and leave services over
// JSON. Handlers decode and validate requests; every rule lives in the
// services they call.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hrms/accounts"
	"hrms/apperr"
	"hrms/auth"
	"hrms/middleware"
	"hrms/models"
)

type AccountService interface {
	SignUp(ctx context.Context, in accounts.CreateAccountInput) (*accounts.Session, error)
	SignIn(ctx context.Context, login, password string) (*accounts.Session, error)
	Me(ctx context.Context, claims *auth.Claims) (*models.Account, error)
	ChangePassword(ctx context.Context, claims *auth.Claims, current, next string) error
	CreateAccount(ctx context.Context, admin *auth.Claims, in accounts.CreateAccountInput) (*models.Account, error)
	Get(ctx context.Context, admin *auth.Claims, id string) (*models.Account, error)
	List(ctx context.Context, admin *auth.Claims, filter accounts.ListFilter) ([]models.Account, error)
	UpdateProfile(ctx context.Context, admin *auth.Claims, id string, in accounts.UpdateProfileInput) (*models.Account, error)
	MarkVerified(ctx context.Context, admin *auth.Claims, id string) (*models.Account, error)
	Impersonate(ctx context.Context, admin *auth.Claims, targetID string) (*accounts.Session, error)
}

type AttendanceService interface {
	CheckIn(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error)
	CheckOut(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error)
	Today(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error)
	History(ctx context.Context, claims *auth.Claims, from, to time.Time) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, admin *auth.Claims, day time.Time) ([]models.AttendanceRecord, error)
}

const maxBodyBytes = 1 << 20

var (
	errInvalidBody = apperr.New(apperr.KindValidation, "invalid_request", "request body is invalid")
	errInvalidDate = apperr.New(apperr.KindValidation, "invalid_date", "dates must use YYYY-MM-DD")
	errInvalidID   = apperr.New(apperr.KindValidation, "invalid_id", "id is malformed")
	errInvalidPage = apperr.New(apperr.KindValidation, "invalid_page", "limit and offset must be integers")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(errInvalidBody, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Validation("invalid_request", fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
		}
		return apperr.Wrap(errInvalidBody, err)
	}
	return nil
}

// parseDate parses YYYY-MM-DD. The empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Wrap(errInvalidDate, err)
	}
	return t, nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Wrap(errInvalidID, err)
	}
	return id, nil
}

func parseLeaveStatus(s string) *models.LeaveStatus {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	status := models.LeaveStatus(strings.ToUpper(s))
	return &status
}

func claimsOf(r *http.Request) *auth.Claims {
	return middleware.ClaimsFromContext(r.Context())
}

type sessionResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
