package handlers

import (
	"net/http"
	"time"

	"hrms/accounts"
	"hrms/config"
	"hrms/models"
	"hrms/respond"
)

type AuthHandler struct {
	accounts     AccountService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(cfg *config.Config, accounts AccountService) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessionTTL:   cfg.Auth.SessionTTL,
		secureCookie: cfg.Server.CookieSecure,
	}
}

type signUpRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Department string `json:"department" validate:"max=100"`
	JobTitle   string `json:"job_title" validate:"max=100"`
	Phone      string `json:"phone" validate:"max=30"`
	Address    string `json:"address" validate:"max=255"`
	JoinDate   string `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req signUpRequest) input() (accounts.CreateAccountInput, error) {
	in := accounts.CreateAccountInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Phone:      req.Phone,
		Address:    req.Address,
	}
	joined, err := parseDate(req.JoinDate)
	if err != nil {
		return in, err
	}
	if !joined.IsZero() {
		in.JoinDate = &joined
	}
	return in, nil
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		respond.Error(w, err)
		return
	}

	sess, err := h.accounts.SignUp(r.Context(), in)
	if err != nil {
		respond.Error(w, err)
		return
	}

	setSessionCookie(w, sess.Token, h.sessionTTL, h.secureCookie)
	respond.JSON(w, http.StatusCreated, sessionResponse{Account: sess.Account, Token: sess.Token})
}

type signInRequest struct {
	// Login is an email address or an employee identifier.
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	sess, err := h.accounts.SignIn(r.Context(), req.Login, req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	setSessionCookie(w, sess.Token, h.sessionTTL, h.secureCookie)
	respond.JSON(w, http.StatusOK, sessionResponse{Account: sess.Account, Token: sess.Token})
}

// SignOut drops the cookie. Tokens are stateless, so a copied token stays
// valid until it expires.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.secureCookie)
	respond.JSON(w, http.StatusNoContent, nil)
}

type meResponse struct {
	Account  *models.Account `json:"account"`
	ActingAs string          `json:"acting_as,omitempty"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := claimsOf(r)
	account, err := h.accounts.Me(r.Context(), claims)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, meResponse{Account: account, ActingAs: claims.ActingAs})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), claimsOf(r), req.CurrentPassword, req.NewPassword); err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
