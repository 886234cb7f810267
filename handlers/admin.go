package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrms/accounts"
	"hrms/config"
	"hrms/leave"
	"hrms/models"
	"hrms/respond"
)

type AdminHandler struct {
	accounts         AccountService
	attendance       AttendanceService
	leaves           LeaveService
	impersonationTTL time.Duration
	secureCookie     bool
}

func NewAdminHandler(cfg *config.Config, accounts AccountService, attendance AttendanceService, leaves LeaveService) *AdminHandler {
	return &AdminHandler{
		accounts:         accounts,
		attendance:       attendance,
		leaves:           leaves,
		impersonationTTL: cfg.Auth.ImpersonationTTL,
		secureCookie:     cfg.Server.CookieSecure,
	}
}

type createAccountRequest struct {
	signUpRequest
	Role   string `json:"role" validate:"omitempty,max=20"`
	Salary string `json:"salary" validate:"omitempty,numeric"`
}

func (req createAccountRequest) input() (accounts.CreateAccountInput, error) {
	in, err := req.signUpRequest.input()
	if err != nil {
		return in, err
	}
	if req.Role != "" {
		role, ok := models.ParseRole(req.Role)
		if !ok {
			return in, accounts.ErrInvalidRole
		}
		in.Role = role
	}
	if req.Salary != "" {
		salary, err := decimal.NewFromString(req.Salary)
		if err != nil {
			return in, accounts.ErrInvalidSalary
		}
		in.Salary = salary
	}
	return in, nil
}

func (h *AdminHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		respond.Error(w, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), claimsOf(r), in)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, account)
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := accounts.ListFilter{Department: strings.TrimSpace(q.Get("department"))}

	if raw := q.Get("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			respond.Error(w, accounts.ErrInvalidRole)
			return
		}
		filter.Role = &role
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		respond.Error(w, err)
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		respond.Error(w, err)
		return
	}

	list, err := h.accounts.List(r.Context(), claimsOf(r), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *AdminHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), claimsOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

type updateProfileRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name" validate:"omitempty,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	JobTitle   *string `json:"job_title" validate:"omitempty,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Address    *string `json:"address" validate:"omitempty,max=255"`
	Salary     *string `json:"salary" validate:"omitempty,numeric"`
}

func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	in := accounts.UpdateProfileInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Phone:      req.Phone,
		Address:    req.Address,
	}
	if req.Salary != nil {
		salary, err := decimal.NewFromString(*req.Salary)
		if err != nil {
			respond.Error(w, accounts.ErrInvalidSalary)
			return
		}
		in.Salary = &salary
	}

	account, err := h.accounts.UpdateProfile(r.Context(), claimsOf(r), chi.URLParam(r, "id"), in)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.MarkVerified(r.Context(), claimsOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

// Impersonate replaces the caller's session cookie with a view-as session
// for the target account.
func (h *AdminHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	sess, err := h.accounts.Impersonate(r.Context(), claimsOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	setSessionCookie(w, sess.Token, h.impersonationTTL, h.secureCookie)
	respond.JSON(w, http.StatusOK, sessionResponse{Account: sess.Account, Token: sess.Token})
}

func (h *AdminHandler) AttendanceByDate(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	records, err := h.attendance.ListByDate(r.Context(), claimsOf(r), day)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, records)
}

func (h *AdminHandler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.LeaveFilter{
		AccountID: strings.ToUpper(strings.TrimSpace(q.Get("account_id"))),
		Status:    parseLeaveStatus(q.Get("status")),
	}
	list, err := h.leaves.List(r.Context(), claimsOf(r), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Remarks  string `json:"remarks" validate:"max=2000"`
}

func (h *AdminHandler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req decisionRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	decision, err := leave.ParseDecision(req.Decision)
	if err != nil {
		respond.Error(w, err)
		return
	}

	decided, err := h.leaves.Adjudicate(r.Context(), claimsOf(r), id, leave.AdjudicateInput{Decision: decision, Remarks: req.Remarks})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, decided)
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidPage
	}
	return n, nil
}
