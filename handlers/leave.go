package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hrms/auth"
	"hrms/leave"
	"hrms/models"
	"hrms/respond"
)

type LeaveService interface {
	Apply(ctx context.Context, claims *auth.Claims, in leave.ApplyInput) (*models.LeaveRequest, error)
	Adjudicate(ctx context.Context, admin *auth.Claims, id uuid.UUID, in leave.AdjudicateInput) (*models.LeaveRequest, error)
	Get(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*models.LeaveRequest, error)
	ListMine(ctx context.Context, claims *auth.Claims, status *models.LeaveStatus) ([]models.LeaveRequest, error)
	List(ctx context.Context, admin *auth.Claims, filter models.LeaveFilter) ([]models.LeaveRequest, error)
}

type LeaveHandler struct {
	leaves LeaveService
}

func NewLeaveHandler(leaves LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

type applyLeaveRequest struct {
	Type      string `json:"type" validate:"required,max=20"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"max=2000"`
}

func (h *LeaveHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyLeaveRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respond.Error(w, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		respond.Error(w, err)
		return
	}

	created, err := h.leaves.Apply(r.Context(), claimsOf(r), leave.ApplyInput{
		Type:      models.LeaveType(strings.ToUpper(strings.TrimSpace(req.Type))),
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *LeaveHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.leaves.ListMine(r.Context(), claimsOf(r), parseLeaveStatus(r.URL.Query().Get("status")))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *LeaveHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	req, err := h.leaves.Get(r.Context(), claimsOf(r), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, req)
}
