package handlers

import (
	"net/http"

	"hrms/respond"
)

type AttendanceHandler struct {
	attendance AttendanceService
}

func NewAttendanceHandler(attendance AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	record, err := h.attendance.CheckIn(r.Context(), claimsOf(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, record)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	record, err := h.attendance.CheckOut(r.Context(), claimsOf(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, record)
}

func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	record, err := h.attendance.Today(r.Context(), claimsOf(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, record)
}

func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	records, err := h.attendance.History(r.Context(), claimsOf(r), from, to)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, records)
}
