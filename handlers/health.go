package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"hrms/respond"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler reports unavailable while ping fails. ping may be nil.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.Printf("[http] health check: %v", err)
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
