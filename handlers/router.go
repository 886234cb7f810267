package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hrms/middleware"
	"hrms/models"
)

type Router struct {
	Authenticator *middleware.Authenticator
	Health        *HealthHandler
	Auth          *AuthHandler
	Admin         *AdminHandler
	Attendance    *AttendanceHandler
	Leave         *LeaveHandler
}

func (rt Router) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Get("/health", rt.Health.Health)
	router.Post("/api/auth/signup", rt.Auth.SignUp)
	router.Post("/api/auth/signin", rt.Auth.SignIn)
	router.Post("/api/auth/signout", rt.Auth.SignOut)

	// Protected routes
	router.Route("/api", func(r chi.Router) {
		r.Use(rt.Authenticator.Required)

		r.Get("/me", rt.Auth.Me)
		r.Post("/me/password", rt.Auth.ChangePassword)

		r.Post("/attendance/check-in", rt.Attendance.CheckIn)
		r.Post("/attendance/check-out", rt.Attendance.CheckOut)
		r.Get("/attendance/today", rt.Attendance.Today)
		r.Get("/attendance", rt.Attendance.History)

		r.Post("/leaves", rt.Leave.Apply)
		r.Get("/leaves", rt.Leave.ListMine)
		r.Get("/leaves/{id}", rt.Leave.Get)

		// Admin only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/accounts", rt.Admin.CreateAccount)
			r.Get("/accounts", rt.Admin.ListAccounts)
			r.Get("/accounts/{id}", rt.Admin.GetAccount)
			r.Patch("/accounts/{id}/profile", rt.Admin.UpdateProfile)
			r.Post("/accounts/{id}/verify", rt.Admin.Verify)
			r.Post("/accounts/{id}/impersonate", rt.Admin.Impersonate)

			r.Get("/attendance", rt.Admin.AttendanceByDate)

			r.Get("/leaves", rt.Admin.ListLeaves)
			r.Post("/leaves/{id}/decision", rt.Admin.DecideLeave)
		})
	})

	return router
}
