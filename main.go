package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrms/accounts"
	"hrms/attendance"
	"hrms/auth"
	"hrms/config"
	"hrms/database"
	"hrms/handlers"
	"hrms/identity"
	"hrms/leave"
	"hrms/middleware"
	"hrms/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	sessions, err := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL,
		auth.WithImpersonationTTL(cfg.Auth.ImpersonationTTL))
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}

	// Initialize services
	tx := database.NewTransactionManager(db)
	issuer := identity.NewIssuer(repository.NewCounters(db))
	accountSvc := accounts.NewService(repository.NewAccounts(db), issuer, auth.NewCredentialStore(cfg.Auth.BcryptCost), sessions, nil, tx)
	attendanceSvc := attendance.NewService(repository.NewAttendance(db), nil, tx, attendance.Options{
		Location:     cfg.Attendance.Location,
		HalfDayAfter: cfg.Attendance.HalfDayAfter,
	})
	leaveSvc := leave.NewService(repository.NewLeaves(db), nil, tx)

	if cfg.Seed.Email != "" {
		admin, created, err := accountSvc.EnsureAdmin(ctx, accounts.SeedAdmin{
			FirstName: cfg.Seed.FirstName,
			LastName:  cfg.Seed.LastName,
			Email:     cfg.Seed.Email,
			Password:  cfg.Seed.Password,
		})
		if err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			log.Printf("Seeded admin account %s (%s)", admin.ID, admin.Email)
		}
	}

	// Setup router
	router := handlers.Router{
		Authenticator: middleware.NewAuthenticator(sessions),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		Auth:       handlers.NewAuthHandler(cfg, accountSvc),
		Admin:      handlers.NewAdminHandler(cfg, accountSvc, attendanceSvc, leaveSvc),
		Attendance: handlers.NewAttendanceHandler(attendanceSvc),
		Leave:      handlers.NewLeaveHandler(leaveSvc),
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server stopped with error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
