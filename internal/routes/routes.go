package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"portal/internal/config"
	"portal/internal/interfaces"
	"portal/internal/middleware"
	"portal/internal/repository"
	"portal/internal/services"
)

// Dependencies are the outbound adapters the API needs besides the database.
type Dependencies struct {
	Mailer services.EmailSender
	Photos interfaces.PhotoStore
	Logger *zap.Logger
	// Pending tracks reset emails still being delivered. Optional.
	Pending *sync.WaitGroup
}

func SetupRoutes(db *sql.DB, cfg *config.Config, deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = &services.LogSender{Logger: logger}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Student Portal API",
			"docs":    "/swagger/index.html",
			"health":  "/health",
		})
	})
	r.Get("/health", healthHandler(db))

	users := repository.NewUserRepository(db)
	resetTokens := repository.NewPasswordResetRepository(db)
	resets := services.NewPasswordResetService(users, resetTokens, mailer, services.ResetConfig{
		TTL:                  cfg.ResetTokenTTL,
		FrontendURL:          cfg.FrontendURL,
		EmailTimeout:         cfg.ResetEmailTimeout,
		BcryptCost:           cfg.BcryptCost,
		RevealUnknownAccount: cfg.AuthVerboseErrors,
		ReturnToken:          cfg.AuthReturnResetToken,
	}, logger)
	resets.SetPending(deps.Pending)

	RegisterFrontendRoutes(r, resets, logger)
	RegisterSwaggerRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		RegisterAuthRoutes(r, users, resets, cfg, logger)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			accounts := services.NewAccountService(users, resetTokens, resets.Updater(), logger)
			RegisterUserRoutes(r, users, accounts, resets.Updater(), logger)
			RegisterStudentRoutes(r, db, deps.Photos, logger)
			RegisterCourseRoutes(r, db, logger)
			RegisterResultRoutes(r, db, logger)
			RegisterOptionRoutes(r, db, logger)
		})
	})

	return r
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := map[string]any{"status": "ok"}
		status, code := "ok", http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			dbStatus = map[string]any{"status": "down", "error": err.Error()}
			status, code = "degraded", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{"status": status, "db": dbStatus})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
