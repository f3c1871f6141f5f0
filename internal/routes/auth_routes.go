package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/config"
	"portal/internal/handlers"
	"portal/internal/repository"
	"portal/internal/services"
)

func RegisterAuthRoutes(router chi.Router, users repository.UserRepository, resets *services.PasswordResetService, cfg *config.Config, logger *zap.Logger) {
	authHandler := handlers.NewAuthHandler(users, resets, cfg, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Get("/verify-token", authHandler.VerifyToken)
		r.Post("/reset-password", authHandler.ResetPassword)
	})
}

func RegisterFrontendRoutes(router chi.Router, resets *services.PasswordResetService, logger *zap.Logger) {
	frontendHandler := handlers.NewFrontendHandler(resets, logger)
	router.Get("/reset-password", frontendHandler.ResetPasswordPage)
}
