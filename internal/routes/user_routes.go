package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/handlers"
	"portal/internal/repository"
	"portal/internal/services"
)

func RegisterUserRoutes(router chi.Router, users repository.UserRepository, accounts *services.AccountService, updater *services.PasswordUpdater, logger *zap.Logger) {
	userHandler := handlers.NewUserHandler(users, accounts, updater, logger)

	router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.ListUsers)
		r.Get("/me", userHandler.Me)
		r.Put("/me/password", userHandler.ChangePassword)
		r.Put("/{studentID}", userHandler.UpdateUser)
		r.Post("/{studentID}/change-email", userHandler.ChangeLoginID)
	})
}
