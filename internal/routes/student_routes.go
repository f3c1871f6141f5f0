package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/handlers"
	"portal/internal/interfaces"
	"portal/internal/repository"
	"portal/internal/services"
)

func RegisterStudentRoutes(router chi.Router, db *sql.DB, photos interfaces.PhotoStore, logger *zap.Logger) {
	if photos == nil {
		photos = &services.FilePhotoStore{Dir: "photographs"}
	}
	studentHandler := handlers.NewStudentHandler(repository.NewStudentRepository(db), photos, logger)

	router.Route("/student-record", func(r chi.Router) {
		r.Get("/", studentHandler.ListStudents)
		r.Get("/student-photo/{id}", studentHandler.GetPhoto)
		r.Put("/student-photo/{id}", studentHandler.PutPhoto)
		r.Get("/{id}", studentHandler.GetStudent)
	})
}

func RegisterCourseRoutes(router chi.Router, db *sql.DB, logger *zap.Logger) {
	courseHandler := handlers.NewCourseHandler(repository.NewCourseEnrollmentRepository(db), logger)
	router.Get("/course/{student_id}", courseHandler.ListByStudent)
}

func RegisterResultRoutes(router chi.Router, db *sql.DB, logger *zap.Logger) {
	resultHandler := handlers.NewResultHandler(services.NewResultService(repository.NewResultRepository(db)), logger)
	router.Get("/result/{student_id}", resultHandler.ListByStudent)
}

func RegisterOptionRoutes(router chi.Router, db *sql.DB, logger *zap.Logger) {
	optionHandler := handlers.NewOptionHandler(repository.NewOptionRepository(db), logger)

	router.Route("/options", func(r chi.Router) {
		r.Get("/", optionHandler.ListOptions)
		r.Get("/{name}", optionHandler.GetOption)
	})
}
