package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/repository"
)

type CourseHandler struct {
	courses repository.CourseEnrollmentRepository
	log     *zap.Logger
}

func NewCourseHandler(courses repository.CourseEnrollmentRepository, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, log: logger.Named("courses")}
}

// @Tags Courses
// @Summary Course enrollments of a student
// @Security BearerAuth
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} models.CourseEnrollment
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/course/{student_id} [get]
func (h *CourseHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "student_id")
	courses, err := h.courses.ListByStudent(r.Context(), id)
	if err != nil {
		h.log.Error("list course enrollments failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list_courses_failed", "Failed to list course enrollments")
		return
	}
	if len(courses) == 0 {
		writeJSONError(w, http.StatusNotFound, "courses_not_found", "No course enrollments found")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}
