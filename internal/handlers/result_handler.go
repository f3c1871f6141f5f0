package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/services"
)

type ResultHandler struct {
	results *services.ResultService
	log     *zap.Logger
}

func NewResultHandler(results *services.ResultService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{results: results, log: logger.Named("results")}
}

// @Tags Results
// @Summary Final exam results of a student
// @Security BearerAuth
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} models.FormattedResult
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/result/{student_id} [get]
func (h *ResultHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "student_id")
	results, err := h.results.StudentResults(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNoResults) {
			writeJSONError(w, http.StatusNotFound, "results_not_found", "No results found for this student")
			return
		}
		h.log.Error("list results failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list_results_failed", "Failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
