package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/repository"
)

type OptionHandler struct {
	options repository.OptionRepository
	log     *zap.Logger
}

func NewOptionHandler(options repository.OptionRepository, logger *zap.Logger) *OptionHandler {
	return &OptionHandler{options: options, log: logger.Named("options")}
}

// @Tags Options
// @Summary List options
// @Security BearerAuth
// @Produce json
// @Param auto_load query bool false "Only auto-loaded options"
// @Success 200 {array} models.Option
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/options [get]
func (h *OptionHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	autoLoad := false
	if raw := r.URL.Query().Get("auto_load"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "auto_load must be a boolean")
			return
		}
		autoLoad = v
	}

	opts, err := h.options.List(r.Context(), autoLoad)
	if err != nil {
		h.log.Error("list options failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list_options_failed", "Failed to list options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// @Tags Options
// @Summary Get option by name
// @Security BearerAuth
// @Produce json
// @Param name path string true "Option name"
// @Success 200 {object} models.Option
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/options/{name} [get]
func (h *OptionHandler) GetOption(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	o, err := h.options.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrOptionNotFound) {
			writeJSONError(w, http.StatusNotFound, "option_not_found", "Option not found")
			return
		}
		h.log.Error("get option failed", zap.String("name", name), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "get_option_failed", "Failed to get option")
		return
	}
	writeJSON(w, http.StatusOK, o)
}
