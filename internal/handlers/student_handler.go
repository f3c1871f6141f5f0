package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/interfaces"
	"portal/internal/models"
	"portal/internal/repository"
	"portal/internal/services"
)

const (
	defaultStudentPageSize = 10
	maxStudentPageSize     = 100
	maxPhotoSize           = 5 << 20
)

type StudentHandler struct {
	students repository.StudentRepository
	photos   interfaces.PhotoStore
	log      *zap.Logger
}

func NewStudentHandler(students repository.StudentRepository, photos interfaces.PhotoStore, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{students: students, photos: photos, log: logger.Named("students")}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

// @Tags Students
// @Summary List student records
// @Security BearerAuth
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.StudentRecord
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/student-record [get]
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultStudentPageSize)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if limit == 0 || limit > maxStudentPageSize {
		limit = maxStudentPageSize
	}

	students, err := h.students.List(r.Context(), limit, skip)
	if err != nil {
		h.log.Error("list students failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list_students_failed", "Failed to list students")
		return
	}
	if students == nil {
		students = []models.StudentRecord{}
	}
	writeJSON(w, http.StatusOK, students)
}

// @Tags Students
// @Summary Get student record
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.StudentRecord
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/student-record/{id} [get]
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.students.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			writeJSONError(w, http.StatusNotFound, "student_not_found", "Student not found")
			return
		}
		h.log.Error("get student failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "get_student_failed", "Failed to get student")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// @Tags Students
// @Summary Student photograph
// @Description Falls back to the default avatar when the student has no photograph.
// @Security BearerAuth
// @Produce jpeg
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/student-record/student-photo/{id} [get]
func (h *StudentHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rc, err := h.photos.Open(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStudentID):
			writeJSONError(w, http.StatusBadRequest, "invalid_student_id", "Invalid student ID")
		case errors.Is(err, os.ErrNotExist), errors.Is(err, services.ErrPhotoNotFound):
			writeJSONError(w, http.StatusNotFound, "photo_not_found", "Image not found")
		default:
			h.log.Error("open photo failed", zap.String("student_id", id), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "photo_failed", "Failed to load image")
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("stream photo interrupted", zap.String("student_id", id), zap.Error(err))
	}
}

// @Tags Students
// @Summary Upload student photograph
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Student ID"
// @Param file formData file true "JPEG image, up to 5MB"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/student-record/student-photo/{id} [put]
func (h *StudentHandler) PutPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()
	if header.Size > maxPhotoSize {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "file must be at most 5MB")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "file is empty")
		return
	}
	head = head[:n]
	if http.DetectContentType(head) != "image/jpeg" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "file must be a JPEG image")
		return
	}

	if _, err := h.students.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			writeJSONError(w, http.StatusNotFound, "student_not_found", "Student not found")
			return
		}
		h.log.Error("get student failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "get_student_failed", "Failed to get student")
		return
	}

	if err := h.photos.Save(r.Context(), id, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		if errors.Is(err, services.ErrInvalidStudentID) {
			writeJSONError(w, http.StatusBadRequest, "invalid_student_id", "Invalid student ID")
			return
		}
		h.log.Error("save photo failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "photo_failed", "Failed to store image")
		return
	}

	writeJSONMessage(w, http.StatusOK, "photo updated")
}
