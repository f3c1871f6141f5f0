package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"portal/internal/repository"
)

type memPhotoStore struct {
	photos map[string][]byte
}

func (m *memPhotoStore) Open(ctx context.Context, studentID string) (io.ReadCloser, error) {
	b, ok := m.photos[studentID]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memPhotoStore) Save(ctx context.Context, studentID string, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.photos[studentID] = b
	return nil
}

var studentColumns = []string{
	"student_id", "person_id", "per_name", "per_gender", "per_date_of_birth", "per_blood_group",
	"per_fathers_name", "per_mothers_name", "per_present_address", "per_permanent_address",
	"per_mobile", "stu_guardians_mobile", "per_nationality", "per_title",
	"stu_academic_term", "stu_academic_year", "pro_name", "pro_short_name", "programme_code",
	"batch_name", "section_name", "adm_date",
}

func studentRow(id, name string) []driver.Value {
	return []driver.Value{id, int64(7), name, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, int64(1), int64(2021), "CSE", nil, nil, int64(53), "A", nil}
}

func routed(method, pattern, target string, body io.Reader, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newStudentFixture(t *testing.T) (*StudentHandler, sqlmock.Sqlmock, *memPhotoStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	photos := &memPhotoStore{photos: map[string][]byte{}}
	return NewStudentHandler(repository.NewStudentRepository(db), photos, zap.NewNop()), mock, photos
}

func TestListStudentsPaging(t *testing.T) {
	h, mock, _ := newStudentFixture(t)

	mock.ExpectQuery(`FROM student_records\s+ORDER BY student_id LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 4).
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(studentRow("s1", "Rahim")...).AddRow(studentRow("s2", "Karim")...))

	w := routed(http.MethodGet, "/student-record", "/student-record?skip=4&limit=2", nil, h.ListStudents)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(out) != 2 || out[1]["per_name"] != "Karim" {
		t.Fatalf("unexpected students %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListStudentsRejectsBadPaging(t *testing.T) {
	h, _, _ := newStudentFixture(t)
	w := routed(http.MethodGet, "/student-record", "/student-record?limit=-1", nil, h.ListStudents)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestGetStudentNotFound(t *testing.T) {
	h, mock, _ := newStudentFixture(t)
	mock.ExpectQuery("FROM student_records").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	w := routed(http.MethodGet, "/student-record/{id}", "/student-record/missing", nil, h.GetStudent)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestGetPhoto(t *testing.T) {
	h, _, photos := newStudentFixture(t)
	photos.photos["s1"] = []byte("\xff\xd8\xffjpeg")

	w := routed(http.MethodGet, "/student-photo/{id}", "/student-photo/s1", nil, h.GetPhoto)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("expected jpeg, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w.Body.String() != "\xff\xd8\xffjpeg" {
		t.Fatalf("unexpected body")
	}

	w = routed(http.MethodGet, "/student-photo/{id}", "/student-photo/s2", nil, h.GetPhoto)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func multipartPhoto(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestPutPhoto(t *testing.T) {
	h, mock, photos := newStudentFixture(t)
	mock.ExpectQuery("FROM student_records").WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(studentRow("s1", "Rahim")...))

	jpeg := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x01}, 600)...)
	body, ct := multipartPhoto(t, jpeg)

	r := chi.NewRouter()
	r.Put("/student-photo/{id}", h.PutPhoto)
	req := httptest.NewRequest(http.MethodPut, "/student-photo/s1", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	if !bytes.Equal(photos.photos["s1"], jpeg) {
		t.Fatalf("stored photo differs from upload (%d bytes)", len(photos.photos["s1"]))
	}
}

func TestPutPhotoRejectsNonJPEG(t *testing.T) {
	h, _, photos := newStudentFixture(t)
	body, ct := multipartPhoto(t, []byte("GIF89a not a jpeg"))

	r := chi.NewRouter()
	r.Put("/student-photo/{id}", h.PutPhoto)
	req := httptest.NewRequest(http.MethodPut, "/student-photo/s1", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if len(photos.photos) != 0 {
		t.Fatalf("nothing may be stored")
	}
}
