package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"portal/internal/config"
)

func TestResetPasswordPage(t *testing.T) {
	auth, mock, _, _ := newAuthFixture(t, &config.Config{JWTSecret: "dev"})
	h := NewFrontendHandler(auth.resets, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(selectResetToken)).
		WillReturnRows(tokenRow("good", "student@uni.edu", time.Now().UTC().Add(time.Hour), false))

	w := httptest.NewRecorder()
	h.ResetPasswordPage(w, httptest.NewRequest(http.MethodGet, "/reset-password?token=good", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `name="new_password"`) || !strings.Contains(body, "student@uni.edu") {
		t.Fatalf("expected reset form, got %s", body)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("reset page must not be cached")
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectResetToken)).WillReturnError(sql.ErrNoRows)
	w = httptest.NewRecorder()
	h.ResetPasswordPage(w, httptest.NewRequest(http.MethodGet, "/reset-password?token=bad", nil))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Invalid or expired link") {
		t.Fatalf("expected invalid page, got %d", w.Code)
	}
}

func TestResetPasswordPageEscapesToken(t *testing.T) {
	auth, mock, _, _ := newAuthFixture(t, &config.Config{JWTSecret: "dev"})
	h := NewFrontendHandler(auth.resets, zap.NewNop())

	raw := `"><script>alert(1)</script>`
	mock.ExpectQuery(regexp.QuoteMeta(selectResetToken)).
		WillReturnRows(tokenRow(raw, "a@b.com", time.Now().UTC().Add(time.Hour), false))

	w := httptest.NewRecorder()
	h.ResetPasswordPage(w, httptest.NewRequest(http.MethodGet, "/reset-password?token="+url.QueryEscape(raw), nil))
	if strings.Contains(w.Body.String(), "<script>alert(1)</script>") {
		t.Fatalf("token was rendered unescaped")
	}
}
