package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"
	"portal/internal/services"
)

var resetPageTemplate = template.Must(template.New("reset-page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{if .Valid}}Reset Password{{else}}Invalid Token{{end}}</title>
</head>
<body>
{{if .Valid}}
<h2>Reset your password</h2>
<p>Account: {{.Email}}</p>
<form id="reset-form">
  <input type="hidden" name="token" value="{{.Token}}">
  <label>New password <input type="password" name="new_password" minlength="8" maxlength="72" required></label>
  <label>Confirm password <input type="password" name="confirm_password" minlength="8" maxlength="72" required></label>
  <button type="submit">Reset password</button>
</form>
<p id="status" role="status"></p>
<script>
document.getElementById("reset-form").addEventListener("submit", async function (e) {
  e.preventDefault();
  const f = e.target;
  const status = document.getElementById("status");
  if (f.new_password.value !== f.confirm_password.value) {
    status.textContent = "Passwords do not match";
    return;
  }
  const res = await fetch({{.Action}}, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({token: f.token.value, new_password: f.new_password.value})
  });
  const body = await res.json();
  status.textContent = body.message || (res.ok ? "Password reset successful" : "Password reset failed");
  if (res.ok) { f.remove(); }
});
</script>
{{else}}
<h2>Invalid or expired link</h2>
<p>This password reset link is invalid or has expired. Request a new one from the login page.</p>
{{end}}
</body>
</html>
`))

type resetPageData struct {
	Valid  bool
	Email  string
	Token  string
	Action string
}

// FrontendHandler serves the page the reset link in the email points at
// when no separate frontend is deployed.
type FrontendHandler struct {
	resets *services.PasswordResetService
	log    *zap.Logger
}

func NewFrontendHandler(resets *services.PasswordResetService, logger *zap.Logger) *FrontendHandler {
	return &FrontendHandler{resets: resets, log: logger.Named("frontend")}
}

// @Tags Frontend
// @Summary Password reset page
// @Produce html
// @Param token query string true "Reset token"
// @Success 200 {string} string "HTML form"
// @Failure 400 {string} string "HTML error page"
// @Router /reset-password [get]
func (h *FrontendHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := resetPageData{Token: token, Action: "/api/v1/auth/reset-password"}
	status := http.StatusBadRequest

	if token != "" {
		email, err := h.resets.VerifyToken(r.Context(), token)
		switch {
		case err == nil:
			data.Valid, data.Email = true, email
			status = http.StatusOK
		case !errors.Is(err, services.ErrInvalidOrExpiredToken):
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(status)
	if err := resetPageTemplate.Execute(w, data); err != nil {
		h.log.Warn("render reset page failed", zap.Error(err))
	}
}
