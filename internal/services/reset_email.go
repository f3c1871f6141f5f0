package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

const resetEmailSubject = "Password Reset Request"

var resetEmailTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="background-color: #4CAF50; color: white; padding: 20px; text-align: center;">Password Reset Request</h1>
  <p>Hello {{.Name}},</p>
  <p>We received a request to reset your password. Click the button below:</p>
  <p style="text-align: center;"><a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background-color: #4CAF50; color: white; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
  <p>Or copy this link:<br><code style="word-break: break-all;">{{.Link}}</code></p>
  <ul>
    <li>This link expires in {{.ExpiresIn}}</li>
    <li>If you didn't request this, ignore this email</li>
    <li>Never share this link with anyone</li>
  </ul>
  <p style="margin-top: 30px; color: #777; font-size: 12px;">This is an automated message, please do not reply.</p>
</body>
</html>
`))

type resetEmailData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// buildResetLink returns <frontendURL>/reset-password?token=<token>.
func buildResetLink(frontendURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(frontendURL, "/"))
	if err != nil {
		return "", err
	}
	u.Path += "/reset-password"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func renderResetEmail(name, link string, ttl time.Duration) (string, error) {
	if name == "" {
		name = "User"
	}
	var buf bytes.Buffer
	err := resetEmailTemplate.Execute(&buf, resetEmailData{Name: name, Link: link, ExpiresIn: humanizeTTL(ttl)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d > 0 && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
