package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	CtxStudentID ctxKey = "student_id"
	CtxEmail     ctxKey = "email"
)

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="student-portal"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "message": message})
}

// JWTAuth accepts HS256 bearer tokens signed with secret and puts the
// subject (student id) and email claims on the request context.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "Invalid Authorization header")
				return
			}

			token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
			if err != nil || token == nil || !token.Valid {
				unauthorized(w, "Could not validate credentials")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "Invalid token claims")
				return
			}

			sub, _ := claims.GetSubject()
			email, _ := claims["email"].(string)
			if sub == "" {
				unauthorized(w, "Invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), CtxStudentID, sub)
			ctx = context.WithValue(ctx, CtxEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func StudentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxStudentID).(string)
	return id, ok && id != ""
}
