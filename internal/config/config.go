package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	JWTSecret           string
	JWTExpiresInSeconds int64

	// AuthVerboseErrors tells callers whether an account exists (login and
	// forgot-password). Keep off outside development.
	AuthVerboseErrors bool
	// AuthReturnResetToken echoes reset tokens in the forgot-password response.
	AuthReturnResetToken bool

	ResetTokenTTL     time.Duration
	ResetEmailTimeout time.Duration
	BcryptCost        int
	FrontendURL       string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	CORSAllowedOrigins []string

	// PhotoBackend is "s3" or "fs".
	PhotoBackend     string
	PhotoDir         string
	DefaultPhotoPath string
}

func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "student_portal")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", getEnv("PSQL_SSLMODE", "disable"))
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
		JWTExpiresInSeconds: int64(getEnvInt("JWT_EXPIRES_IN_SECONDS", 1800)),

		AuthVerboseErrors:    getEnvBool("AUTH_VERBOSE_ERRORS", false),
		AuthReturnResetToken: getEnvBool("AUTH_RETURN_RESET_TOKEN", false),

		ResetTokenTTL:     getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		ResetEmailTimeout: getEnvDuration("RESET_EMAIL_TIMEOUT", 10*time.Second),
		BcryptCost:        getEnvInt("BCRYPT_COST", 12),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@localhost"),
		SMTPUseTLS:   getEnvBool("SMTP_USE_TLS", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		PhotoBackend:     getEnv("PHOTO_BACKEND", "fs"),
		PhotoDir:         getEnv("PHOTO_DIR", "photographs"),
		DefaultPhotoPath: getEnv("DEFAULT_PHOTO_PATH", "default-avatar.jpg"),
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
