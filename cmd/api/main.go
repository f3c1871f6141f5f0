package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"portal/internal/config"
	"portal/internal/db"
	"portal/internal/db/migrations"
	"portal/internal/interfaces"
	"portal/internal/routes"
	"portal/internal/services"
)

// @title Student Portal API
// @version 1.0
// @description Student records, results and account recovery for the student portal.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("Failed to ensure database exists", zap.Error(err))
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.RunMigrations(ctx, database.DB, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to init photo store", zap.Error(err))
	}

	var pendingMail sync.WaitGroup
	router := routes.SetupRoutes(database.DB, cfg, routes.Dependencies{
		Mailer:  newMailer(cfg, logger),
		Photos:  photos,
		Logger:  logger,
		Pending: &pendingMail,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	drained := make(chan struct{})
	go func() {
		pendingMail.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.ResetEmailTimeout):
		logger.Warn("Reset emails still in flight at exit")
	}

	logger.Info("Server exiting")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	if cfg.LogFormat == "json" || cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level
	zapConfig.InitialFields = map[string]interface{}{
		"service":     "student-portal-api",
		"environment": cfg.Environment,
	}

	return zapConfig.Build()
}

func newMailer(cfg *config.Config, logger *zap.Logger) services.EmailSender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, reset emails will only be logged")
		return &services.LogSender{Logger: logger}
	}
	return &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config) (interfaces.PhotoStore, error) {
	if cfg.PhotoBackend == "s3" {
		s3cfg, err := config.NewS3Config(ctx)
		if err != nil {
			return nil, err
		}
		return services.NewS3PhotoStore(s3cfg), nil
	}
	return &services.FilePhotoStore{Dir: cfg.PhotoDir, DefaultPhoto: cfg.DefaultPhotoPath}, nil
}
