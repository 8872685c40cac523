package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"gelift/internal/config"
	"gelift/internal/controllers"
	"gelift/internal/logger"
	"gelift/internal/metrics"
	"gelift/internal/middleware"
	"gelift/internal/notify"
	"gelift/internal/routes"
	"gelift/internal/services"
	"gelift/internal/storage"
)

func newStore(s config.Settings) (storage.Store, error) {
	if s.StorageBackend == "s3" {
		return storage.NewS3Store(storage.S3Config{
			Bucket:          s.S3Bucket,
			Endpoint:        s.S3Endpoint,
			Region:          s.S3Region,
			AccessKeyID:     s.S3AccessKey,
			SecretAccessKey: s.S3SecretKey,
			PublicURL:       s.S3PublicURL,
		})
	}
	return storage.NewLocalStore(s.MediaRoot, s.MediaURL)
}

func main() {
	settings := config.Load()

	// Initialize structured logging to file
	accessLog := logger.Setup(logger.Options{
		File:   settings.LogFile,
		Level:  settings.LogLevel,
		Stdout: settings.LogStdout,
	})

	// Connect to the database
	db, err := config.InitDB(settings)
	if err != nil {
		logrus.WithError(err).Fatal("database setup failed")
	}

	store, err := newStore(settings)
	if err != nil {
		logrus.WithError(err).Fatal("picture storage setup failed")
	}
	mailer, err := notify.NewMailer(settings.MailURL, settings.MailFrom)
	if err != nil {
		logrus.WithError(err).Fatal("mailer setup failed")
	}

	m := metrics.New()
	hub := notify.NewHub()
	defer hub.Close()
	auth := middleware.NewAuth(settings.JWTSecret, settings.JWTTTL)

	ctl := &controllers.Controller{
		Users:      services.NewUserService(db, mailer, auth, settings.PublicURL),
		Events:     services.NewEventService(db, store),
		Teams:      services.NewTeamService(db, store),
		Timer:      services.NewTimerService(db, hub, m),
		Scoreboard: services.NewScoreboardService(db),
		Challenges: services.NewChallengeService(db, store, m, settings.MaxUploadBytes),
		Maps:       services.NewMapService(db),
		Auth:       auth,
		Hub:        hub,
		Store:      store,
		MaxUpload:  settings.MaxUploadBytes,
	}

	opts := routes.Options{AccessLog: accessLog, Metrics: m}
	if settings.StorageBackend != "s3" {
		opts.MediaRoot, opts.MediaURL = settings.MediaRoot, settings.MediaURL
	}
	r := routes.SetupRouter(ctl, opts)

	// Wrap with CORS
	srv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           middleware.EnableCORS(r, settings.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("addr", settings.HTTPAddr).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
