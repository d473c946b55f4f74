package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/suraksha/alertwatch/internal/api"
	"github.com/suraksha/alertwatch/internal/config"
	"github.com/suraksha/alertwatch/internal/feed"
	"github.com/suraksha/alertwatch/internal/location"
	"github.com/suraksha/alertwatch/internal/logging"
	"github.com/suraksha/alertwatch/internal/mailer"
	"github.com/suraksha/alertwatch/internal/models"
	"github.com/suraksha/alertwatch/internal/otp"
	"github.com/suraksha/alertwatch/internal/pipeline"
	"github.com/suraksha/alertwatch/internal/repository"
	"github.com/suraksha/alertwatch/internal/scheduler"
	"github.com/suraksha/alertwatch/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Location provider; IP geolocation is optional and the dashboard
	// degrades to recency sorting without it.
	var source location.Source
	if cfg.Geo.DBPath != "" {
		geoSource, err := location.NewGeoIPSource(cfg.Geo.DBPath)
		if err != nil {
			logging.Fatalf("Failed to open geoip database: %v", err)
		}
		defer geoSource.Close()
		source = geoSource
	} else {
		slog.Warn("no geoip database configured, IP geolocation disabled")
	}
	provider := location.NewProvider(source)

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.Mail.Endpoint != "" {
		mail = mailer.NewHTTPMailer(cfg.Mail.Endpoint, cfg.Mail.APIKey, cfg.Mail.From)
	} else {
		slog.Warn("no mail endpoint configured, outgoing mail disabled")
	}

	otpMgr := otp.NewManager(mail)
	defer otpMgr.Close()

	// Report intake: persists and logs every accepted record.
	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.BufferSize, func(ctx context.Context, alert *models.AlertRecord) error {
		exists, err := db.Exists(ctx, alert.ID)
		if err != nil {
			slog.Error("error checking existence", "id", alert.ID, "error", err)
			return err
		}
		if exists {
			return nil
		}
		if err := db.Add(ctx, alert); err != nil {
			slog.Error("error adding alert", "id", alert.ID, "error", err)
			return err
		}
		slog.Info("added alert", "id", alert.ID, "category", alert.Category, "severity", alert.Severity)
		return nil
	})
	pool.Start(ctx)

	var feedMgr *feed.Manager
	if cfg.Feed.Enabled {
		feedMgr = feed.NewManager(feed.NewClient(cfg.Feed.URL), db, pool, cfg.Feed.PollInterval, cfg.Feed.Months)
		feedMgr.Start(ctx)
	}

	purger := scheduler.NewPurger(db, cfg.Alerts.RetentionMonths)
	if err := purger.Start(); err != nil {
		logging.Fatalf("Failed to start retention purger: %v", err)
	}

	if err := os.MkdirAll(cfg.Alerts.MediaDir, 0o755); err != nil {
		logging.Fatalf("Failed to create media dir: %v", err)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Location-Consent"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5)) // 5 req/s global limit

	handler := api.NewHandler(db, pipeline.New(), provider, otpMgr, mail, pool, api.Options{
		DefaultMonthsBack: cfg.Alerts.DefaultMonthsBack,
		MediaDir:          cfg.Alerts.MediaDir,
		NotifyList:        cfg.Mail.NotifyList,
		MailFrom:          cfg.Mail.From,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	if feedMgr != nil {
		feedMgr.Stop()
	}
	pool.Stop()
	purger.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
