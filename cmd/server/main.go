package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transsahel/colis-tracker/internal/api"
	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/config"
	"github.com/transsahel/colis-tracker/internal/mailer"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
	"github.com/transsahel/colis-tracker/internal/quota"
	"github.com/transsahel/colis-tracker/internal/repository/postgres"
	"github.com/transsahel/colis-tracker/internal/service/convoy"
	"github.com/transsahel/colis-tracker/internal/service/notify"
	"github.com/transsahel/colis-tracker/internal/service/shipment"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	// Fail fast when the port is taken instead of dying mid-startup.
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	probe, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("[Server] Port %d is not available: %v", cfg.Server.Port, err)
	}
	probe.Close()

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("[Server] Database connection failed: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	log.Println("[Server] Connected to database")

	// Send-quota limiter is optional: without redis the notifier simply
	// runs unthrottled.
	var limiter notify.QuotaLimiter
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		l, err := quota.NewLimiterFromURL(cfg.Redis.URL, cfg.Notify.QuotaPerMinute, cfg.Notify.QuotaPerDay)
		if err != nil {
			log.Fatalf("[Server] Redis connection failed: %v", err)
		}
		defer l.Close()
		limiter = l
		log.Println("[Server] Send-quota limiter enabled")
	} else {
		log.Println("[Server] Send-quota limiter disabled (no redis configured)")
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		log.Fatalf("[Server] Mail transport init failed: %v", err)
	}

	authz := auth.NewAuthorizer()
	userRepo := postgres.NewUserRepo(db)
	sessions := auth.NewSessionManager(userRepo, cfg.Auth.SessionTTL)

	notifier := notify.NewNotifier(postgres.NewNotifyRepo(db), transport, limiter, authz, notify.Options{
		FromEmail:      cfg.Mailer.FromEmail,
		FromName:       cfg.Mailer.FromName,
		MaxAttempts:    cfg.Notify.MaxAttempts,
		RetryBaseDelay: cfg.Notify.RetryBaseDelay,
		PacingDelay:    cfg.Notify.PacingDelay,
		SendTimeout:    cfg.Notify.SendTimeout,
		DelayNote:      cfg.Notify.TransitDelayNote,
	})

	shipments := shipment.NewService(postgres.NewShipmentRepo(db), authz, notifier)
	convoys := convoy.NewService(postgres.NewConvoyRepo(db), authz)

	handlers := api.NewHandlers(shipments, convoys, notifier, sessions)
	router := api.SetupRoutes(handlers, sessions)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
	log.Println("[Server] Stopped")
}

// buildTransport selects the outbound mail transport from config.
func buildTransport(cfg *config.Config) (mailer.Transport, error) {
	switch cfg.Mailer.Provider {
	case "http":
		return mailer.NewHTTPTransport(cfg.Mailer.APIBaseURL, cfg.Mailer.APIKey, nil), nil
	case "ses", "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return mailer.NewSESTransport(ctx, cfg.SES)
	default:
		return nil, fmt.Errorf("unknown mailer provider %q", cfg.Mailer.Provider)
	}
}
