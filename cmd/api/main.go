package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/handler"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/Dan9191/balancify/internal/integrations/gemini"
	"github.com/Dan9191/balancify/internal/metrics"
	"github.com/Dan9191/balancify/internal/repository"
	"github.com/Dan9191/balancify/internal/scheduler"
	"github.com/Dan9191/balancify/internal/service"
	"github.com/Dan9191/balancify/internal/session"
	"github.com/Dan9191/balancify/internal/utils"
	"github.com/Dan9191/balancify/internal/utils/email"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	key, err := utils.ParseKey(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Invalid encryption key: %v", err)
	}
	repo := repository.NewRepository(db, cfg.DBDriver, key)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Insight provider
	var provider insights.Provider = insights.StaticProvider{}
	if cfg.GeminiAPIKey != "" {
		provider = gemini.NewClient(cfg, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, using template insights")
	}

	// Initialize layers
	svc, err := service.NewService(logger, cfg, service.Deps{
		Repo:    repo,
		Guard:   insights.NewGuard(provider, cfg.InsightTimeout, logger, m),
		Mailer:  email.NewSender(cfg, logger),
		Metrics: m,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize service: %v", err)
	}
	h := handler.NewHandler(svc, session.NewStore(cfg.SessionTTL), session.NewTokens(cfg.JWTSecret), logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	// Retention purge
	sched, err := scheduler.New(cfg.PurgeSchedule, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule purge: %v", err)
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.NewRouter(limiter, reg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.InsightTimeout + 10*time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sched.Stop(shutdownCtx)
}
