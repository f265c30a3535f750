package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/akimenko/ledger-service/internal/config"
	"github.com/akimenko/ledger-service/internal/handler"
	"github.com/akimenko/ledger-service/internal/middleware"
	"github.com/akimenko/ledger-service/internal/notify"
	"github.com/akimenko/ledger-service/internal/reconcile"
	"github.com/akimenko/ledger-service/internal/repository"
	"github.com/akimenko/ledger-service/internal/service"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env if present; real environment wins.
	_ = godotenv.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	accounts := repository.NewPostgresAccountStore(db)
	journal := repository.NewPostgresTransactionStore(db)
	var alerter service.Alerter
	if cfg.OperatorEmail != "" {
		alerter = notify.NewSender(cfg, logger)
	}
	svc := service.NewService(accounts, journal, logger, alerter, cfg.TransferTimeout)
	h := handler.NewHandler(svc, cfg, logger)

	// Schedule the periodic ledger audit
	auditor := reconcile.NewAuditor(accounts, journal, logger, alerter, cfg.PendingGrace)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := auditor.Run(ctx); err != nil {
			logger.Errorf("Audit pass failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule audit: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(middleware.AuthMiddleware(cfg)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
