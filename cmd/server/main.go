package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-backend/internal/auth"
	"retail-backend/internal/branch"
	"retail-backend/internal/cache"
	"retail-backend/internal/config"
	"retail-backend/internal/database"
	"retail-backend/internal/inventory"
	"retail-backend/internal/logger"
	"retail-backend/internal/notify"
	"retail-backend/internal/order"
	"retail-backend/internal/server"
	"retail-backend/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	reports, err := database.SQLX(db)
	if err != nil {
		log.Fatal("Failed to open report handle", zap.Error(err))
	}

	var guard cache.Guard = cache.NoopGuard{}
	rdb, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	switch {
	case err != nil:
		log.Warn("Redis unavailable, order request ids are not checked", zap.Error(err))
	case rdb != nil:
		defer rdb.Close()
		guard = cache.NewRedisGuard(rdb)
		log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	var sender notify.Sender
	if cfg.SMSGatewayURL != "" {
		sender = notify.NewHTTPGateway(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSTimeout)
	} else {
		sender = notify.NewLogSender(log)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.SMSQueueSize, cfg.SMSTimeout, log)

	resolver := auth.NewResolver(db, cfg.JWTSecret)
	app := server.New(server.Deps{
		DB:          db,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Resolver:    resolver,
		Auth: auth.NewService(db, cfg.JWTSecret, cfg.TokenTTL, auth.Bootstrap{
			Email:    cfg.BootstrapEmail,
			Phone:    cfg.BootstrapPhone,
			Password: cfg.BootstrapPassword,
		}, log),
		Branches:  branch.NewService(db, resolver),
		Inventory: inventory.NewService(db, resolver),
		Users:     user.NewService(db, user.NewCustomerRepository(reports), resolver, sender, log),
		Orders: order.NewService(db, resolver, dispatcher, guard, order.Options{
			AlertPhone:  cfg.AlertPhone,
			CompanyName: cfg.CompanyName,
		}, log),
	})

	go func() {
		log.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("environment", cfg.Environment))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	dispatcher.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
