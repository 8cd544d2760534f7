package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/rest"
	"github.com/hirosato/construction-erp/internal/app"
	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/common/logger"
)

func main() {
	_ = godotenv.Load()

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(config.LogLevel, config.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, config, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	server := rest.New(a)
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("addr", config.HTTPAddr))
	if err := server.Listen(config.HTTPAddr); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
