package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"messageboard/internal/app"
	"messageboard/internal/config"
	"messageboard/internal/gateway"
	"messageboard/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	// A frozen execution environment cannot run a background worker.
	cfg.NotifyMode = config.NotifyInline
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zl.Sync()

	application, err := app.New(context.Background(), cfg, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}

	lambda.Start(gateway.NewHandler(application.Dispatcher).Handle)
}
