package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	lambdahandler "github.com/spec-kit/maintenance-service/internal/api/lambda"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "analysis-service")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	lambda.Start(lambdahandler.NewAnalyzeHandler(logger).Handle)
}
