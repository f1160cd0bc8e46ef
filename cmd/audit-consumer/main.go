package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/character-api/internal/config"
	"github.com/iliyamo/character-api/internal/queue"
)

func main() {
	_ = godotenv.Load()

	logPath := os.Getenv("AUDIT_LOG_PATH")
	if logPath == "" {
		logPath = "logs/audit.log"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("audit-consumer: writing %s events to %s", queue.AuditQueueName, logPath)
	if err := queue.StartAuditConsumer(ctx, config.AMQPURL(), logPath); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("audit-consumer: %v", err)
	}
	log.Printf("audit-consumer: stopped")
}
