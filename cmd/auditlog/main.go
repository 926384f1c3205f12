package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
	"github.com/ariefcatur/go-retail-api.git/internal/config"
	kafkax "github.com/ariefcatur/go-retail-api.git/internal/kafka"
	"github.com/ariefcatur/go-retail-api.git/internal/postgres"
	"github.com/ariefcatur/go-retail-api.git/internal/redisx"
)

// auditlog drains the audit topic and persists every event into
// transaction_logs. It is deliberately outside the request path: the API
// publishes fire-and-forget, this binary is the durable sink.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &audit.Service{DB: db, Redis: rdb, Log: logger}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroup, cfg.AuditTopic, cfg.AuditWorkers, logger)

	go func() {
		logger.Info("audit consumer started",
			zap.String("group", cfg.AuditGroup),
			zap.String("topic", cfg.AuditTopic),
			zap.Int("workers", cfg.AuditWorkers))
		if err := cons.Start(ctx, svc.HandleEvent); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
