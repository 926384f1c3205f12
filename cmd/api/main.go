package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
	"github.com/ariefcatur/go-retail-api.git/internal/config"
	"github.com/ariefcatur/go-retail-api.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-retail-api.git/internal/kafka"
	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/orders/pgstore"
	"github.com/ariefcatur/go-retail-api.git/internal/payments"
	"github.com/ariefcatur/go-retail-api.git/internal/postgres"
	"github.com/ariefcatur/go-retail-api.git/internal/products"
	"github.com/ariefcatur/go-retail-api.git/internal/redisx"
	"github.com/ariefcatur/go-retail-api.git/internal/users"
)

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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic, 1024, logger)
	prod.Start(ctx)
	sink := &audit.KafkaSink{Producer: prod, Service: cfg.ServiceName, Log: logger}

	userRepo := &users.Repo{DB: db}
	productRepo := &products.Repo{DB: db}

	svc := orders.NewService(
		logger,
		&pgstore.TxManager{DB: db},
		pgstore.NewLedger(),
		pgstore.NewStore(db),
		userRepo,
		productRepo,
		sink,
	)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Service: svc, Redis: rdb, Log: logger}).Register(router)
	(&httpx.ProductsHandler{Repo: products.NewCache(productRepo, rdb)}).Register(router)
	(&httpx.UsersHandler{Repo: userRepo}).Register(router)
	(&httpx.PaymentsHandler{Repo: &payments.Repo{DB: db}, Orders: svc, Audit: sink}).Register(router)
	(&httpx.LogsHandler{Audit: &audit.Service{DB: db, Redis: rdb, Log: logger}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
	cancel()
}
