package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/config"
	"vendingmachine/internal/handler"
	"vendingmachine/internal/infrastructure/cache"
	"vendingmachine/internal/infrastructure/database"
	"vendingmachine/internal/infrastructure/lock"
	"vendingmachine/internal/infrastructure/logger"
	"vendingmachine/internal/infrastructure/mq"
	"vendingmachine/internal/job"
	"vendingmachine/internal/repository"
	"vendingmachine/internal/repository/memory"
	"vendingmachine/internal/service"
	"vendingmachine/pkg/idgen"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(&cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := idgen.Init(int64(cfg.Business.WorkerID)); err != nil {
		zap.S().Fatalf("init id generator: %v", err)
	}

	store, closeStore, err := openStore(&cfg.Database)
	if err != nil {
		zap.S().Fatalf("open store: %v", err)
	}
	defer closeStore()

	locker, denylist, closeRedis, err := newLockerAndDenylist(cfg)
	if err != nil {
		zap.S().Fatalf("init locker: %v", err)
	}
	defer closeRedis()

	sender, err := newSender(&cfg.Kafka)
	if err != nil {
		zap.S().Fatalf("init kafka: %v", err)
	}
	defer sender.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(store.Outbox(), sender, &cfg.Business)
	go outboxSender.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL())
	h := handler.NewHandler(
		service.NewAccountService(store, locker, tokens, denylist, cfg),
		service.NewProductService(store, locker),
		service.NewPurchaseService(store, locker, cfg),
		service.NewOrderService(store),
	)
	router := handler.SetupRouter(h, tokens, denylist, cfg.Server.Mode)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infof("server listening on :%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("shutting down")

	cancel()
	outboxSender.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("server shutdown: %v", err)
	}

	zap.S().Info("server stopped")
}

func openStore(cfg *config.DatabaseConfig) (repository.Store, func(), error) {
	if cfg.Driver == "memory" {
		zap.S().Warn("[Database] driver=memory, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return repository.NewGormStore(db), closeFn, nil
}

// newLockerAndDenylist shares one redis client between the entity locks and
// the revoked-token list. Without redis both stay in process.
func newLockerAndDenylist(cfg *config.Config) (lock.Locker, auth.Denylist, func(), error) {
	opts := lock.Options{
		TTL:           time.Duration(cfg.Business.LockTTLSeconds) * time.Second,
		RetryInterval: time.Duration(cfg.Business.LockRetryIntervalMs) * time.Millisecond,
		MaxRetries:    cfg.Business.LockMaxRetries,
	}
	if !cfg.Redis.Enabled {
		zap.S().Info("[Lock] redis disabled, using in-process locks")
		return lock.NewLocalLocker(opts), auth.NewMemoryDenylist(), func() {}, nil
	}

	client, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	return lock.NewRedisLocker(client, opts), auth.NewRedisDenylist(client), func() { client.Close() }, nil
}

func newSender(cfg *config.KafkaConfig) (mq.Sender, error) {
	if !cfg.Enabled {
		zap.S().Info("[Kafka] disabled, outbox messages are logged only")
		return mq.LogSender{}, nil
	}
	sender, err := mq.InitKafka(cfg)
	if err != nil {
		return nil, err
	}
	return sender, nil
}
