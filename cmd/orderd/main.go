package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/order-core/internal/checkout"
	"github.com/example/order-core/internal/config"
	"github.com/example/order-core/internal/idempotency"
	"github.com/example/order-core/internal/infrastructure/kafka"
	"github.com/example/order-core/internal/infrastructure/store"
	"github.com/example/order-core/internal/payment"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Orderd] Invalid configuration: %v", err)
	}

	log.Println("[Orderd] ========================================")
	log.Println("[Orderd] Order Processing Core")
	log.Println("[Orderd] ========================================")
	log.Printf("[Orderd] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Orderd] Redis: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaWriteTimeout)
	defer producer.Close()

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Orderd] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[Orderd] Connected to PostgreSQL")

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("[Orderd] Failed to connect to Redis: %v", err)
	}
	log.Println("[Orderd] Connected to Redis")

	orderStore := store.NewPostgresOrderStore(db)
	ledger := idempotency.NewRedisLedger(rdb)
	checkoutSvc := checkout.NewService(orderStore, ledger, producer)

	breakerSettings := payment.DefaultBreakerSettings()
	breakerSettings.CoolDown = cfg.BreakerCoolDown
	breaker := payment.NewCircuitBreaker("fastpay", breakerSettings)

	orchestrator := payment.NewOrchestrator(
		payment.NewFlakyGateway(),
		breaker,
		payment.OrchestratorConfig{
			MaxAttempts:    cfg.PaymentMaxAttempts,
			Backoff:        cfg.PaymentBackoff,
			AttemptTimeout: cfg.PaymentAttemptTimeout,
			MaxConcurrent:  cfg.PaymentMaxConcurrent,
		},
	)

	go runDemoLoop(ctx, checkoutSvc, orchestrator)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Orderd] Shutting down...")
	cancel()
}

// runDemoLoop exercises the full create -> capture -> transition path
// against the simulated gateway until the process is stopped.
func runDemoLoop(ctx context.Context, svc *checkout.Service, orchestrator *payment.Orchestrator) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		user := checkout.User{ID: uuid.New().String()}
		key := uuid.New().String()

		o, err := svc.CreateOrder(ctx, user, key)
		if err != nil {
			log.Printf("[Orderd] Create order failed: %v", err)
			continue
		}
		log.Printf("[Orderd] Created order %s (%s)", o.ID, o.OrderNumber)

		future := orchestrator.ProcessPayment(ctx, o.ID)
		result, err := future.Result(ctx)
		if err != nil {
			// Shutdown while waiting; the attempt finishes on its own.
			return
		}

		if result.Success {
			if err := svc.MarkPaid(ctx, o.ID, result.TransactionID); err != nil {
				log.Printf("[Orderd] Mark paid failed for %s: %v", o.ID, err)
			}
		} else {
			if err := svc.MarkPaymentFailed(ctx, o.ID, result.Message); err != nil {
				log.Printf("[Orderd] Mark failed failed for %s: %v", o.ID, err)
			}
		}
	}
}
