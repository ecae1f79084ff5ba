package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty-service/config"
	"loyalty-service/internal/api"
	"loyalty-service/internal/broker"
	"loyalty-service/internal/redisclient"
	"loyalty-service/internal/service"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"
	"loyalty-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting loyalty service")

	tp, err := util.InitTracer("loyalty-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLoyalty)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	awardService := service.NewAwardService(db, redisClient, eventPublisher, cfg.Loyalty.DefaultConversionRate)
	redemptionService := service.NewRedemptionService(db, eventPublisher)
	offerService := service.NewOfferService(db, redisClient, eventPublisher)
	pickupService := service.NewPickupService(db)
	preorderService := service.NewPreorderService(db)
	badgeService := service.NewBadgeService(db, eventPublisher)

	ctx := context.Background()
	if err := offerService.SyncOfferStockToGate(ctx); err != nil {
		log.Printf("Failed to seed offer stock gate: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	badgeConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLoyalty, cfg.Kafka.ConsumerGroup)
	badgeWorker := worker.NewBadgeWorker(badgeConsumer, badgeService)
	go func() {
		if err := badgeWorker.Start(workerCtx); err != nil {
			log.Printf("Badge worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		awardService,
		redemptionService,
		offerService,
		pickupService,
		preorderService,
		badgeService,
		cfg.Auth.JWTSecret,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	badgeWorker.Stop()

	log.Println("Server exited")
}
