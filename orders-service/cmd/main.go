package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/orders-service/internal/app/orders/config"
	"storefront/orders-service/internal/app/orders/handler"
	"storefront/orders-service/internal/app/orders/infrastructure"
	"storefront/orders-service/internal/app/orders/infrastructure/messaging"
	"storefront/orders-service/internal/app/orders/repository"
	"storefront/orders-service/internal/app/orders/service"
	"storefront/pkg/logger"
	"storefront/pkg/migrate"
	"storefront/pkg/tracing"
)

const serviceName = "orders-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(serviceName, logLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to get sql.DB")
		}
		if err := migrate.Up(ctx, sqlDB); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		logger.Info().Msg("Migrations applied")
	}

	// Без брокеров заказы оформляются, но события не публикуются
	var publisher infrastructure.MessagePublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Initialized Kafka producer")
	} else {
		logger.Warn().Msg("KAFKA_BROKERS is empty, order events disabled")
	}

	txManager := repository.NewTxManager(db)
	orderRepo := repository.NewOrderRepository(db)

	checkoutService := service.NewCheckoutService(txManager, publisher, service.CheckoutPolicy{
		MaxAttempts: cfg.Checkout.MaxAttempts,
		Backoff:     cfg.Checkout.Backoff,
		Jitter:      cfg.Checkout.Jitter,
	})
	orderService := service.NewOrderService(txManager, orderRepo, publisher)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	orderHandler := handler.NewOrderHandler(checkoutService, orderService)
	router := handler.SetupRoutes(orderHandler, authMiddleware, cfg.CORS.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Int("checkout_attempts", cfg.Checkout.MaxAttempts).
			Msg("Starting Orders Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Orders Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Failed to flush traces")
	}

	logger.Info().Msg("Orders Service stopped gracefully")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				// Пул больше, чем у каталога: оформление держит соединение на всю транзакцию
				sqlDB.SetMaxOpenConns(40)
				sqlDB.SetMaxIdleConns(10)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
