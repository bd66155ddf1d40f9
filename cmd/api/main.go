package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/adapter/handler"
	"github.com/srgjo27/boat_booking/internal/adapter/messaging"
	"github.com/srgjo27/boat_booking/internal/adapter/repository/postgres"
	"github.com/srgjo27/boat_booking/internal/adapter/repository/redisstore"
	"github.com/srgjo27/boat_booking/internal/core/services"
	"github.com/srgjo27/boat_booking/internal/platform/config"
	"github.com/srgjo27/boat_booking/internal/platform/database"
	"github.com/srgjo27/boat_booking/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.Setup(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(context.Background(), db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	scheduleRepo := postgres.NewScheduleRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	lockStore := redisstore.NewSeatLockStore(redisClient)
	cache := redisstore.NewCacheInvalidator(redisClient)

	events, closeEvents := messaging.NewEventPublisher(cfg.Kafka, log)
	defer func() {
		if err := closeEvents(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	locks := services.NewSeatLockManager(scheduleRepo, lockStore, cfg.Booking, nil, log)
	bookingService := services.NewBookingService(scheduleRepo, bookingRepo, locks, cache, events, cfg.Booking, nil, log)
	scheduleService := services.NewScheduleService(scheduleRepo, locks, cache, cfg.Booking, nil, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bookingService.RunBackgroundCleanup(ctx)
	}()

	if cfg.RabbitMQ.URL != "" {
		consumer, err := messaging.NewPaymentConsumer(cfg.RabbitMQ, bookingService, log)
		if err != nil {
			log.Fatalf("Failed to start payment consumer: %v", err)
		}
		defer consumer.Close()

		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("Failed to start payment consumer: %v", err)
		}
	}

	router := handler.NewRouter(handler.Handlers{
		Bookings:  handler.NewBookingHandler(bookingService),
		Schedules: handler.NewScheduleHandler(scheduleService),
		Payments:  handler.NewPaymentHandler(bookingService),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	}, handler.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.CorsOrigins,
	}, log)

	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server startup failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	wg.Wait()
	log.Info("Server exiting")
}
