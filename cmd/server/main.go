package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/sewakita/service-rental/internal/application"
	"github.com/sewakita/service-rental/internal/config"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"github.com/sewakita/service-rental/internal/events"
	"github.com/sewakita/service-rental/internal/handler"
	"github.com/sewakita/service-rental/internal/platform/auth"
	"github.com/sewakita/service-rental/internal/platform/database"
	"github.com/sewakita/service-rental/internal/platform/kafka"
	"github.com/sewakita/service-rental/internal/platform/logger"
	"github.com/sewakita/service-rental/internal/platform/middleware"
	"github.com/sewakita/service-rental/internal/repository"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.IsDevelopment() {
		err = db.AutoMigrate(
			&repository.BookingModel{},
			&repository.CarModel{},
			&repository.DriverModel{},
			&repository.LedgerEntryModel{},
			&repository.MarketplaceRequestModel{},
			&repository.BlacklistEntryModel{},
			&repository.TenantSettingsModel{},
		)
		if err != nil {
			log.Fatal("failed to auto-migrate schema", zap.Error(err))
		}
	} else {
		if err := database.RunMigrations(cfg.Database.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, 7*24*time.Hour)

	producer := kafka.NewProducer(cfg.KafkaBrokers, log)
	defer func() { _ = producer.Close() }()

	// Repositories.
	bookingRepo := repository.NewGormBookingRepository(db)
	carRepo := repository.NewGormCarRepository(db)
	driverRepo := repository.NewGormDriverRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	marketplaceRepo := repository.NewGormMarketplaceRepository(db)
	blacklistRegistry := repository.NewGormBlacklistRegistry(db)
	settingsRepo := repository.NewGormSettingsRepository(db)

	// Services.
	reconciler := application.NewLedgerReconciler(bookingRepo, carRepo, driverRepo, ledgerRepo, settingsRepo, log)
	bookingService := application.NewBookingService(
		bookingRepo, carRepo, driverRepo,
		bookingDomain.NewStandardPricingStrategy(),
		blacklistRegistry, settingsRepo,
		reconciler, producer, log,
	)
	availabilityService := application.NewAvailabilityService(bookingRepo)
	marketplaceService := application.NewMarketplaceService(marketplaceRepo, carRepo, producer, cfg.MarketplaceTTL, log)
	ledgerService := application.NewLedgerService(ledgerRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Payment settlement consumer.
	paymentKafkaConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, events.TopicPaymentEvents, log)
	defer func() { _ = paymentKafkaConsumer.Close() }()
	paymentConsumer := events.NewPaymentConsumer(paymentKafkaConsumer, bookingService, log)
	go func() {
		// A handler failure leaves the offset uncommitted; resume so the
		// settlement is delivered again.
		for {
			err := paymentConsumer.Run(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error("payment consumer stopped, resuming", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	// Periodic sweep expiring stale marketplace requests.
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.MarketplaceSweep),
		gocron.NewTask(func() {
			if _, err := marketplaceService.ExpireStaleRequests(ctx, time.Now().UTC()); err != nil {
				log.Error("marketplace expiry sweep failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		log.Fatal("failed to schedule marketplace sweep", zap.Error(err))
	}
	scheduler.Start()
	defer func() { _ = scheduler.Shutdown() }()

	// HTTP server.
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(log),
		middleware.CORSMiddleware(),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	handler.NewBookingHandler(bookingService, availabilityService).RegisterRoutes(api, jwtManager)
	handler.NewMarketplaceHandler(marketplaceService).RegisterRoutes(api, jwtManager)
	handler.NewLedgerHandler(ledgerService).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
