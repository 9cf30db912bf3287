//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sewakita/service-rental/internal/application"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	serviceEvents "github.com/sewakita/service-rental/internal/events"
	"github.com/sewakita/service-rental/internal/platform/kafka"
	"github.com/sewakita/service-rental/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// rentalStack holds wired-up service components.
type rentalStack struct {
	Bookings        *application.BookingService
	Marketplace     *application.MarketplaceService
	Ledger          *application.LedgerService
	PaymentConsumer *serviceEvents.PaymentConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a
// connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_rental sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.BookingModel{},
		&repository.CarModel{},
		&repository.DriverModel{},
		&repository.LedgerEntryModel{},
		&repository.MarketplaceRequestModel{},
		&repository.BlacklistEntryModel{},
		&repository.TenantSettingsModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers,
		serviceEvents.TopicBookingEvents,
		serviceEvents.TopicMarketplaceEvents,
		serviceEvents.TopicPaymentEvents,
	)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupRentalStack wires up the full service stack against real containers.
func setupRentalStack(t *testing.T, db *gorm.DB, brokers []string) *rentalStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	carRepo := repository.NewGormCarRepository(db)
	driverRepo := repository.NewGormDriverRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	marketplaceRepo := repository.NewGormMarketplaceRepository(db)
	blacklist := repository.NewGormBlacklistRegistry(db)
	settings := repository.NewGormSettingsRepository(db)

	producer := kafka.NewProducer(brokers, logger)

	reconciler := application.NewLedgerReconciler(bookingRepo, carRepo, driverRepo, ledgerRepo, settings, logger)
	bookingSvc := application.NewBookingService(bookingRepo, carRepo, driverRepo,
		bookingDomain.NewStandardPricingStrategy(), blacklist, settings, reconciler, producer, logger)
	marketplaceSvc := application.NewMarketplaceService(marketplaceRepo, carRepo, producer, time.Hour, logger)
	ledgerSvc := application.NewLedgerService(ledgerRepo)

	groupID := fmt.Sprintf("test-rental-%s", uuid.New().String()[:8])
	paymentKafkaConsumer := kafka.NewConsumer(brokers, groupID, serviceEvents.TopicPaymentEvents, logger)
	paymentConsumer := serviceEvents.NewPaymentConsumer(paymentKafkaConsumer, bookingSvc, logger)

	return &rentalStack{
		Bookings:        bookingSvc,
		Marketplace:     marketplaceSvc,
		Ledger:          ledgerSvc,
		PaymentConsumer: paymentConsumer,
		CleanupProducer: func() {
			_ = producer.Close()
			_ = paymentKafkaConsumer.Close()
		},
	}
}

// seedCar inserts a car owned by the tenant.
func seedCar(t *testing.T, db *gorm.DB, tenantID uuid.UUID, dailyRate int64) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	model := repository.CarModel{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PlateNumber: fmt.Sprintf("B %s XX", uuid.New().String()[:4]),
		Model:       "Avanza",
		DailyRate:   dailyRate,
		OwnerType:   "OWN",
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed car")
	return model.ID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForAmountPaid polls the bookings table until amount_paid matches.
func waitForAmountPaid(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expected int64, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.AmountPaid == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking never reached amount_paid=%d", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		var ce kafka.CloudEvent
		if err := json.Unmarshal(msg.Value, &ce); err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with
// "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
