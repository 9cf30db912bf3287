package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/platform/kafka"
	"go.uber.org/zap"
)

// settlementRetries bounds how often one settlement is re-applied when it
// races a staff payment update on the same booking.
const settlementRetries = 3

// PaymentApplier is the slice of the booking service the consumer needs.
type PaymentApplier interface {
	ApplySettlement(ctx context.Context, event PaymentSettledEvent) error
}

// PaymentConsumer applies payment settlements announced by the payment
// collaborator to bookings. Malformed or unknown messages are logged and
// skipped; a settlement that fails to apply is returned to the consumer
// uncommitted so it is delivered again.
type PaymentConsumer struct {
	consumer *kafka.Consumer
	bookings PaymentApplier
	logger   *zap.Logger
}

// NewPaymentConsumer creates a consumer bound to the payment events topic.
func NewPaymentConsumer(consumer *kafka.Consumer, bookings PaymentApplier, logger *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{
		consumer: consumer,
		bookings: bookings,
		logger:   logger,
	}
}

// Run consumes payment events until the context is cancelled.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

func (c *PaymentConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var event kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warn("skipping malformed payment message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}

	if event.Type != PaymentSettled {
		c.logger.Debug("ignoring event type", zap.String("type", event.Type))
		return nil
	}

	var settled PaymentSettledEvent
	if err := event.ParseData(&settled); err != nil {
		c.logger.Warn("skipping malformed payment.settled payload",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return nil
	}

	if err := c.applySettlement(ctx, settled); err != nil {
		c.logger.Error("failed to apply payment settlement",
			zap.String("booking_id", settled.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("applied payment settlement",
		zap.String("booking_id", settled.BookingID.String()),
		zap.Int64("amount_paid", settled.AmountPaid),
	)
	return nil
}

// applySettlement retries the read-modify-write when it loses the optimistic
// lock to a concurrent payment update; any other failure is returned as is.
func (c *PaymentConsumer) applySettlement(ctx context.Context, settled PaymentSettledEvent) error {
	var err error
	for attempt := 0; attempt < settlementRetries; attempt++ {
		err = c.bookings.ApplySettlement(ctx, settled)
		if err == nil || !domain.IsKind(err, domain.KindResourceConflict) {
			return err
		}
		c.logger.Warn("settlement lost a concurrent update, retrying",
			zap.String("booking_id", settled.BookingID.String()),
			zap.Int("attempt", attempt+1),
		)
	}
	return err
}
