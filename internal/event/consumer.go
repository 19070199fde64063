package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/DJ-LIFE/feedback-tool/pkg/kafka"
)

// AverageInvalidator drops a product's cached average rating.
type AverageInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// Consumer reacts to feedback events published by any instance of the
// service.
type Consumer struct {
	averages AverageInvalidator
	logger   *slog.Logger
}

// NewConsumer creates a consumer that keeps the product average cache in step
// with new feedback.
func NewConsumer(averages AverageInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		averages: averages,
		logger:   logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case EventFeedbackSubmitted:
		return c.handleFeedbackSubmitted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleFeedbackSubmitted(ctx context.Context, event *pkgkafka.Event) error {
	var data FeedbackSubmittedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal feedback.submitted data: %w", err)
	}
	if data.ProductID == "" {
		return nil
	}

	if err := c.averages.Invalidate(ctx, data.ProductID); err != nil {
		return fmt.Errorf("invalidate product average: %w", err)
	}

	c.logger.DebugContext(ctx, "invalidated product average",
		slog.String("product_id", data.ProductID),
		slog.String("feedback_id", data.ID),
	)
	return nil
}
