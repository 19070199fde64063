package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	pkgkafka "github.com/DJ-LIFE/feedback-tool/pkg/kafka"
	"github.com/DJ-LIFE/feedback-tool/pkg/logger"
)

// Event types published by the feedback service.
const (
	EventFeedbackSubmitted = "feedback.submitted"
)

// TopicFeedbackSubmitted carries EventFeedbackSubmitted.
var TopicFeedbackSubmitted = pkgkafka.Topic("feedback", "submitted")

// SourceFeedbackService identifies events originating from this service.
const SourceFeedbackService = "feedback-service"

// FeedbackSubmittedData is the payload for a feedback.submitted event.
type FeedbackSubmittedData struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id,omitempty"`
	Rating      int       `json:"rating"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes feedback domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the feedback service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishFeedbackSubmitted publishes a feedback.submitted event keyed by the
// feedback ID.
func (p *Producer) PublishFeedbackSubmitted(ctx context.Context, f *domain.Feedback) error {
	data := FeedbackSubmittedData{
		ID:          f.ID,
		ProductID:   f.ProductID,
		Rating:      f.Rating,
		SubmittedAt: f.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(EventFeedbackSubmitted, f.ID, SourceFeedbackService, data)
	if err != nil {
		return fmt.Errorf("create feedback.submitted event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicFeedbackSubmitted, event); err != nil {
		return fmt.Errorf("publish feedback.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published feedback.submitted event",
		slog.String("feedback_id", f.ID),
		slog.String("product_id", f.ProductID),
	)

	return nil
}
