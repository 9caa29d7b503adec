package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	pkgkafka "github.com/malatesh-s-hulbanni-12/house-rental/pkg/kafka"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

// Aggregate type constants.
const (
	AggregateTypeListing  = "listing"
	AggregateTypeFeedback = "feedback"
)

// Event actions.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionSubmitted = "submitted"
)

// Source identifies events originating from this service.
const Source = "house-rental-api"

// ListingData is the payload for listing.created and listing.updated events.
// Photos are summarised by count; the encoded images stay in the store.
type ListingData struct {
	ID         string  `json:"id"`
	OwnerName  string  `json:"owner_name"`
	Rent       float64 `json:"rent"`
	Advance    float64 `json:"advance"`
	Type       string  `json:"type"`
	BHK        string  `json:"bhk"`
	SquareFeet float64 `json:"square_feet"`
	AdminEmail string  `json:"admin_email"`
	PhotoCount int     `json:"photo_count"`
}

// FeedbackData is the payload for feedback.submitted and feedback.updated events.
type FeedbackData struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
	HasPhoto   bool   `json:"has_photo"`
}

// DeletedData is the payload for *.deleted events.
type DeletedData struct {
	ID string `json:"id"`
}

type publisher interface {
	Publish(ctx context.Context, event *pkgkafka.Event) error
}

// Producer publishes listing and feedback domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer backed by a Kafka producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func listingData(l *domain.Listing) ListingData {
	return ListingData{
		ID:         l.ID,
		OwnerName:  l.OwnerName,
		Rent:       l.Rent,
		Advance:    l.Advance,
		Type:       l.Type,
		BHK:        l.BHK,
		SquareFeet: l.SquareFeet,
		AdminEmail: l.AdminEmail,
		PhotoCount: len(l.Photos),
	}
}

func feedbackData(f *domain.Feedback) FeedbackData {
	return FeedbackData{
		ID:         f.ID,
		PropertyID: f.PropertyID,
		Status:     f.Status,
		HasPhoto:   f.HasPhoto(),
	}
}

// PublishListingCreated publishes a listing.created event.
func (p *Producer) PublishListingCreated(ctx context.Context, l *domain.Listing) error {
	return p.publish(ctx, ActionCreated, AggregateTypeListing, l.ID, listingData(l))
}

// PublishListingUpdated publishes a listing.updated event.
func (p *Producer) PublishListingUpdated(ctx context.Context, l *domain.Listing) error {
	return p.publish(ctx, ActionUpdated, AggregateTypeListing, l.ID, listingData(l))
}

// PublishListingDeleted publishes a listing.deleted event.
func (p *Producer) PublishListingDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, ActionDeleted, AggregateTypeListing, id, DeletedData{ID: id})
}

// PublishFeedbackSubmitted publishes a feedback.submitted event.
func (p *Producer) PublishFeedbackSubmitted(ctx context.Context, f *domain.Feedback) error {
	return p.publish(ctx, ActionSubmitted, AggregateTypeFeedback, f.ID, feedbackData(f))
}

// PublishFeedbackUpdated publishes a feedback.updated event.
func (p *Producer) PublishFeedbackUpdated(ctx context.Context, f *domain.Feedback) error {
	return p.publish(ctx, ActionUpdated, AggregateTypeFeedback, f.ID, feedbackData(f))
}

// PublishFeedbackDeleted publishes a feedback.deleted event.
func (p *Producer) PublishFeedbackDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, ActionDeleted, AggregateTypeFeedback, id, DeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, action, aggregateType, id string, data any) error {
	event, err := pkgkafka.NewEvent(action, id, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s.%s event: %w", aggregateType, action, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", id),
	)
	return nil
}

// Noop discards every event. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishListingCreated(context.Context, *domain.Listing) error     { return nil }
func (Noop) PublishListingUpdated(context.Context, *domain.Listing) error     { return nil }
func (Noop) PublishListingDeleted(context.Context, string) error              { return nil }
func (Noop) PublishFeedbackSubmitted(context.Context, *domain.Feedback) error { return nil }
func (Noop) PublishFeedbackUpdated(context.Context, *domain.Feedback) error   { return nil }
func (Noop) PublishFeedbackDeleted(context.Context, string) error             { return nil }
