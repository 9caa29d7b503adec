package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/tracing"
)

// FeedbackEvents publishes feedback lifecycle events.
type FeedbackEvents interface {
	PublishFeedbackSubmitted(ctx context.Context, f *domain.Feedback) error
	PublishFeedbackUpdated(ctx context.Context, f *domain.Feedback) error
	PublishFeedbackDeleted(ctx context.Context, id string) error
}

// FeedbackService implements the business logic for tenant feedback.
type FeedbackService struct {
	repo   repository.FeedbackRepository
	events FeedbackEvents
	logger *slog.Logger
	now    func() time.Time
	// loc sets the day boundary for the "today" statistic.
	loc *time.Location
}

// NewFeedbackService creates a new feedback service. The "today" statistic
// counts from midnight in the server's local time zone.
func NewFeedbackService(repo repository.FeedbackRepository, events FeedbackEvents, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
}

// FeedbackInput is the submission form. Any status sent by the client is
// ignored.
type FeedbackInput struct {
	PropertyID      string         `json:"propertyId"`
	PropertyTitle   string         `json:"propertyTitle"`
	Feedback        string         `json:"feedback"`
	Photo           *string        `json:"photo"`
	PropertyDetails map[string]any `json:"propertyDetails"`
}

// FeedbackUpdate holds the fields of a partial update. Nil or unset fields
// are left unchanged; an explicit null photo removes the photo.
type FeedbackUpdate struct {
	Feedback *string               `json:"feedback"`
	Photo    domain.OptionalString `json:"photo"`
	Status   *string               `json:"status"`
}

var errInvalidStatus = apperrors.InvalidStatus("Invalid status. Must be: pending, reviewed, or resolved")

func normalizePhoto(photo *string) *string {
	if photo == nil || *photo == "" {
		return nil
	}
	p := *photo
	return &p
}

// SubmitFeedback validates and stores a new pending feedback entry.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in *FeedbackInput) (_ *domain.Feedback, err error) {
	ctx, span := tracing.Start(ctx, "FeedbackService.SubmitFeedback")
	defer func() { tracing.End(span, err) }()

	propertyID := strings.TrimSpace(in.PropertyID)
	if propertyID == "" {
		return nil, apperrors.Validation("Property ID is required")
	}
	title := strings.TrimSpace(in.PropertyTitle)
	if title == "" {
		return nil, apperrors.Validation("Property title is required")
	}
	text := strings.TrimSpace(in.Feedback)
	if utf8.RuneCountInString(text) < domain.MinFeedbackLength {
		return nil, apperrors.Validation("Feedback must be at least 5 characters long")
	}

	details := in.PropertyDetails
	if details == nil {
		details = map[string]any{}
	}

	f := &domain.Feedback{
		ID:              domain.NewID(),
		PropertyID:      propertyID,
		PropertyTitle:   title,
		Feedback:        text,
		Photo:           normalizePhoto(in.Photo),
		PropertyDetails: details,
		Status:          domain.FeedbackStatusPending,
		CreatedAt:       recordTime(s.now()),
	}
	if msgs := domain.ValidateFeedback(f); len(msgs) > 0 {
		return nil, apperrors.Validation("Validation error", msgs...)
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	if err := s.events.PublishFeedbackSubmitted(ctx, f); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish feedback.submitted event",
			slog.String("feedback_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "feedback submitted",
		slog.String("feedback_id", f.ID),
		slog.String("property_id", f.PropertyID),
		slog.Bool("has_photo", f.HasPhoto()),
	)
	return f, nil
}

// ListFeedback returns all feedback, newest first.
func (s *FeedbackService) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	out, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return out, nil
}

// ListByProperty returns the feedback for one property id, newest first.
func (s *FeedbackService) ListByProperty(ctx context.Context, propertyID string) ([]domain.Feedback, error) {
	if propertyID == "" {
		return []domain.Feedback{}, nil
	}
	out, err := s.repo.List(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list feedback by property: %w", err)
	}
	return out, nil
}

// GetFeedback returns one feedback entry.
func (s *FeedbackService) GetFeedback(ctx context.Context, id string) (*domain.Feedback, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get feedback by id: %w", err)
	}
	return f, nil
}

// UpdateStatus moves a feedback entry to status. Any state may follow any
// other.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id, status string) (_ *domain.Feedback, err error) {
	ctx, span := tracing.Start(ctx, "FeedbackService.UpdateStatus",
		attribute.String("feedback.id", id),
		attribute.String("feedback.status", status),
	)
	defer func() { tracing.End(span, err) }()

	if !domain.IsValidFeedbackStatus(status) {
		return nil, errInvalidStatus
	}
	return s.UpdateFeedback(ctx, id, &FeedbackUpdate{Status: &status})
}

// UpdateFeedback applies a partial update. Provided values are validated the
// same way as on submission.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id string, upd *FeedbackUpdate) (_ *domain.Feedback, err error) {
	ctx, span := tracing.Start(ctx, "FeedbackService.UpdateFeedback", attribute.String("feedback.id", id))
	defer func() { tracing.End(span, err) }()

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get feedback by id: %w", err)
	}

	previous := f.Status
	if upd.Feedback != nil {
		f.Feedback = strings.TrimSpace(*upd.Feedback)
	}
	if upd.Photo.Set {
		f.Photo = normalizePhoto(upd.Photo.Value)
	}
	if upd.Status != nil {
		f.Status = *upd.Status
	}
	if msgs := domain.ValidateFeedback(f); len(msgs) > 0 {
		return nil, apperrors.Validation("Validation error", msgs...)
	}

	if err := s.repo.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}

	if err := s.events.PublishFeedbackUpdated(ctx, f); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish feedback.updated event",
			slog.String("feedback_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "feedback updated",
		slog.String("feedback_id", f.ID),
		slog.String("status_from", previous),
		slog.String("status_to", f.Status),
	)
	return f, nil
}

// DeleteFeedback removes a feedback entry.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id string) (err error) {
	ctx, span := tracing.Start(ctx, "FeedbackService.DeleteFeedback", attribute.String("feedback.id", id))
	defer func() { tracing.End(span, err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}

	if err := s.events.PublishFeedbackDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish feedback.deleted event",
			slog.String("feedback_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "feedback deleted", slog.String("feedback_id", id))
	return nil
}

// Stats returns the dashboard counters.
func (s *FeedbackService) Stats(ctx context.Context) (_ *domain.FeedbackStats, err error) {
	ctx, span := tracing.Start(ctx, "FeedbackService.Stats")
	defer func() { tracing.End(span, err) }()

	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var stats domain.FeedbackStats
	queries := []struct {
		name   string
		dst    *int64
		filter repository.FeedbackFilter
	}{
		{"total", &stats.Total, repository.FeedbackFilter{}},
		{"pending", &stats.Pending, repository.FeedbackFilter{Status: domain.FeedbackStatusPending}},
		{"reviewed", &stats.Reviewed, repository.FeedbackFilter{Status: domain.FeedbackStatusReviewed}},
		{"resolved", &stats.Resolved, repository.FeedbackFilter{Status: domain.FeedbackStatusResolved}},
		{"today", &stats.Today, repository.FeedbackFilter{CreatedSince: &midnight}},
		{"withPhotos", &stats.WithPhotos, repository.FeedbackFilter{HasPhoto: true}},
	}
	for _, q := range queries {
		n, err := s.repo.Count(ctx, q.filter)
		if err != nil {
			return nil, fmt.Errorf("count %s feedback: %w", q.name, err)
		}
		*q.dst = n
	}
	return &stats, nil
}
