package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/tracing"
)

// ListingEvents publishes listing lifecycle events.
type ListingEvents interface {
	PublishListingCreated(ctx context.Context, l *domain.Listing) error
	PublishListingUpdated(ctx context.Context, l *domain.Listing) error
	PublishListingDeleted(ctx context.Context, id string) error
}

// ListingService implements the business logic for property listings.
type ListingService struct {
	repo   repository.ListingRepository
	events ListingEvents
	logger *slog.Logger
	now    func() time.Time
}

// NewListingService creates a new listing service.
func NewListingService(repo repository.ListingRepository, events ListingEvents, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// recordTime truncates t to the millisecond precision of a BSON datetime, the
// coarsest store, so a record returned by a write equals a later read of it.
func recordTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ListingInput is the add/update form as the client sends it. Numeric fields
// may arrive as numbers or numeric strings, and photos as one value or a list.
type ListingInput struct {
	OwnerName   domain.Scalar    `json:"ownerName"`
	Rent        domain.Scalar    `json:"rent"`
	Advance     domain.Scalar    `json:"advance"`
	Type        domain.Scalar    `json:"type"`
	BHK         domain.Scalar    `json:"bhk"`
	SquareFeet  domain.Scalar    `json:"squareFeet"`
	PhoneNumber domain.Scalar    `json:"phoneNumber"`
	Photos      domain.PhotoList `json:"photos"`
	AdminEmail  domain.Scalar    `json:"adminEmail"`
}

// NormalizeEmail trims and lower-cases an owner email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// buildListing runs the form checks in order and returns the normalised
// listing without id or timestamps.
func buildListing(in *ListingInput) (*domain.Listing, error) {
	required := []struct {
		name  string
		value domain.Scalar
	}{
		{"ownerName", in.OwnerName},
		{"rent", in.Rent},
		{"advance", in.Advance},
		{"type", in.Type},
		{"bhk", in.BHK},
		{"squareFeet", in.SquareFeet},
		{"phoneNumber", in.PhoneNumber},
		{"adminEmail", in.AdminEmail},
	}
	var missing []string
	for _, f := range required {
		if f.value.Empty() {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("Missing required fields: "+strings.Join(missing, ", "), missing...)
	}

	photos := in.Photos.ImagesOnly()
	if len(photos) == 0 {
		return nil, apperrors.Validation("At least one valid image is required")
	}

	rent := in.Rent.Float()
	if math.IsNaN(rent) || rent <= 0 {
		return nil, apperrors.Validation("Rent must be a positive number")
	}
	advance := in.Advance.Float()
	if math.IsNaN(advance) || advance <= 0 {
		return nil, apperrors.Validation("Advance must be a positive number")
	}
	squareFeet := in.SquareFeet.Float()
	if math.IsNaN(squareFeet) || squareFeet < domain.MinSquareFeet {
		return nil, apperrors.Validation("Square feet must be at least 100")
	}

	l := &domain.Listing{
		OwnerName:   strings.TrimSpace(in.OwnerName.Text),
		Rent:        rent,
		Advance:     advance,
		Type:        in.Type.Text,
		BHK:         in.BHK.Text,
		SquareFeet:  squareFeet,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber.Text),
		Photos:      photos,
		AdminEmail:  NormalizeEmail(in.AdminEmail.Text),
	}
	if msgs := domain.ValidateListing(l); len(msgs) > 0 {
		return nil, apperrors.Validation("Validation error", msgs...)
	}
	return l, nil
}

// AddListing validates the form and stores a new listing.
func (s *ListingService) AddListing(ctx context.Context, in *ListingInput) (_ *domain.Listing, err error) {
	ctx, span := tracing.Start(ctx, "ListingService.AddListing")
	defer func() { tracing.End(span, err) }()

	l, err := buildListing(in)
	if err != nil {
		return nil, err
	}

	now := recordTime(s.now())
	l.ID = domain.NewID()
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	if err := s.events.PublishListingCreated(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.created event",
			slog.String("listing_id", l.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "listing created",
		slog.String("listing_id", l.ID),
		slog.String("admin_email", l.AdminEmail),
		slog.Int("photos", len(l.Photos)),
	)
	return l, nil
}

// UpdateListing validates the form and replaces every field of an existing
// listing.
func (s *ListingService) UpdateListing(ctx context.Context, id string, in *ListingInput) (_ *domain.Listing, err error) {
	ctx, span := tracing.Start(ctx, "ListingService.UpdateListing", attribute.String("listing.id", id))
	defer func() { tracing.End(span, err) }()

	l, err := buildListing(in)
	if err != nil {
		return nil, err
	}
	l.ID = id
	l.UpdatedAt = recordTime(s.now())

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	if err := s.events.PublishListingUpdated(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.updated event",
			slog.String("listing_id", l.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "listing updated", slog.String("listing_id", l.ID))
	return l, nil
}

// DeleteListing removes a listing.
func (s *ListingService) DeleteListing(ctx context.Context, id string) (err error) {
	ctx, span := tracing.Start(ctx, "ListingService.DeleteListing", attribute.String("listing.id", id))
	defer func() { tracing.End(span, err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	if err := s.events.PublishListingDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.deleted event",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "listing deleted", slog.String("listing_id", id))
	return nil
}

// GetListing returns one listing. Ids that are not 24 hex characters are
// rejected before the store is consulted.
func (s *ListingService) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if !domain.IsValidID(id) {
		return nil, apperrors.InvalidID("property")
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing by id: %w", err)
	}
	return l, nil
}

// ListListings returns every listing matching the filter, newest first.
func (s *ListingService) ListListings(ctx context.Context, filter repository.ListingFilter) ([]domain.Listing, error) {
	filter.Sort = repository.SortNewest
	filter.AdminEmail = NormalizeEmail(filter.AdminEmail)
	listings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// ListByOwner returns the listings created by one admin, most recently
// updated first.
func (s *ListingService) ListByOwner(ctx context.Context, email string) ([]domain.Listing, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return []domain.Listing{}, nil
	}
	listings, err := s.repo.List(ctx, repository.ListingFilter{
		AdminEmail: email,
		Sort:       repository.SortRecentlyUpdated,
	})
	if err != nil {
		return nil, fmt.Errorf("list listings by owner: %w", err)
	}
	return listings, nil
}

// BackfillLegacy gives listings that predate the bhk and squareFeet fields
// their default values and returns how many were updated. Running it again
// updates nothing.
func (s *ListingService) BackfillLegacy(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.Start(ctx, "ListingService.BackfillLegacy")
	defer func() { tracing.End(span, err) }()

	legacy, err := s.repo.FindLegacy(ctx)
	if err != nil {
		return 0, fmt.Errorf("find legacy listings: %w", err)
	}

	count := 0
	for i := range legacy {
		l := &legacy[i]
		if !l.ApplyLegacyDefaults() {
			continue
		}
		l.UpdatedAt = recordTime(s.now())
		if err := s.repo.Update(ctx, l); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return count, fmt.Errorf("backfill listing %s: %w", l.ID, err)
		}
		count++
	}

	s.logger.InfoContext(ctx, "legacy listings backfilled",
		slog.Int("found", len(legacy)),
		slog.Int("updated", count),
	)
	return count, nil
}
