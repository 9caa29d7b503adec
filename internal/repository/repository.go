package repository

import (
	"context"
	"strings"
	"time"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
)

// Listing sort orders.
const (
	// SortNewest orders by creation time, newest first.
	SortNewest = "newest"
	// SortRecentlyUpdated orders by update time, then creation time, both newest first.
	SortRecentlyUpdated = "recently_updated"
)

// ListingFilter defines filter criteria for listing queries. Zero values
// leave a criterion unset.
type ListingFilter struct {
	AdminEmail string
	Type       string
	BHK        string
	MinRent    *float64
	MaxRent    *float64
	MinSqft    *float64
	MaxSqft    *float64
	// Query matches owner name, BHK or type case-insensitively.
	Query string
	Sort  string
}

// ListingRepository defines the interface for listing persistence operations.
type ListingRepository interface {
	// Create inserts a new listing. The listing ID must already be set.
	Create(ctx context.Context, listing *domain.Listing) error

	// GetByID retrieves a listing by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Listing, error)

	// List returns the listings matching the filter in the requested order.
	List(ctx context.Context, filter ListingFilter) ([]domain.Listing, error)

	// Update replaces every stored field of an existing listing except its
	// ID and creation time.
	Update(ctx context.Context, listing *domain.Listing) error

	// Delete removes a listing by its identifier.
	Delete(ctx context.Context, id string) error

	// FindLegacy returns the listings missing a BHK or square footage.
	FindLegacy(ctx context.Context) ([]domain.Listing, error)
}

// FeedbackFilter defines criteria for counting feedback.
type FeedbackFilter struct {
	Status       string
	CreatedSince *time.Time
	HasPhoto     bool
}

// FeedbackRepository defines the interface for feedback persistence operations.
type FeedbackRepository interface {
	// Create inserts a new feedback entry. The ID must already be set.
	Create(ctx context.Context, feedback *domain.Feedback) error

	// GetByID retrieves a feedback entry by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Feedback, error)

	// List returns feedback newest first, limited to one property when
	// propertyID is not empty.
	List(ctx context.Context, propertyID string) ([]domain.Feedback, error)

	// Update writes the mutable fields (feedback, photo, status) of an
	// existing entry.
	Update(ctx context.Context, feedback *domain.Feedback) error

	// Delete removes a feedback entry by its identifier.
	Delete(ctx context.Context, id string) error

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter FeedbackFilter) (int64, error)
}

// Matches reports whether a listing satisfies every criterion set on the
// filter. Stores that cannot push a criterion down to the database use it to
// filter in process.
func (f ListingFilter) Matches(l *domain.Listing) bool {
	if f.AdminEmail != "" && l.AdminEmail != f.AdminEmail {
		return false
	}
	if f.Type != "" && l.Type != f.Type {
		return false
	}
	if f.BHK != "" && l.BHK != f.BHK {
		return false
	}
	if f.MinRent != nil && l.Rent < *f.MinRent {
		return false
	}
	if f.MaxRent != nil && l.Rent > *f.MaxRent {
		return false
	}
	if f.MinSqft != nil && l.SquareFeet < *f.MinSqft {
		return false
	}
	if f.MaxSqft != nil && l.SquareFeet > *f.MaxSqft {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(l.OwnerName), q) &&
			!strings.Contains(strings.ToLower(l.BHK), q) &&
			!strings.Contains(strings.ToLower(l.Type), q) {
			return false
		}
	}
	return true
}
