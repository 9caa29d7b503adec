package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

type listingEntry struct {
	listing domain.Listing
	seq     uint64
}

// ListingRepository is an in-memory implementation of
// repository.ListingRepository, used for local development and tests.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string]listingEntry
	seq      uint64
}

// NewListingRepository creates an empty in-memory listing store.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		listings: make(map[string]listingEntry),
	}
}

// Create stores a copy of the listing.
func (r *ListingRepository) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[l.ID]; exists {
		return fmt.Errorf("insert listing %q: duplicate id", l.ID)
	}
	r.seq++
	r.listings[l.ID] = listingEntry{listing: cloneListing(l), seq: r.seq}
	return nil
}

// GetByID returns a copy of the stored listing.
func (r *ListingRepository) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.listings[id]
	if !ok {
		return nil, apperrors.NotFound("Property", id)
	}
	l := cloneListing(&e.listing)
	return &l, nil
}

// List returns the listings matching the filter.
func (r *ListingRepository) List(_ context.Context, filter repository.ListingFilter) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]listingEntry, 0, len(r.listings))
	for _, e := range r.listings {
		if filter.Matches(&e.listing) {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.Sort == repository.SortRecentlyUpdated && !a.listing.UpdatedAt.Equal(b.listing.UpdatedAt) {
			return a.listing.UpdatedAt.After(b.listing.UpdatedAt)
		}
		if !a.listing.CreatedAt.Equal(b.listing.CreatedAt) {
			return a.listing.CreatedAt.After(b.listing.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Listing, len(matched))
	for i := range matched {
		out[i] = cloneListing(&matched[i].listing)
	}
	return out, nil
}

// Update replaces the stored listing, keeping its creation time.
func (r *ListingRepository) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.listings[l.ID]
	if !ok {
		return apperrors.NotFound("Property", l.ID)
	}
	updated := cloneListing(l)
	updated.CreatedAt = e.listing.CreatedAt
	l.CreatedAt = e.listing.CreatedAt
	r.listings[l.ID] = listingEntry{listing: updated, seq: e.seq}
	return nil
}

// Delete removes the listing.
func (r *ListingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return apperrors.NotFound("Property", id)
	}
	delete(r.listings, id)
	return nil
}

// FindLegacy returns the listings missing a BHK or square footage.
func (r *ListingRepository) FindLegacy(_ context.Context) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Listing
	for _, e := range r.listings {
		if e.listing.IsLegacy() {
			out = append(out, cloneListing(&e.listing))
		}
	}
	return out, nil
}

func cloneListing(l *domain.Listing) domain.Listing {
	c := *l
	c.Photos = append([]string(nil), l.Photos...)
	return c
}
