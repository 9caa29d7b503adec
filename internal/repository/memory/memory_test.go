package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newListing(owner, email string, created, updated time.Time) *domain.Listing {
	return &domain.Listing{
		ID:          domain.NewID(),
		OwnerName:   owner,
		Rent:        5000,
		Advance:     10000,
		Type:        domain.ListingTypeRent,
		BHK:         domain.BHK2,
		SquareFeet:  650,
		PhoneNumber: "9876543210",
		Photos:      []string{"data:image/png;base64,AAA"},
		AdminEmail:  email,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

// ============================================================================
// Listing Tests
// ============================================================================

func TestListingRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	l := newListing("Asha", "a@x.com", base, base)

	require.NoError(t, repo.Create(ctx, l))
	assert.Error(t, repo.Create(ctx, l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, got)

	// Returned values are copies.
	got.Photos[0] = "changed"
	again, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAA", again.Photos[0])
}

func TestListingRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	l := newListing("Asha", "a@x.com", base, base)

	_, err := repo.GetByID(ctx, l.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(repo.Update(ctx, l), apperrors.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, l.ID), apperrors.ErrNotFound))
}

func TestListingRepository_ListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	oldest := newListing("Old", "a@x.com", base, base.Add(3*time.Hour))
	middle := newListing("Mid", "a@x.com", base.Add(time.Hour), base.Add(time.Hour))
	newest := newListing("New", "b@x.com", base.Add(2*time.Hour), base.Add(2*time.Hour))
	for _, l := range []*domain.Listing{oldest, middle, newest} {
		require.NoError(t, repo.Create(ctx, l))
	}

	all, err := repo.List(ctx, repository.ListingFilter{Sort: repository.SortNewest})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"New", "Mid", "Old"}, owners(all))

	mine, err := repo.List(ctx, repository.ListingFilter{AdminEmail: "a@x.com", Sort: repository.SortRecentlyUpdated})
	require.NoError(t, err)
	assert.Equal(t, []string{"Old", "Mid"}, owners(mine))
}

func TestListingRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	small := newListing("Ravi", "a@x.com", base, base)
	small.Rent = 3000
	small.SquareFeet = 300
	small.BHK = domain.BHKStudio
	big := newListing("Meena", "a@x.com", base.Add(time.Hour), base.Add(time.Hour))
	big.Rent = 25000
	big.SquareFeet = 1800
	big.Type = domain.ListingTypeLease
	big.BHK = domain.BHK3
	require.NoError(t, repo.Create(ctx, small))
	require.NoError(t, repo.Create(ctx, big))

	minRent := 10000.0
	maxSqft := 500.0

	tests := []struct {
		name   string
		filter repository.ListingFilter
		want   []string
	}{
		{"type", repository.ListingFilter{Type: domain.ListingTypeLease}, []string{"Meena"}},
		{"bhk", repository.ListingFilter{BHK: domain.BHKStudio}, []string{"Ravi"}},
		{"min rent", repository.ListingFilter{MinRent: &minRent}, []string{"Meena"}},
		{"max sqft", repository.ListingFilter{MaxSqft: &maxSqft}, []string{"Ravi"}},
		{"query owner", repository.ListingFilter{Query: "mee"}, []string{"Meena"}},
		{"query bhk", repository.ListingFilter{Query: "studio"}, []string{"Ravi"}},
		{"none", repository.ListingFilter{Query: "villa"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, owners(got))
		})
	}
}

func TestListingRepository_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	l := newListing("Asha", "a@x.com", base, base)
	require.NoError(t, repo.Create(ctx, l))

	replacement := newListing("Asha K", "a@x.com", time.Time{}, base.Add(time.Hour))
	replacement.ID = l.ID
	require.NoError(t, repo.Update(ctx, replacement))
	assert.Equal(t, base, replacement.CreatedAt)

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.OwnerName)
	assert.Equal(t, base, got.CreatedAt)
	assert.Equal(t, base.Add(time.Hour), got.UpdatedAt)
}

func TestListingRepository_FindLegacy(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	current := newListing("Asha", "a@x.com", base, base)
	legacy := newListing("Old", "a@x.com", base, base)
	legacy.BHK = ""
	legacy.SquareFeet = 0
	require.NoError(t, repo.Create(ctx, current))
	require.NoError(t, repo.Create(ctx, legacy))

	got, err := repo.FindLegacy(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, legacy.ID, got[0].ID)
}

func owners(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.OwnerName)
	}
	return out
}

// ============================================================================
// Feedback Tests
// ============================================================================

func newFeedback(propertyID, status string, created time.Time, photo *string) *domain.Feedback {
	return &domain.Feedback{
		ID:              domain.NewID(),
		PropertyID:      propertyID,
		PropertyTitle:   "Asha - 2 BHK",
		Feedback:        "Great location",
		Photo:           photo,
		PropertyDetails: map[string]any{"rent": 5000.0},
		Status:          status,
		CreatedAt:       created,
	}
}

func TestFeedbackRepository_ListByProperty(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository()
	first := newFeedback("p1", domain.FeedbackStatusPending, base, nil)
	second := newFeedback("p1", domain.FeedbackStatusPending, base.Add(time.Minute), nil)
	other := newFeedback("p2", domain.FeedbackStatusPending, base.Add(2*time.Minute), nil)
	for _, f := range []*domain.Feedback{first, second, other} {
		require.NoError(t, repo.Create(ctx, f))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)

	p1, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, second.ID, p1[0].ID)
	assert.Equal(t, first.ID, p1[1].ID)
}

func TestFeedbackRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository()
	f := newFeedback("p1", domain.FeedbackStatusPending, base, nil)
	require.NoError(t, repo.Create(ctx, f))

	f.Status = domain.FeedbackStatusResolved
	f.PropertyTitle = "ignored"
	require.NoError(t, repo.Update(ctx, f))

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusResolved, got.Status)
	assert.Equal(t, "Asha - 2 BHK", got.PropertyTitle)

	require.NoError(t, repo.Delete(ctx, f.ID))
	_, err = repo.GetByID(ctx, f.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, f.ID), apperrors.ErrNotFound))
}

func TestFeedbackRepository_Count(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository()
	photo := "data:image/png;base64,AAA"
	require.NoError(t, repo.Create(ctx, newFeedback("p1", domain.FeedbackStatusPending, base.Add(-48*time.Hour), &photo)))
	require.NoError(t, repo.Create(ctx, newFeedback("p1", domain.FeedbackStatusReviewed, base, nil)))
	require.NoError(t, repo.Create(ctx, newFeedback("p2", domain.FeedbackStatusPending, base.Add(time.Hour), &photo)))

	count := func(f repository.FeedbackFilter) int64 {
		n, err := repo.Count(ctx, f)
		require.NoError(t, err)
		return n
	}
	since := base
	assert.Equal(t, int64(3), count(repository.FeedbackFilter{}))
	assert.Equal(t, int64(2), count(repository.FeedbackFilter{Status: domain.FeedbackStatusPending}))
	assert.Equal(t, int64(2), count(repository.FeedbackFilter{CreatedSince: &since}))
	assert.Equal(t, int64(2), count(repository.FeedbackFilter{HasPhoto: true}))
}
