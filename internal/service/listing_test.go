package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/memory"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

func newTestListingService() (*ListingService, *memory.ListingRepository) {
	repo := memory.NewListingRepository()
	return NewListingService(repo, quietEvents(), newTestLogger()), repo
}

// ashaInput is the add-listing scenario: a 2 BHK for rent owned by A@X.com.
func ashaInput() *ListingInput {
	return &ListingInput{
		OwnerName:   domain.ScalarText("Asha"),
		Rent:        domain.ScalarNumber(5000),
		Advance:     domain.ScalarNumber(10000),
		Type:        domain.ScalarText("Rent"),
		BHK:         domain.ScalarText("2 BHK"),
		SquareFeet:  domain.ScalarNumber(650),
		PhoneNumber: domain.ScalarText("9876543210"),
		Photos:      domain.PhotoList{"data:image/png;base64,AAA"},
		AdminEmail:  domain.ScalarText("A@X.com"),
	}
}

func requireAppError(t *testing.T, err error, code, message string) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
	return appErr
}

// ============================================================================
// AddListing
// ============================================================================

func TestAddListing_AshaScenario(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()

	l, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)

	assert.True(t, domain.IsValidID(l.ID))
	assert.Equal(t, "a@x.com", l.AdminEmail)
	assert.Equal(t, float64(650), l.SquareFeet)
	assert.Equal(t, float64(5000), l.Rent)
	assert.Equal(t, float64(10000), l.Advance)
	assert.False(t, l.CreatedAt.IsZero())
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)

	owned, err := svc.ListByOwner(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, *l, owned[0])
}

func TestAddListing_RoundTrip(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()

	inputs := []*ListingInput{ashaInput()}
	studio := ashaInput()
	studio.OwnerName = domain.ScalarText("  Ravi  ")
	studio.Rent = domain.ScalarText("7500.50")
	studio.Advance = domain.ScalarText("15000")
	studio.Type = domain.ScalarText("Lease")
	studio.BHK = domain.ScalarText("Studio")
	studio.SquareFeet = domain.ScalarText("100")
	studio.PhoneNumber = domain.ScalarNumber(9876543210)
	studio.Photos = domain.PhotoList{"http://example.com/a.png", "data:image/jpeg;base64,BBB", ""}
	inputs = append(inputs, studio)

	for _, in := range inputs {
		l, err := svc.AddListing(ctx, in)
		require.NoError(t, err)
		assert.Greater(t, l.Rent, 0.0)
		assert.Greater(t, l.Advance, 0.0)
		assert.GreaterOrEqual(t, l.SquareFeet, 100.0)
		assert.NotEmpty(t, l.Photos)

		got, err := svc.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
}

func TestAddListing_NormalisesFields(t *testing.T) {
	svc, _ := newTestListingService()
	in := ashaInput()
	in.OwnerName = domain.ScalarText("  Asha  ")
	in.PhoneNumber = domain.ScalarText(" 98765 43210 ")
	in.AdminEmail = domain.ScalarText("  Owner@Example.COM ")
	in.Photos = domain.PhotoList{"not-an-image", "data:image/png;base64,A", "data:image/gif;base64,B"}

	l, err := svc.AddListing(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Asha", l.OwnerName)
	assert.Equal(t, "98765 43210", l.PhoneNumber)
	assert.Equal(t, "owner@example.com", l.AdminEmail)
	assert.Equal(t, []string{"data:image/png;base64,A", "data:image/gif;base64,B"}, l.Photos)
}

func TestAddListing_MissingFieldsNamedExactly(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ListingInput)
		missing []string
	}{
		{"owner", func(in *ListingInput) { in.OwnerName = domain.Scalar{} }, []string{"ownerName"}},
		{"zero rent", func(in *ListingInput) { in.Rent = domain.ScalarNumber(0) }, []string{"rent"}},
		{"empty advance", func(in *ListingInput) { in.Advance = domain.ScalarText("") }, []string{"advance"}},
		{"type and bhk", func(in *ListingInput) {
			in.Type = domain.Scalar{}
			in.BHK = domain.Scalar{}
		}, []string{"type", "bhk"}},
		{"area phone email", func(in *ListingInput) {
			in.SquareFeet = domain.Scalar{}
			in.PhoneNumber = domain.ScalarText("")
			in.AdminEmail = domain.Scalar{}
		}, []string{"squareFeet", "phoneNumber", "adminEmail"}},
		{"everything", func(in *ListingInput) { *in = ListingInput{} }, []string{
			"ownerName", "rent", "advance", "type", "bhk", "squareFeet", "phoneNumber", "adminEmail",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestListingService()
			in := ashaInput()
			tt.mutate(in)

			_, err := svc.AddListing(context.Background(), in)
			appErr := requireAppError(t, err, "VALIDATION_ERROR", "Missing required fields: "+strings.Join(tt.missing, ", "))
			assert.Equal(t, tt.missing, appErr.Details)
			assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

			all, _ := repo.List(context.Background(), repository.ListingFilter{})
			assert.Empty(t, all)
		})
	}
}

func TestAddListing_NoValidImages(t *testing.T) {
	for _, photos := range []domain.PhotoList{
		nil,
		{},
		{"http://example.com/a.jpg"},
		{"image/png;base64,AAA", "DATA:IMAGE/png;base64,AAA", ""},
	} {
		svc, _ := newTestListingService()
		in := ashaInput()
		in.Photos = photos

		_, err := svc.AddListing(context.Background(), in)
		requireAppError(t, err, "VALIDATION_ERROR", "At least one valid image is required")
	}
}

func TestAddListing_NumericRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ListingInput)
		message string
	}{
		{"rent not a number", func(in *ListingInput) { in.Rent = domain.ScalarText("abc") }, "Rent must be a positive number"},
		{"rent string zero", func(in *ListingInput) { in.Rent = domain.ScalarText("0") }, "Rent must be a positive number"},
		{"rent negative", func(in *ListingInput) { in.Rent = domain.ScalarNumber(-100) }, "Rent must be a positive number"},
		{"advance negative", func(in *ListingInput) { in.Advance = domain.ScalarText("-1") }, "Advance must be a positive number"},
		{"area too small", func(in *ListingInput) { in.SquareFeet = domain.ScalarNumber(99.5) }, "Square feet must be at least 100"},
		{"area not a number", func(in *ListingInput) { in.SquareFeet = domain.ScalarText("big") }, "Square feet must be at least 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestListingService()
			in := ashaInput()
			tt.mutate(in)
			_, err := svc.AddListing(context.Background(), in)
			requireAppError(t, err, "VALIDATION_ERROR", tt.message)
		})
	}
}

func TestAddListing_NonFiniteNumbersRejected(t *testing.T) {
	fields := []struct {
		name    string
		set     func(*ListingInput, domain.Scalar)
		message string
	}{
		{"rent", func(in *ListingInput, v domain.Scalar) { in.Rent = v }, "Rent must be a positive number"},
		{"advance", func(in *ListingInput, v domain.Scalar) { in.Advance = v }, "Advance must be a positive number"},
		{"squareFeet", func(in *ListingInput, v domain.Scalar) { in.SquareFeet = v }, "Square feet must be at least 100"},
	}
	for _, f := range fields {
		for _, text := range []string{"Infinity", "-Infinity", "1e999"} {
			t.Run(f.name+" "+text, func(t *testing.T) {
				svc, repo := newTestListingService()
				in := ashaInput()
				f.set(in, domain.ScalarText(text))

				_, err := svc.AddListing(context.Background(), in)
				requireAppError(t, err, "VALIDATION_ERROR", f.message)

				stored, err := repo.List(context.Background(), repository.ListingFilter{})
				require.NoError(t, err)
				assert.Empty(t, stored)
			})
		}
	}
}

func TestAddListing_LeadingNumberIsAccepted(t *testing.T) {
	svc, _ := newTestListingService()
	in := ashaInput()
	in.SquareFeet = domain.ScalarText("1200 sqft")

	l, err := svc.AddListing(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, float64(1200), l.SquareFeet)
}

func TestAddListing_SchemaValidation(t *testing.T) {
	svc, _ := newTestListingService()
	in := ashaInput()
	in.Type = domain.ScalarText("Sale")
	in.BHK = domain.ScalarText("9 BHK")
	in.PhoneNumber = domain.ScalarText("12345")
	in.AdminEmail = domain.ScalarText("not-an-email")

	_, err := svc.AddListing(context.Background(), in)
	appErr := requireAppError(t, err, "VALIDATION_ERROR", "Validation error")
	assert.Equal(t, []string{
		"Type must be either Lease or Rent",
		"Please select a valid BHK type",
		"Please enter a valid phone number",
		"Please enter a valid email",
	}, appErr.Details)
}

func TestAddListing_BlankOwnerAfterTrim(t *testing.T) {
	svc, _ := newTestListingService()
	in := ashaInput()
	in.OwnerName = domain.ScalarText("   ")

	_, err := svc.AddListing(context.Background(), in)
	appErr := requireAppError(t, err, "VALIDATION_ERROR", "Validation error")
	assert.Equal(t, []string{"Owner name is required"}, appErr.Details)
}

func TestAddListing_PublishesEvent(t *testing.T) {
	events := &mockEvents{}
	events.On("PublishListingCreated", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil).Once()
	svc := NewListingService(memory.NewListingRepository(), events, newTestLogger())

	_, err := svc.AddListing(context.Background(), ashaInput())
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestAddListing_EventFailureDoesNotFailRequest(t *testing.T) {
	events := &mockEvents{}
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	repo := memory.NewListingRepository()
	svc := NewListingService(repo, events, newTestLogger())

	l, err := svc.AddListing(context.Background(), ashaInput())
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), l.ID)
	assert.NoError(t, err)
}

func TestAddListing_StoreErrorIsInternal(t *testing.T) {
	svc := NewListingService(failingListingRepo{}, quietEvents(), newTestLogger())

	_, err := svc.AddListing(context.Background(), ashaInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

// ============================================================================
// UpdateListing
// ============================================================================

func TestUpdateListing_ReplacesAllFields(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	l, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return created.Add(time.Hour) }
	in := ashaInput()
	in.OwnerName = domain.ScalarText("Asha Kumar")
	in.Rent = domain.ScalarText("6000")
	in.Type = domain.ScalarText("Lease")
	in.Photos = domain.PhotoList{"data:image/webp;base64,NEW"}

	updated, err := svc.UpdateListing(ctx, l.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Asha Kumar", updated.OwnerName)
	assert.Equal(t, 6000.0, updated.Rent)
	assert.Equal(t, "Lease", updated.Type)
	assert.Equal(t, []string{"data:image/webp;base64,NEW"}, updated.Photos)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), updated.UpdatedAt)

	got, err := svc.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdateListing_NotFound(t *testing.T) {
	svc, _ := newTestListingService()

	_, err := svc.UpdateListing(context.Background(), domain.NewID(), ashaInput())
	requireAppError(t, err, "NOT_FOUND", "Property not found")
}

func TestUpdateListing_ValidatesBeforeLookup(t *testing.T) {
	svc, _ := newTestListingService()
	in := ashaInput()
	in.Rent = domain.Scalar{}

	_, err := svc.UpdateListing(context.Background(), domain.NewID(), in)
	requireAppError(t, err, "VALIDATION_ERROR", "Missing required fields: rent")
}

// ============================================================================
// Delete / Get
// ============================================================================

func TestDeleteListing_NonexistentThenGet(t *testing.T) {
	svc, _ := newTestListingService()
	id := domain.NewID()

	err := svc.DeleteListing(context.Background(), id)
	requireAppError(t, err, "NOT_FOUND", "Property not found")

	_, err = svc.GetListing(context.Background(), id)
	requireAppError(t, err, "NOT_FOUND", "Property not found")
}

func TestDeleteListing_Existing(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()
	l, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteListing(ctx, l.ID))
	_, err = svc.GetListing(ctx, l.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestGetListing_InvalidID(t *testing.T) {
	svc, _ := newTestListingService()

	for _, id := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "507f1f77bcf86cd7994390111"} {
		_, err := svc.GetListing(context.Background(), id)
		requireAppError(t, err, "INVALID_ID", "Invalid property ID")
	}
}

// ============================================================================
// Listing queries
// ============================================================================

func TestListListings_NewestFirst(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		l, err := svc.AddListing(ctx, ashaInput())
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	all, err := svc.ListListings(ctx, repository.ListingFilter{Sort: repository.SortRecentlyUpdated})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestListListings_Filters(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()
	_, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)
	lease := ashaInput()
	lease.Type = domain.ScalarText("Lease")
	lease.OwnerName = domain.ScalarText("Meena")
	_, err = svc.AddListing(ctx, lease)
	require.NoError(t, err)

	got, err := svc.ListListings(ctx, repository.ListingFilter{Type: "Lease"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Meena", got[0].OwnerName)

	got, err = svc.ListListings(ctx, repository.ListingFilter{AdminEmail: " A@x.COM "})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListByOwner_OrderAndNormalisation(t *testing.T) {
	svc, _ := newTestListingService()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return base }
	first, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)
	svc.now = func() time.Time { return base.Add(time.Hour) }
	second, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)
	other := ashaInput()
	other.AdminEmail = domain.ScalarText("b@y.com")
	_, err = svc.AddListing(ctx, other)
	require.NoError(t, err)

	// Touching the older listing moves it to the front.
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = svc.UpdateListing(ctx, first.ID, ashaInput())
	require.NoError(t, err)

	owned, err := svc.ListByOwner(ctx, "  A@X.COM ")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, first.ID, owned[0].ID)
	assert.Equal(t, second.ID, owned[1].ID)

	none, err := svc.ListByOwner(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListListings_StoreError(t *testing.T) {
	svc := NewListingService(failingListingRepo{}, quietEvents(), newTestLogger())
	_, err := svc.ListListings(context.Background(), repository.ListingFilter{})
	assert.True(t, errors.Is(err, errStoreDown))
}

// ============================================================================
// BackfillLegacy
// ============================================================================

func TestBackfillLegacy_Idempotent(t *testing.T) {
	svc, repo := newTestListingService()
	ctx := context.Background()

	current, err := svc.AddListing(ctx, ashaInput())
	require.NoError(t, err)

	legacyIDs := []string{domain.NewID(), domain.NewID()}
	noBHK := &domain.Listing{ID: legacyIDs[0], OwnerName: "Old", Rent: 3000, Advance: 1000, Type: "Rent", SquareFeet: 800,
		PhoneNumber: "9876543210", Photos: []string{"data:image/png;base64,A"}, AdminEmail: "old@x.com"}
	noArea := &domain.Listing{ID: legacyIDs[1], OwnerName: "Older", Rent: 3000, Advance: 1000, Type: "Lease", BHK: "3 BHK",
		PhoneNumber: "9876543210", Photos: []string{"data:image/png;base64,A"}, AdminEmail: "old@x.com"}
	require.NoError(t, repo.Create(ctx, noBHK))
	require.NoError(t, repo.Create(ctx, noArea))

	n, err := svc.BackfillLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetByID(ctx, legacyIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "1 BHK", got.BHK)
	assert.Equal(t, 800.0, got.SquareFeet)

	got, err = repo.GetByID(ctx, legacyIDs[1])
	require.NoError(t, err)
	assert.Equal(t, "3 BHK", got.BHK)
	assert.Equal(t, 1000.0, got.SquareFeet)

	untouched, err := repo.GetByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, current, untouched)

	n, err = svc.BackfillLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
