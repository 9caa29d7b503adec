package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/memory"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

func newTestFeedbackService() *FeedbackService {
	return NewFeedbackService(memory.NewFeedbackRepository(), quietEvents(), newTestLogger())
}

func validFeedbackInput() *FeedbackInput {
	return &FeedbackInput{
		PropertyID:    domain.NewID(),
		PropertyTitle: "2 BHK in Indiranagar",
		Feedback:      "Water supply is irregular",
		PropertyDetails: map[string]any{
			"ownerName": "Asha",
			"rent":      5000.0,
		},
	}
}

func strPtr(s string) *string { return &s }

// ============================================================================
// SubmitFeedback
// ============================================================================

func TestSubmitFeedback_Success(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	in := validFeedbackInput()
	in.PropertyTitle = "  2 BHK in Indiranagar  "
	in.Feedback = "  Water supply is irregular  "
	in.Photo = strPtr("data:image/png;base64,AAA")

	f, err := svc.SubmitFeedback(ctx, in)
	require.NoError(t, err)
	assert.True(t, domain.IsValidID(f.ID))
	assert.Equal(t, "2 BHK in Indiranagar", f.PropertyTitle)
	assert.Equal(t, "Water supply is irregular", f.Feedback)
	assert.Equal(t, domain.FeedbackStatusPending, f.Status)
	assert.True(t, f.HasPhoto())
	assert.Equal(t, "Asha", f.PropertyDetails["ownerName"])

	got, err := svc.GetFeedback(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestSubmitFeedback_EmptyPhotoAndDetails(t *testing.T) {
	svc := newTestFeedbackService()
	in := validFeedbackInput()
	in.Photo = strPtr("")
	in.PropertyDetails = nil

	f, err := svc.SubmitFeedback(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, f.Photo)
	assert.NotNil(t, f.PropertyDetails)
	assert.Empty(t, f.PropertyDetails)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FeedbackInput)
		message string
	}{
		{"missing property id", func(in *FeedbackInput) { in.PropertyID = " " }, "Property ID is required"},
		{"missing title", func(in *FeedbackInput) { in.PropertyTitle = "" }, "Property title is required"},
		{"empty feedback", func(in *FeedbackInput) { in.Feedback = "" }, "Feedback must be at least 5 characters long"},
		{"four characters", func(in *FeedbackInput) { in.Feedback = "abcd" }, "Feedback must be at least 5 characters long"},
		{"short after trim", func(in *FeedbackInput) { in.Feedback = "   ab   " }, "Feedback must be at least 5 characters long"},
		{"four runes", func(in *FeedbackInput) { in.Feedback = "घरघर" }, "Feedback must be at least 5 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestFeedbackService()
			in := validFeedbackInput()
			tt.mutate(in)

			_, err := svc.SubmitFeedback(context.Background(), in)
			requireAppError(t, err, "VALIDATION_ERROR", tt.message)

			all, err := svc.ListFeedback(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSubmitFeedback_FiveCharactersAccepted(t *testing.T) {
	svc := newTestFeedbackService()
	in := validFeedbackInput()
	in.Feedback = "abcde"

	f, err := svc.SubmitFeedback(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "abcde", f.Feedback)
}

func TestSubmitFeedback_EventFailureDoesNotFailRequest(t *testing.T) {
	events := &mockEvents{}
	events.On("PublishFeedbackSubmitted", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	svc := NewFeedbackService(memory.NewFeedbackRepository(), events, newTestLogger())

	f, err := svc.SubmitFeedback(context.Background(), validFeedbackInput())
	require.NoError(t, err)

	_, err = svc.GetFeedback(context.Background(), f.ID)
	assert.NoError(t, err)
	events.AssertExpectations(t)
}

// ============================================================================
// Listing
// ============================================================================

func TestListFeedback_NewestFirstAndByProperty(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	propertyID := domain.NewID()

	var ids []string
	for i := 0; i < 3; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		in := validFeedbackInput()
		if i != 1 {
			in.PropertyID = propertyID
		}
		f, err := svc.SubmitFeedback(ctx, in)
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	all, err := svc.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})

	forProperty, err := svc.ListByProperty(ctx, propertyID)
	require.NoError(t, err)
	require.Len(t, forProperty, 2)
	assert.Equal(t, ids[2], forProperty[0].ID)
	assert.Equal(t, ids[0], forProperty[1].ID)

	none, err := svc.ListByProperty(ctx, domain.NewID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ============================================================================
// UpdateStatus / UpdateFeedback
// ============================================================================

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	f, err := svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	for _, status := range []string{"archived", "", "Resolved"} {
		_, err = svc.UpdateStatus(ctx, f.ID, status)
		requireAppError(t, err, "INVALID_STATUS", "Invalid status. Must be: pending, reviewed, or resolved")
		assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	}

	got, err := svc.GetFeedback(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, got.Status)
}

func TestUpdateStatus_Persists(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	f, err := svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, f.ID, domain.FeedbackStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusResolved, updated.Status)

	got, err := svc.GetFeedback(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusResolved, got.Status)

	// Transitions are unconstrained.
	updated, err = svc.UpdateStatus(ctx, f.ID, domain.FeedbackStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, updated.Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := newTestFeedbackService()

	_, err := svc.UpdateStatus(context.Background(), domain.NewID(), domain.FeedbackStatusReviewed)
	requireAppError(t, err, "NOT_FOUND", "Feedback not found")
}

func TestUpdateFeedback_Partial(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	in := validFeedbackInput()
	in.Photo = strPtr("data:image/png;base64,AAA")
	f, err := svc.SubmitFeedback(ctx, in)
	require.NoError(t, err)

	updated, err := svc.UpdateFeedback(ctx, f.ID, &FeedbackUpdate{Feedback: strPtr("  Fixed the tap, thanks  ")})
	require.NoError(t, err)
	assert.Equal(t, "Fixed the tap, thanks", updated.Feedback)
	assert.True(t, updated.HasPhoto())
	assert.Equal(t, domain.FeedbackStatusPending, updated.Status)

	updated, err = svc.UpdateFeedback(ctx, f.ID, &FeedbackUpdate{Photo: domain.OptionalString{Set: true}})
	require.NoError(t, err)
	assert.False(t, updated.HasPhoto())
	assert.Equal(t, "Fixed the tap, thanks", updated.Feedback)

	got, err := svc.GetFeedback(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Photo)
	assert.Equal(t, f.PropertyTitle, got.PropertyTitle)
	assert.Equal(t, f.CreatedAt, got.CreatedAt)
}

func TestUpdateFeedback_Invalid(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	f, err := svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	_, err = svc.UpdateFeedback(ctx, f.ID, &FeedbackUpdate{Feedback: strPtr("bad")})
	appErr := requireAppError(t, err, "VALIDATION_ERROR", "Validation error")
	assert.Equal(t, []string{"Feedback must be at least 5 characters long"}, appErr.Details)

	_, err = svc.UpdateFeedback(ctx, f.ID, &FeedbackUpdate{Status: strPtr("archived")})
	appErr = requireAppError(t, err, "VALIDATION_ERROR", "Validation error")
	assert.Equal(t, []string{"`archived` is not a valid enum value for path `status`."}, appErr.Details)

	got, err := svc.GetFeedback(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

// ============================================================================
// DeleteFeedback
// ============================================================================

func TestDeleteFeedback(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	f, err := svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFeedback(ctx, f.ID))

	_, err = svc.GetFeedback(ctx, f.ID)
	requireAppError(t, err, "NOT_FOUND", "Feedback not found")

	err = svc.DeleteFeedback(ctx, f.ID)
	requireAppError(t, err, "NOT_FOUND", "Feedback not found")
}

// ============================================================================
// Stats
// ============================================================================

func TestStats_Counts(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()

	statuses := []string{
		domain.FeedbackStatusPending,
		domain.FeedbackStatusPending,
		domain.FeedbackStatusPending,
		domain.FeedbackStatusReviewed,
		domain.FeedbackStatusResolved,
		domain.FeedbackStatusResolved,
	}
	for i, status := range statuses {
		in := validFeedbackInput()
		if i%2 == 0 {
			in.Photo = strPtr("data:image/png;base64,AAA")
		}
		f, err := svc.SubmitFeedback(ctx, in)
		require.NoError(t, err)
		if status != domain.FeedbackStatusPending {
			_, err = svc.UpdateStatus(ctx, f.ID, status)
			require.NoError(t, err)
		}
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.FeedbackStats{
		Total:      6,
		Pending:    3,
		Reviewed:   1,
		Resolved:   2,
		Today:      6,
		WithPhotos: 3,
	}, stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.Reviewed+stats.Resolved)
}

func TestStats_Empty(t *testing.T) {
	svc := newTestFeedbackService()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.FeedbackStats{}, stats)
}

func TestStats_TodayStartsAtLocalMidnight(t *testing.T) {
	svc := newTestFeedbackService()
	ctx := context.Background()
	ist := time.FixedZone("IST", 5*3600+1800)
	svc.loc = ist

	// 23:50 and 00:10 IST on consecutive days.
	yesterday := time.Date(2026, 3, 1, 23, 50, 0, 0, ist)
	today := time.Date(2026, 3, 2, 0, 10, 0, 0, ist)

	svc.now = func() time.Time { return yesterday }
	_, err := svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return today }
	_, err = svc.SubmitFeedback(ctx, validFeedbackInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return today.Add(8 * time.Hour) }
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Today)

	// In UTC both entries fall on 1 March.
	svc.loc = time.UTC
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Today)
}

func TestStats_StoreError(t *testing.T) {
	svc := NewFeedbackService(failingFeedbackRepo{}, quietEvents(), newTestLogger())

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}
