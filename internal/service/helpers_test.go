package service

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
)

// --- Mock Events ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishListingCreated(ctx context.Context, l *domain.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockEvents) PublishListingUpdated(ctx context.Context, l *domain.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockEvents) PublishListingDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEvents) PublishFeedbackSubmitted(ctx context.Context, f *domain.Feedback) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockEvents) PublishFeedbackUpdated(ctx context.Context, f *domain.Feedback) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockEvents) PublishFeedbackDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// quietEvents accepts every publish call.
func quietEvents() *mockEvents {
	m := &mockEvents{}
	for _, method := range []string{
		"PublishListingCreated", "PublishListingUpdated", "PublishListingDeleted",
		"PublishFeedbackSubmitted", "PublishFeedbackUpdated", "PublishFeedbackDeleted",
	} {
		m.On(method, mock.Anything, mock.Anything).Maybe().Return(nil)
	}
	return m
}

// --- Failing stores ---

var errStoreDown = errors.New("connection refused")

type failingListingRepo struct{ repository.ListingRepository }

func (failingListingRepo) Create(context.Context, *domain.Listing) error { return errStoreDown }
func (failingListingRepo) List(context.Context, repository.ListingFilter) ([]domain.Listing, error) {
	return nil, errStoreDown
}

type failingFeedbackRepo struct{ repository.FeedbackRepository }

func (failingFeedbackRepo) Count(context.Context, repository.FeedbackFilter) (int64, error) {
	return 0, errStoreDown
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
