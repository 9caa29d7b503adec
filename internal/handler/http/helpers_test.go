package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/event"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/memory"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/health"
)

// --- Failing stores ---

var errStoreDown = errors.New("connection refused")

type failingListingRepo struct{ repository.ListingRepository }

func (failingListingRepo) List(context.Context, repository.ListingFilter) ([]domain.Listing, error) {
	return nil, errStoreDown
}

type failingFeedbackRepo struct{ repository.FeedbackRepository }

func (failingFeedbackRepo) List(context.Context, string) ([]domain.Feedback, error) {
	return nil, errStoreDown
}

func (failingFeedbackRepo) Count(context.Context, repository.FeedbackFilter) (int64, error) {
	return 0, errStoreDown
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:  "house-rental-api",
		Environment:  "test",
		StoreDriver:  "memory",
		MaxBodyBytes: 1 << 20,
	}
}

func newRouterWith(listings repository.ListingRepository, feedback repository.FeedbackRepository, storeCheck health.Checker) http.Handler {
	logger := testLogger()
	listingService := service.NewListingService(listings, event.Noop{}, logger)
	feedbackService := service.NewFeedbackService(feedback, event.Noop{}, logger)
	return NewRouter(listingService, feedbackService, health.NewHandler(), storeCheck, testRouterConfig(), logger)
}

func newTestRouter() http.Handler {
	return newRouterWith(memory.NewListingRepository(), memory.NewFeedbackRepository(), nil)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeInto[T any](t *testing.T, raw any) T {
	t.Helper()
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

const ashaListingJSON = `{
	"ownerName": "Asha",
	"rent": 5000,
	"advance": 10000,
	"type": "Rent",
	"bhk": "2 BHK",
	"squareFeet": 650,
	"phoneNumber": "9876543210",
	"photos": ["data:image/png;base64,AAA"],
	"adminEmail": "A@X.com"
}`

// createListing posts body to the add endpoint and returns the stored listing.
func createListing(t *testing.T, h http.Handler, body string) domain.Listing {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/properties/add", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeInto[domain.Listing](t, decodeBody(t, rec)["property"])
}

// submitFeedback posts body to the feedback endpoint and returns the stored entry.
func submitFeedback(t *testing.T, h http.Handler, body string) domain.Feedback {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/feedback", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeInto[domain.Feedback](t, decodeBody(t, rec)["feedback"])
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeArray(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	var body []any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
