package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/httputil"
)

// ListingHandler handles HTTP requests for property endpoints.
type ListingHandler struct {
	service      *service.ListingService
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewListingHandler creates a new listing HTTP handler.
func NewListingHandler(svc *service.ListingService, maxBodyBytes int64, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		service:      svc,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Home handles GET /api/properties. It answers with a bare JSON array for
// the home page, optionally narrowed by the filter panel's query parameters.
func (h *ListingHandler) Home(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListingFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	listings, err := h.service.ListListings(r.Context(), filter)
	if err != nil {
		writeFailure(w, r, err, "Failed to fetch properties for home page", h.logger)
		return
	}
	if listings == nil {
		listings = []domain.Listing{}
	}

	httputil.WriteJSON(w, http.StatusOK, listings)
}

// ListAll handles GET /api/properties/all.
func (h *ListingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListListings(r.Context(), repository.ListingFilter{})
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}
	writeListings(w, listings)
}

// ListByOwner handles GET /api/properties/my-creations/{email}.
func (h *ListingHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	listings, err := h.service.ListByOwner(r.Context(), email)
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	h.logger.DebugContext(r.Context(), "owner listings fetched",
		slog.String("admin_email", service.NormalizeEmail(email)),
		slog.Int("count", len(listings)),
	)
	writeListings(w, listings)
}

// GetListing handles GET /api/properties/{id}.
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Payload{"property": listing})
}

// AddListing handles POST /api/properties/add.
func (h *ListingHandler) AddListing(w http.ResponseWriter, r *http.Request) {
	var in service.ListingInput
	if err := httputil.DecodeJSON(w, r, &in, h.maxBodyBytes); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	listing, err := h.service.AddListing(r.Context(), &in)
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Property added successfully!", httputil.Payload{
		"property":   listing,
		"propertyId": listing.ID,
	})
}

// UpdateListing handles PUT /api/properties/update/{id}.
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in service.ListingInput
	if err := httputil.DecodeJSON(w, r, &in, h.maxBodyBytes); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), id, &in)
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Property updated successfully", httputil.Payload{"property": listing})
}

// DeleteListing handles DELETE /api/properties/delete/{id}.
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteListing(r.Context(), id); err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Property deleted successfully", nil)
}

// FixOldProperties handles GET|POST /api/properties/fix-old-properties.
func (h *ListingHandler) FixOldProperties(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.BackfillLegacy(r.Context())
	if err != nil {
		writeFailure(w, r, err, "", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK,
		fmt.Sprintf("Updated %d old properties with default values", count),
		httputil.Payload{"count": count},
	)
}

// Health handles GET /api/properties/health.
func (h *ListingHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "Property API is working", httputil.Payload{
		"timestamp": time.Now().UTC(),
	})
}

func writeListings(w http.ResponseWriter, listings []domain.Listing) {
	if listings == nil {
		listings = []domain.Listing{}
	}
	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Payload{
		"count":      len(listings),
		"properties": listings,
	})
}

// parseListingFilter reads the home page filter parameters. Empty values are
// ignored; "All" for type or bhk means no restriction.
func parseListingFilter(r *http.Request) (repository.ListingFilter, error) {
	q := r.URL.Query()
	filter := repository.ListingFilter{
		Query: strings.TrimSpace(q.Get("q")),
		Type:  q.Get("type"),
		BHK:   q.Get("bhk"),
	}
	if strings.EqualFold(filter.Type, "all") {
		filter.Type = ""
	}
	if strings.EqualFold(filter.BHK, "all") {
		filter.BHK = ""
	}

	bounds := []struct {
		name string
		dst  **float64
	}{
		{"minRent", &filter.MinRent},
		{"maxRent", &filter.MaxRent},
		{"minSqft", &filter.MinSqft},
		{"maxSqft", &filter.MaxSqft},
	}
	for _, b := range bounds {
		v := strings.TrimSpace(q.Get(b.name))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, apperrors.InvalidInput(b.name + " must be a number")
		}
		*b.dst = &f
	}
	return filter, nil
}
