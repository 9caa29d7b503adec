package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/httputil"
)

// FeedbackHandler handles HTTP requests for feedback endpoints.
type FeedbackHandler struct {
	service      *service.FeedbackService
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewFeedbackHandler creates a new feedback HTTP handler.
func NewFeedbackHandler(svc *service.FeedbackService, maxBodyBytes int64, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service:      svc,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// UpdateStatusRequest is the JSON request body for PUT /api/feedback/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// SubmitFeedback handles POST /api/feedback.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in service.FeedbackInput
	if err := httputil.DecodeJSON(w, r, &in, h.maxBodyBytes); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	f, err := h.service.SubmitFeedback(r.Context(), &in)
	if err != nil {
		writeFailure(w, r, err, "Server error while submitting feedback", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Feedback submitted successfully!", httputil.Payload{
		"feedback":   f,
		"feedbackId": f.ID,
	})
}

// ListFeedback handles GET /api/feedback.
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	feedbacks, err := h.service.ListFeedback(r.Context())
	if err != nil {
		writeFailure(w, r, err, "Error fetching feedbacks", h.logger)
		return
	}
	writeFeedbacks(w, feedbacks)
}

// ListByProperty handles GET /api/feedback/property/{propertyId}.
func (h *FeedbackHandler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")

	feedbacks, err := h.service.ListByProperty(r.Context(), propertyID)
	if err != nil {
		writeFailure(w, r, err, "Error fetching property feedback", h.logger)
		return
	}
	writeFeedbacks(w, feedbacks)
}

// Stats handles GET /api/feedback/stats.
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, err, "Error fetching feedback statistics", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Payload{"stats": stats})
}

// GetFeedback handles GET /api/feedback/{id}.
func (h *FeedbackHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := h.service.GetFeedback(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "Error fetching feedback", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Payload{"feedback": f})
}

// UpdateFeedback handles PUT /api/feedback/{id}.
func (h *FeedbackHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd service.FeedbackUpdate
	if err := httputil.DecodeJSON(w, r, &upd, h.maxBodyBytes); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	f, err := h.service.UpdateFeedback(r.Context(), id, &upd)
	if err != nil {
		writeFailure(w, r, err, "Error updating feedback", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Feedback updated successfully", httputil.Payload{"feedback": f})
}

// UpdateStatus handles PUT /api/feedback/{id}/status.
func (h *FeedbackHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	f, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeFailure(w, r, err, "Error updating feedback status", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Feedback marked as "+f.Status, httputil.Payload{"feedback": f})
}

// DeleteFeedback handles DELETE /api/feedback/{id}.
func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteFeedback(r.Context(), id); err != nil {
		writeFailure(w, r, err, "Error deleting feedback", h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Feedback deleted successfully", nil)
}

// Health handles GET /api/feedback/health.
func (h *FeedbackHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "Feedback API is working", httputil.Payload{
		"timestamp": time.Now().UTC(),
	})
}

func writeFeedbacks(w http.ResponseWriter, feedbacks []domain.Feedback) {
	if feedbacks == nil {
		feedbacks = []domain.Feedback{}
	}
	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Payload{
		"count":     len(feedbacks),
		"feedbacks": feedbacks,
	})
}
