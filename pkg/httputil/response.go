package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/validator"
)

// Payload holds the response fields that sit next to "success" and "message"
// in the envelope, e.g. {"property": ...} or {"count": 2, "feedbacks": [...]}.
type Payload map[string]any

// ErrorResponse is the envelope written for every failed request.
type ErrorResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Code      string   `json:"code,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Error     string   `json:"error,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code. The body is encoded
// before the header is sent, so a value that cannot be encoded produces a 500
// error envelope instead of an empty success.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{
			Message: "Server error",
			Code:    "INTERNAL_ERROR",
			Error:   fmt.Sprintf("encode response: %v", err),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// WriteSuccess writes {"success": true, "message"?: message, ...payload}.
// An empty message is omitted.
func WriteSuccess(w http.ResponseWriter, status int, message string, payload Payload) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	WriteJSON(w, status, body)
}

// WriteError writes a standardized error response based on the error type.
// AppErrors keep their status, code and details; anything else is reported as
// a 500 with the underlying message in "error". It prefers the request-scoped
// logger from context (set by the RequestLogger middleware) over the fallback
// logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	resp := ErrorResponse{
		Success:   false,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}

	var valErr *validator.ValidationError
	var appErr *apperrors.AppError
	status := apperrors.HTTPStatus(err)

	switch {
	case errors.As(err, &appErr):
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		resp.Errors = appErr.Details
		if appErr.Status == http.StatusInternalServerError && appErr.Err != nil {
			resp.Error = appErr.Err.Error()
		}
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		resp.Code = "VALIDATION_ERROR"
		resp.Message = "Validation failed"
		resp.Errors = valErr.Messages(nil)
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code = "NOT_FOUND"
		resp.Message = "Resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Code = "INVALID_INPUT"
		resp.Message = err.Error()
	default:
		status = http.StatusInternalServerError
		resp.Code = "INTERNAL_ERROR"
		resp.Message = "Server error"
		resp.Error = err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, resp)
}

// DecodeJSON decodes the request body into dst, rejecting bodies larger than
// maxBytes. A non-positive maxBytes disables the limit.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperrors.InvalidInput("Request body is required")
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apperrors.AppError{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
				Status:  http.StatusRequestEntityTooLarge,
				Err:     apperrors.ErrInvalidInput,
			}
		}
		return apperrors.InvalidInput("Invalid JSON body")
	}
	return nil
}
