package domain

import (
	"fmt"
	"time"
)

// Feedback status constants.
const (
	FeedbackStatusPending  = "pending"
	FeedbackStatusReviewed = "reviewed"
	FeedbackStatusResolved = "resolved"
)

// MinFeedbackLength is the shortest accepted feedback text after trimming.
const MinFeedbackLength = 5

// Feedback is tenant commentary about a listing. PropertyID is a plain
// reference; the listing may no longer exist.
type Feedback struct {
	ID              string         `json:"_id"`
	PropertyID      string         `json:"propertyId" validate:"required"`
	PropertyTitle   string         `json:"propertyTitle" validate:"required"`
	Feedback        string         `json:"feedback" validate:"required,min=5"`
	Photo           *string        `json:"photo"`
	PropertyDetails map[string]any `json:"propertyDetails"`
	Status          string         `json:"status" validate:"feedbackstatus"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// HasPhoto reports whether a photo is attached.
func (f *Feedback) HasPhoto() bool {
	return f.Photo != nil
}

// FeedbackStats holds the aggregate counts shown on the admin dashboard.
type FeedbackStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Reviewed   int64 `json:"reviewed"`
	Resolved   int64 `json:"resolved"`
	Today      int64 `json:"today"`
	WithPhotos int64 `json:"withPhotos"`
}

// ValidFeedbackStatuses returns the feedback workflow states.
func ValidFeedbackStatuses() []string {
	return []string{FeedbackStatusPending, FeedbackStatusReviewed, FeedbackStatusResolved}
}

// IsValidFeedbackStatus checks whether status is one of the workflow states.
func IsValidFeedbackStatus(status string) bool {
	return contains(ValidFeedbackStatuses(), status)
}

var feedbackMessages = map[string]string{
	"propertyId.required":    "Property ID is required",
	"propertyTitle.required": "Property title is required",
	"feedback.required":      "Feedback text is required",
	"feedback.min":           "Feedback must be at least 5 characters long",
}

// ValidateFeedback checks the stored-record rules and returns one message per
// failing field, or nil when the feedback is valid.
func ValidateFeedback(f *Feedback) []string {
	return messagesFor(f, func(field, tag string) (string, bool) {
		if field == "status" {
			return fmt.Sprintf("`%s` is not a valid enum value for path `status`.", f.Status), true
		}
		msg, ok := feedbackMessages[field+"."+tag]
		return msg, ok
	})
}
