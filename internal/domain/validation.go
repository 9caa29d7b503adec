package domain

import (
	"errors"
	"strings"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/validator"
)

func init() {
	validator.RegisterValidation("listingtype", IsValidListingType)
	validator.RegisterValidation("bhk", IsValidBHK)
	validator.RegisterValidation("phone", IsValidPhone)
	validator.RegisterValidation("looseemail", IsValidEmail)
	validator.RegisterValidation("feedbackstatus", IsValidFeedbackStatus)
}

func lookup(messages map[string]string) func(field, tag string) (string, bool) {
	return func(field, tag string) (string, bool) {
		msg, ok := messages[field+"."+tag]
		return msg, ok
	}
}

// messagesFor runs the struct validator over v and renders each failure with
// custom, falling back to the generic wording. Slice element fields such as
// "photos[2]" are reported under their slice name, once.
func messagesFor(v any, custom func(field, tag string) (string, bool)) []string {
	err := validator.Validate(v)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	msgs := valErr.Messages(func(field, tag string) (string, bool) {
		if i := strings.IndexByte(field, '['); i > 0 {
			field = field[:i]
		}
		return custom(field, tag)
	})
	out := msgs[:0]
	for _, m := range msgs {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
