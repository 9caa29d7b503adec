package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

type feedbackEntry struct {
	feedback domain.Feedback
	seq      uint64
}

// FeedbackRepository is an in-memory implementation of
// repository.FeedbackRepository.
type FeedbackRepository struct {
	mu        sync.RWMutex
	feedbacks map[string]feedbackEntry
	seq       uint64
}

// NewFeedbackRepository creates an empty in-memory feedback store.
func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{
		feedbacks: make(map[string]feedbackEntry),
	}
}

// Create stores a copy of the feedback entry.
func (r *FeedbackRepository) Create(_ context.Context, f *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.feedbacks[f.ID]; exists {
		return fmt.Errorf("insert feedback %q: duplicate id", f.ID)
	}
	r.seq++
	r.feedbacks[f.ID] = feedbackEntry{feedback: cloneFeedback(f), seq: r.seq}
	return nil
}

// GetByID returns a copy of the stored entry.
func (r *FeedbackRepository) GetByID(_ context.Context, id string) (*domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.feedbacks[id]
	if !ok {
		return nil, apperrors.NotFound("Feedback", id)
	}
	f := cloneFeedback(&e.feedback)
	return &f, nil
}

// List returns entries newest first, optionally limited to one property.
func (r *FeedbackRepository) List(_ context.Context, propertyID string) ([]domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]feedbackEntry, 0, len(r.feedbacks))
	for _, e := range r.feedbacks {
		if propertyID != "" && e.feedback.PropertyID != propertyID {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.feedback.CreatedAt.Equal(b.feedback.CreatedAt) {
			return a.feedback.CreatedAt.After(b.feedback.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Feedback, len(matched))
	for i := range matched {
		out[i] = cloneFeedback(&matched[i].feedback)
	}
	return out, nil
}

// Update writes the feedback text, photo and status of an existing entry.
func (r *FeedbackRepository) Update(_ context.Context, f *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.feedbacks[f.ID]
	if !ok {
		return apperrors.NotFound("Feedback", f.ID)
	}
	e.feedback.Feedback = f.Feedback
	e.feedback.Photo = f.Photo
	e.feedback.Status = f.Status
	r.feedbacks[f.ID] = e
	return nil
}

// Delete removes the entry.
func (r *FeedbackRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.feedbacks[id]; !ok {
		return apperrors.NotFound("Feedback", id)
	}
	delete(r.feedbacks, id)
	return nil
}

// Count returns the number of entries matching the filter.
func (r *FeedbackRepository) Count(_ context.Context, filter repository.FeedbackFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, e := range r.feedbacks {
		f := &e.feedback
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.CreatedSince != nil && f.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		if filter.HasPhoto && !f.HasPhoto() {
			continue
		}
		n++
	}
	return n, nil
}

func cloneFeedback(f *domain.Feedback) domain.Feedback {
	c := *f
	if f.Photo != nil {
		photo := *f.Photo
		c.Photo = &photo
	}
	c.PropertyDetails = maps.Clone(f.PropertyDetails)
	return c
}
