// Package seed populates a store with sample listings and tenant feedback for
// local development and demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
)

// placeholderPhoto is a 1x1 transparent PNG.
const placeholderPhoto = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

var (
	owners = []string{"Asha Rao", "Ravi Kumar", "Meera Nair", "Imran Shaikh", "Lakshmi Iyer", "Vikram Patil"}
	areas  = []string{"Indiranagar", "Koramangala", "Whitefield", "Jayanagar", "HSR Layout", "Malleshwaram"}

	feedbackTexts = []string{
		"Water supply is irregular in the mornings",
		"Owner was responsive and the flat matched the photos",
		"Parking space is smaller than advertised",
		"Great ventilation and natural light",
		"Street gets noisy after 10pm",
	}
)

// Options controls how much data is generated.
type Options struct {
	Listings              int
	FeedbackPerListing    int
	OwnerEmailDomain      string
	PhotoEveryNthFeedback int
}

// DefaultOptions returns a small demo data set.
func DefaultOptions() Options {
	return Options{
		Listings:              12,
		FeedbackPerListing:    2,
		OwnerEmailDomain:      "example.com",
		PhotoEveryNthFeedback: 3,
	}
}

// Result counts what was written.
type Result struct {
	Listings int
	Feedback int
}

// Run creates sample listings through the listing service and attaches
// feedback to each. Records go through the same validation as API traffic.
func Run(
	ctx context.Context,
	listings *service.ListingService,
	feedback *service.FeedbackService,
	opts Options,
	rng *rand.Rand,
	logger *slog.Logger,
) (Result, error) {
	var res Result
	bhks := domain.ValidBHKs()
	types := domain.ValidListingTypes()

	for i := 0; i < opts.Listings; i++ {
		owner := owners[rng.Intn(len(owners))]
		area := areas[rng.Intn(len(areas))]
		bhk := bhks[rng.Intn(len(bhks))]
		rent := float64(8000 + rng.Intn(40)*500)

		l, err := listings.AddListing(ctx, &service.ListingInput{
			OwnerName:   domain.ScalarText(owner),
			Rent:        domain.ScalarNumber(rent),
			Advance:     domain.ScalarNumber(rent * float64(2+rng.Intn(5))),
			Type:        domain.ScalarText(types[rng.Intn(len(types))]),
			BHK:         domain.ScalarText(bhk),
			SquareFeet:  domain.ScalarNumber(float64(400 + rng.Intn(25)*50)),
			PhoneNumber: domain.ScalarText(fmt.Sprintf("98%08d", rng.Intn(100000000))),
			Photos:      domain.PhotoList{placeholderPhoto},
			AdminEmail:  domain.ScalarText(fmt.Sprintf("owner%d@%s", i%len(owners), opts.OwnerEmailDomain)),
		})
		if err != nil {
			return res, fmt.Errorf("seed listing %d: %w", i, err)
		}
		res.Listings++
		logger.Debug("seeded listing", slog.String("id", l.ID), slog.String("area", area))

		for j := 0; j < opts.FeedbackPerListing; j++ {
			in := &service.FeedbackInput{
				PropertyID:    l.ID,
				PropertyTitle: fmt.Sprintf("%s in %s", bhk, area),
				Feedback:      feedbackTexts[rng.Intn(len(feedbackTexts))],
				PropertyDetails: map[string]any{
					"rent":       l.Rent,
					"bhk":        l.BHK,
					"squareFeet": l.SquareFeet,
					"ownerName":  l.OwnerName,
				},
			}
			if opts.PhotoEveryNthFeedback > 0 && (res.Feedback+1)%opts.PhotoEveryNthFeedback == 0 {
				photo := placeholderPhoto
				in.Photo = &photo
			}
			if _, err := feedback.SubmitFeedback(ctx, in); err != nil {
				return res, fmt.Errorf("seed feedback for listing %s: %w", l.ID, err)
			}
			res.Feedback++
		}
	}

	logger.Info("seed complete",
		slog.Int("listings", res.Listings),
		slog.Int("feedback", res.Feedback),
	)
	return res, nil
}
