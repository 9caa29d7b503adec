package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

type feedbackDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	PropertyID      string             `bson:"propertyId"`
	PropertyTitle   string             `bson:"propertyTitle"`
	Feedback        string             `bson:"feedback"`
	Photo           *string            `bson:"photo"`
	PropertyDetails bson.M             `bson:"propertyDetails"`
	Status          string             `bson:"status"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

func (d *feedbackDocument) toDomain() domain.Feedback {
	details := make(map[string]any, len(d.PropertyDetails))
	for k, v := range d.PropertyDetails {
		details[k] = v
	}
	return domain.Feedback{
		ID:              d.ID.Hex(),
		PropertyID:      d.PropertyID,
		PropertyTitle:   d.PropertyTitle,
		Feedback:        d.Feedback,
		Photo:           d.Photo,
		PropertyDetails: details,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
	}
}

// FeedbackRepository implements repository.FeedbackRepository using MongoDB.
type FeedbackRepository struct {
	coll *mongo.Collection
}

// NewFeedbackRepository creates a new MongoDB-backed feedback repository.
func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{coll: db.Collection(FeedbackCollection)}
}

// Create inserts a new feedback document.
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CreateFeedback", FeedbackCollection+".insertOne")
	defer func() { end(err) }()

	oid, ok := objectID(f.ID)
	if !ok {
		return fmt.Errorf("insert feedback: malformed id %q", f.ID)
	}
	doc := feedbackDocument{
		ID:              oid,
		PropertyID:      f.PropertyID,
		PropertyTitle:   f.PropertyTitle,
		Feedback:        f.Feedback,
		Photo:           f.Photo,
		PropertyDetails: bson.M(f.PropertyDetails),
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
	}
	if doc.PropertyDetails == nil {
		doc.PropertyDetails = bson.M{}
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetByID retrieves a feedback entry by its ObjectID hex string.
func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (_ *domain.Feedback, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "GetFeedback", FeedbackCollection+".findOne {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(id)
	if !ok {
		return nil, apperrors.NotFound("Feedback", id)
	}
	var doc feedbackDocument
	if err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("Feedback", id)
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	f := doc.toDomain()
	return &f, nil
}

// List returns feedback newest first, optionally for one property.
func (r *FeedbackRepository) List(ctx context.Context, propertyID string) (_ []domain.Feedback, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListFeedback", FeedbackCollection+".find")
	defer func() { end(err) }()

	q := bson.M{}
	if propertyID != "" {
		q["propertyId"] = propertyID
	}
	cur, err := r.coll.Find(ctx, q, sortOptions("createdAt"))
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Feedback, 0)
	for cur.Next(ctx) {
		var doc feedbackDocument
		if err = cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err = cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

// Update writes the feedback text, photo and status.
func (r *FeedbackRepository) Update(ctx context.Context, f *domain.Feedback) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpdateFeedback", FeedbackCollection+".updateOne {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(f.ID)
	if !ok {
		return apperrors.NotFound("Feedback", f.ID)
	}
	update := bson.M{"$set": bson.M{
		"feedback": f.Feedback,
		"photo":    f.Photo,
		"status":   f.Status,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("Feedback", f.ID)
	}
	return nil
}

// Delete removes a feedback entry by id.
func (r *FeedbackRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "DeleteFeedback", FeedbackCollection+".deleteOne {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(id)
	if !ok {
		return apperrors.NotFound("Feedback", id)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Feedback", id)
	}
	return nil
}

// Count returns the number of documents matching the filter.
func (r *FeedbackRepository) Count(ctx context.Context, filter repository.FeedbackFilter) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CountFeedback", FeedbackCollection+".countDocuments")
	defer func() { end(err) }()

	n, err := r.coll.CountDocuments(ctx, feedbackCountQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

func feedbackCountQuery(filter repository.FeedbackFilter) bson.M {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.CreatedSince != nil {
		q["createdAt"] = bson.M{"$gte": *filter.CreatedSince}
	}
	if filter.HasPhoto {
		q["photo"] = bson.M{"$ne": nil}
	}
	return q
}
