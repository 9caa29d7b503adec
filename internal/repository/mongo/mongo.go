// Package mongo implements the record stores on MongoDB. Collection and field
// names follow the documents written by the earlier deployment, so existing
// data is served unchanged.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
)

// Collection names.
const (
	ListingsCollection = "properties"
	FeedbackCollection = "feedbacks"
)

// EnsureIndexes creates the indexes backing the list and count queries. It is
// safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "EnsureIndexes", "createIndexes")
	defer func() { end(err) }()

	listingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "adminEmail", Value: 1}, {Key: "updatedAt", Value: -1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err = db.Collection(ListingsCollection).Indexes().CreateMany(ctx, listingIndexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", ListingsCollection, err)
	}

	feedbackIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "propertyId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err = db.Collection(FeedbackCollection).Indexes().CreateMany(ctx, feedbackIndexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", FeedbackCollection, err)
	}
	return nil
}

// objectID parses a hex id. Ids of the wrong shape cannot match any document,
// so callers treat the failure as not-found.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func sortOptions(fields ...string) *options.FindOptions {
	sort := bson.D{}
	for _, f := range fields {
		sort = append(sort, bson.E{Key: f, Value: -1})
	}
	return options.Find().SetSort(sort)
}
