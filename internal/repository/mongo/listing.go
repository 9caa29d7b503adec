package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

// listingDocument is the stored shape of a listing. Legacy documents may lack
// bhk and squareFeet.
type listingDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	OwnerName   string             `bson:"ownerName"`
	Rent        float64            `bson:"rent"`
	Advance     float64            `bson:"advance"`
	Type        string             `bson:"type"`
	BHK         string             `bson:"bhk,omitempty"`
	SquareFeet  float64            `bson:"squareFeet,omitempty"`
	PhoneNumber string             `bson:"phoneNumber"`
	Photos      []string           `bson:"photos"`
	AdminEmail  string             `bson:"adminEmail"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *listingDocument) toDomain() domain.Listing {
	return domain.Listing{
		ID:          d.ID.Hex(),
		OwnerName:   d.OwnerName,
		Rent:        d.Rent,
		Advance:     d.Advance,
		Type:        d.Type,
		BHK:         d.BHK,
		SquareFeet:  d.SquareFeet,
		PhoneNumber: d.PhoneNumber,
		Photos:      d.Photos,
		AdminEmail:  d.AdminEmail,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ListingRepository implements repository.ListingRepository using MongoDB.
type ListingRepository struct {
	coll *mongo.Collection
}

// NewListingRepository creates a new MongoDB-backed listing repository.
func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{coll: db.Collection(ListingsCollection)}
}

// Create inserts a new listing document.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CreateListing", ListingsCollection+".insertOne")
	defer func() { end(err) }()

	oid, ok := objectID(l.ID)
	if !ok {
		return fmt.Errorf("insert listing: malformed id %q", l.ID)
	}
	doc := listingDocument{
		ID:          oid,
		OwnerName:   l.OwnerName,
		Rent:        l.Rent,
		Advance:     l.Advance,
		Type:        l.Type,
		BHK:         l.BHK,
		SquareFeet:  l.SquareFeet,
		PhoneNumber: l.PhoneNumber,
		Photos:      l.Photos,
		AdminEmail:  l.AdminEmail,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its ObjectID hex string.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (_ *domain.Listing, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "GetListing", ListingsCollection+".findOne {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(id)
	if !ok {
		return nil, apperrors.NotFound("Property", id)
	}

	var doc listingDocument
	if err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("Property", id)
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	l := doc.toDomain()
	return &l, nil
}

// List returns the listings matching the filter.
func (r *ListingRepository) List(ctx context.Context, filter repository.ListingFilter) (_ []domain.Listing, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListListings", ListingsCollection+".find")
	defer func() { end(err) }()

	opts := sortOptions("createdAt")
	if filter.Sort == repository.SortRecentlyUpdated {
		opts = sortOptions("updatedAt", "createdAt")
	}

	cur, err := r.coll.Find(ctx, listingQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	return decodeListings(ctx, cur)
}

// listingQuery translates the filter into a MongoDB query document.
func listingQuery(filter repository.ListingFilter) bson.M {
	q := bson.M{}
	if filter.AdminEmail != "" {
		q["adminEmail"] = filter.AdminEmail
	}
	if filter.Type != "" {
		q["type"] = filter.Type
	}
	if filter.BHK != "" {
		q["bhk"] = filter.BHK
	}
	if r := rangeQuery(filter.MinRent, filter.MaxRent); r != nil {
		q["rent"] = r
	}
	if r := rangeQuery(filter.MinSqft, filter.MaxSqft); r != nil {
		q["squareFeet"] = r
	}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"ownerName": pattern},
			bson.M{"bhk": pattern},
			bson.M{"type": pattern},
		}
	}
	return q
}

func rangeQuery(lo, hi *float64) bson.M {
	if lo == nil && hi == nil {
		return nil
	}
	r := bson.M{}
	if lo != nil {
		r["$gte"] = *lo
	}
	if hi != nil {
		r["$lte"] = *hi
	}
	return r
}

// Update replaces every field but _id and createdAt, and copies the stored
// creation time back onto l.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpdateListing", ListingsCollection+".findOneAndUpdate {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(l.ID)
	if !ok {
		return apperrors.NotFound("Property", l.ID)
	}

	update := bson.M{"$set": bson.M{
		"ownerName":   l.OwnerName,
		"rent":        l.Rent,
		"advance":     l.Advance,
		"type":        l.Type,
		"bhk":         l.BHK,
		"squareFeet":  l.SquareFeet,
		"phoneNumber": l.PhoneNumber,
		"photos":      l.Photos,
		"adminEmail":  l.AdminEmail,
		"updatedAt":   l.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc listingDocument
	if err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return apperrors.NotFound("Property", l.ID)
		}
		return fmt.Errorf("update listing: %w", err)
	}
	l.CreatedAt = doc.CreatedAt
	return nil
}

// Delete removes a listing by id.
func (r *ListingRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "DeleteListing", ListingsCollection+".deleteOne {_id}")
	defer func() { end(err) }()

	oid, ok := objectID(id)
	if !ok {
		return apperrors.NotFound("Property", id)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Property", id)
	}
	return nil
}

// FindLegacy returns documents whose bhk or squareFeet is missing, null or
// empty.
func (r *ListingRepository) FindLegacy(ctx context.Context) (_ []domain.Listing, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "FindLegacyListings", ListingsCollection+".find {bhk|squareFeet missing}")
	defer func() { end(err) }()

	q := bson.M{"$or": bson.A{
		bson.M{"bhk": nil},
		bson.M{"bhk": ""},
		bson.M{"squareFeet": nil},
		bson.M{"squareFeet": 0},
	}}
	cur, err := r.coll.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find legacy listings: %w", err)
	}
	return decodeListings(ctx, cur)
}

func decodeListings(ctx context.Context, cur *mongo.Cursor) ([]domain.Listing, error) {
	defer cur.Close(ctx)

	listings := make([]domain.Listing, 0)
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		listings = append(listings, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}
