package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
)

const listingColumns = `id, owner_name, rent, advance, type, bhk, square_feet, phone_number, photos, admin_email, created_at, updated_at`

// ListingRepository implements repository.ListingRepository using PostgreSQL.
type ListingRepository struct {
	pool database.DBTX
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(pool database.DBTX) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// Create inserts a new listing.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (err error) {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CreateListing", query)
	defer func() { end(err) }()

	photosJSON, err := json.Marshal(l.Photos)
	if err != nil {
		return fmt.Errorf("marshal photos: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		l.ID,
		l.OwnerName,
		l.Rent,
		l.Advance,
		l.Type,
		nullString(l.BHK),
		nullFloat(l.SquareFeet),
		l.PhoneNumber,
		photosJSON,
		l.AdminEmail,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (_ *domain.Listing, err error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetListing", query)
	defer func() { end(err) }()

	l, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Property", id)
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// List returns the listings matching the filter.
func (r *ListingRepository) List(ctx context.Context, filter repository.ListingFilter) (_ []domain.Listing, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.AdminEmail != "" {
		conditions = append(conditions, fmt.Sprintf("admin_email = $%d", argIndex))
		args = append(args, filter.AdminEmail)
		argIndex++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, filter.Type)
		argIndex++
	}
	if filter.BHK != "" {
		conditions = append(conditions, fmt.Sprintf("bhk = $%d", argIndex))
		args = append(args, filter.BHK)
		argIndex++
	}
	if filter.MinRent != nil {
		conditions = append(conditions, fmt.Sprintf("rent >= $%d", argIndex))
		args = append(args, *filter.MinRent)
		argIndex++
	}
	if filter.MaxRent != nil {
		conditions = append(conditions, fmt.Sprintf("rent <= $%d", argIndex))
		args = append(args, *filter.MaxRent)
		argIndex++
	}
	if filter.MinSqft != nil {
		conditions = append(conditions, fmt.Sprintf("square_feet >= $%d", argIndex))
		args = append(args, *filter.MinSqft)
		argIndex++
	}
	if filter.MaxSqft != nil {
		conditions = append(conditions, fmt.Sprintf("square_feet <= $%d", argIndex))
		args = append(args, *filter.MaxSqft)
		argIndex++
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(owner_name ILIKE $%d OR bhk ILIKE $%d OR type ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+escapeLike(filter.Query)+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	orderBy := "created_at DESC"
	if filter.Sort == repository.SortRecentlyUpdated {
		orderBy = "updated_at DESC, created_at DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM listings %s ORDER BY %s`, listingColumns, whereClause, orderBy)

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListListings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return collectListings(rows)
}

// Update replaces every column but id and created_at, and copies the stored
// creation time back onto l.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) (err error) {
	query := `
		UPDATE listings
		SET owner_name = $2, rent = $3, advance = $4, type = $5, bhk = $6, square_feet = $7,
			phone_number = $8, photos = $9, admin_email = $10, updated_at = $11
		WHERE id = $1
		RETURNING created_at`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpdateListing", query)
	defer func() { end(err) }()

	photosJSON, err := json.Marshal(l.Photos)
	if err != nil {
		return fmt.Errorf("marshal photos: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		l.ID,
		l.OwnerName,
		l.Rent,
		l.Advance,
		l.Type,
		nullString(l.BHK),
		nullFloat(l.SquareFeet),
		l.PhoneNumber,
		photosJSON,
		l.AdminEmail,
		l.UpdatedAt,
	).Scan(&l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("Property", l.ID)
		}
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// Delete removes a listing by its ID.
func (r *ListingRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM listings WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteListing", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("Property", id)
	}
	return nil
}

// FindLegacy returns the listings with a NULL or empty bhk or square_feet.
func (r *ListingRepository) FindLegacy(ctx context.Context) (_ []domain.Listing, err error) {
	query := `SELECT ` + listingColumns + ` FROM listings
		WHERE bhk IS NULL OR bhk = '' OR square_feet IS NULL OR square_feet = 0`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "FindLegacyListings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find legacy listings: %w", err)
	}
	return collectListings(rows)
}

func collectListings(rows pgx.Rows) ([]domain.Listing, error) {
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}
	return listings, nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l          domain.Listing
		bhk        *string
		squareFeet *float64
		photosJSON []byte
	)
	if err := row.Scan(
		&l.ID,
		&l.OwnerName,
		&l.Rent,
		&l.Advance,
		&l.Type,
		&bhk,
		&squareFeet,
		&l.PhoneNumber,
		&photosJSON,
		&l.AdminEmail,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if bhk != nil {
		l.BHK = *bhk
	}
	if squareFeet != nil {
		l.SquareFeet = *squareFeet
	}
	l.Photos = []string{}
	if photosJSON != nil {
		if err := json.Unmarshal(photosJSON, &l.Photos); err != nil {
			return nil, fmt.Errorf("unmarshal photos: %w", err)
		}
	}
	return &l, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
