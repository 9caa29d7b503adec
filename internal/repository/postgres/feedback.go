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

const feedbackColumns = `id, property_id, property_title, feedback, photo, property_details, status, created_at`

// FeedbackRepository implements repository.FeedbackRepository using PostgreSQL.
type FeedbackRepository struct {
	pool database.DBTX
}

// NewFeedbackRepository creates a new PostgreSQL-backed feedback repository.
func NewFeedbackRepository(pool database.DBTX) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create inserts a new feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) (err error) {
	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CreateFeedback", query)
	defer func() { end(err) }()

	details := f.PropertyDetails
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal property details: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		f.ID,
		f.PropertyID,
		f.PropertyTitle,
		f.Feedback,
		f.Photo,
		detailsJSON,
		f.Status,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetByID retrieves a feedback entry by its ID.
func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (_ *domain.Feedback, err error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetFeedback", query)
	defer func() { end(err) }()

	f, err := scanFeedback(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Feedback", id)
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return f, nil
}

// List returns feedback newest first, optionally for one property.
func (r *FeedbackRepository) List(ctx context.Context, propertyID string) (_ []domain.Feedback, err error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback ORDER BY created_at DESC`
	var args []any
	if propertyID != "" {
		query = `SELECT ` + feedbackColumns + ` FROM feedback WHERE property_id = $1 ORDER BY created_at DESC`
		args = append(args, propertyID)
	}

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListFeedback", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return out, nil
}

// Update writes the feedback text, photo and status.
func (r *FeedbackRepository) Update(ctx context.Context, f *domain.Feedback) (err error) {
	query := `UPDATE feedback SET feedback = $2, photo = $3, status = $4 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpdateFeedback", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, f.ID, f.Feedback, f.Photo, f.Status)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("Feedback", f.ID)
	}
	return nil
}

// Delete removes a feedback entry by its ID.
func (r *FeedbackRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM feedback WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteFeedback", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("Feedback", id)
	}
	return nil
}

// Count returns the number of entries matching the filter.
func (r *FeedbackRepository) Count(ctx context.Context, filter repository.FeedbackFilter) (_ int64, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.CreatedSince != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.CreatedSince)
	}
	if filter.HasPhoto {
		conditions = append(conditions, "photo IS NOT NULL")
	}

	query := `SELECT COUNT(*) FROM feedback`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CountFeedback", query)
	defer func() { end(err) }()

	var n int64
	if err = r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var (
		f           domain.Feedback
		detailsJSON []byte
	)
	if err := row.Scan(
		&f.ID,
		&f.PropertyID,
		&f.PropertyTitle,
		&f.Feedback,
		&f.Photo,
		&detailsJSON,
		&f.Status,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.PropertyDetails = map[string]any{}
	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &f.PropertyDetails); err != nil {
			return nil, fmt.Errorf("unmarshal property details: %w", err)
		}
	}
	return &f, nil
}
