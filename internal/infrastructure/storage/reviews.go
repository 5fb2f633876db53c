package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ReviewStore reads raw meal reviews from Postgres. The review service
// owns the table; this pipeline never writes to it.
type ReviewStore struct {
	db *sql.DB
}

var _ ports.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore wires a sql.DB implementation.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// FetchReviews returns all reviews for (tenant, period), oldest first.
// An empty slice is a valid result.
func (s *ReviewStore) FetchReviews(ctx context.Context, tenant domain.TenantID, period domain.Period) ([]domain.ReviewRecord, error) {
	start, end := period.Bounds()

	query, args, err := psql.
		Select("id", "school_id", "author_id", "meal_date", "meal_slot", "rating", "content", "created_at").
		From("meal_reviews").
		Where(sq.Eq{"school_id": string(tenant)}).
		Where(sq.GtOrEq{"meal_date": start}).
		Where(sq.Lt{"meal_date": end}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reviews query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var records []domain.ReviewRecord
	for rows.Next() {
		var rec domain.ReviewRecord
		var tenantID string
		var slot string
		if err := rows.Scan(&rec.ID, &tenantID, &rec.AuthorID, &rec.MealDate, &slot, &rec.Rating, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rec.TenantID = domain.TenantID(tenantID)
		rec.Slot = domain.MealSlot(slot)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}
