package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/ports"
)

const uniqueViolation = "23505"

// AnalysisRepository persists per-period summaries. A partial unique
// index on (school_id, period) WHERE NOT superseded backs the
// application-level existence check, so an overlap surfaces as a
// constraint violation instead of a silent duplicate.
type AnalysisRepository struct {
	db *sql.DB
}

var _ ports.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository wires a sql.DB implementation.
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Exists reports whether a non-superseded summary is already stored
// for (tenant, period).
func (r *AnalysisRepository) Exists(ctx context.Context, tenant domain.TenantID, period domain.Period) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("review_analysis").
		Where(sq.Eq{"school_id": string(tenant)}).
		Where(sq.Eq{"period": period.String()}).
		Where("NOT superseded").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query existing summary: %w", err)
	}
	return true, nil
}

// Insert stores a new summary row. Returns domain.ErrDuplicatePeriod
// when the uniqueness backstop fires.
func (r *AnalysisRepository) Insert(ctx context.Context, summary domain.AnalysisSummary) error {
	return r.insert(ctx, r.db, summary)
}

// Supersede flags the current row for (tenant, period) as superseded
// and inserts the new one in a single transaction. Used only by forced
// manual re-runs; summaries are never updated in place.
func (r *AnalysisRepository) Supersede(ctx context.Context, summary domain.AnalysisSummary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	query, args, err := psql.
		Update("review_analysis").
		Set("superseded", true).
		Where(sq.Eq{"school_id": string(summary.TenantID)}).
		Where(sq.Eq{"period": summary.Period.String()}).
		Where("NOT superseded").
		ToSql()
	if err != nil {
		return fmt.Errorf("build supersede query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("supersede summary: %w", err)
	}

	if err := r.insert(ctx, tx, summary); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit supersede: %w", err)
	}
	return nil
}

// LatestSummary returns the newest non-superseded summary for a
// tenant, or nil when none exists.
func (r *AnalysisRepository) LatestSummary(ctx context.Context, tenant domain.TenantID) (*domain.AnalysisSummary, error) {
	query, args, err := psql.
		Select("school_id", "period", "dominant_label", "score", "confidence",
			"positive_count", "negative_count", "aspect_counts", "evidence", "issue_flag", "created_at").
		From("review_analysis").
		Where(sq.Eq{"school_id": string(tenant)}).
		Where("NOT superseded").
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	var (
		summary      domain.AnalysisSummary
		tenantID     string
		periodKey    string
		label        string
		aspectsJSON  []byte
		evidenceJSON []byte
	)
	err = row.Scan(&tenantID, &periodKey, &label, &summary.Score, &summary.Confidence,
		&summary.PositiveCount, &summary.NegativeCount, &aspectsJSON, &evidenceJSON, &summary.IssueFlag, &summary.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan latest summary: %w", err)
	}

	summary.TenantID = domain.TenantID(tenantID)
	summary.DominantLabel = domain.SentimentLabel(label)
	if summary.Period, err = domain.ParsePeriod(periodKey, summary.CreatedAt.Location()); err != nil {
		return nil, fmt.Errorf("parse stored period: %w", err)
	}
	if err := json.Unmarshal(aspectsJSON, &summary.AspectCounts); err != nil {
		return nil, fmt.Errorf("decode aspect counts: %w", err)
	}
	if err := json.Unmarshal(evidenceJSON, &summary.Evidence); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}

	return &summary, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *AnalysisRepository) insert(ctx context.Context, db execer, summary domain.AnalysisSummary) error {
	aspects, err := json.Marshal(summary.AspectCounts)
	if err != nil {
		return fmt.Errorf("encode aspect counts: %w", err)
	}
	evidence, err := json.Marshal(summary.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	query, args, err := psql.
		Insert("review_analysis").
		Columns("school_id", "period", "dominant_label", "score", "confidence",
			"positive_count", "negative_count", "aspect_counts", "evidence", "issue_flag", "created_at").
		Values(string(summary.TenantID), summary.Period.String(), string(summary.DominantLabel),
			summary.Score, summary.Confidence, summary.PositiveCount, summary.NegativeCount,
			aspects, evidence, summary.IssueFlag, summary.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: tenant %s period %s", domain.ErrDuplicatePeriod, summary.TenantID, summary.Period)
		}
		return fmt.Errorf("insert summary: %w", err)
	}

	return nil
}
