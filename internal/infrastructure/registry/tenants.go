package registry

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SchoolRegistry lists active schools from the shared registry table.
type SchoolRegistry struct {
	db *sql.DB
}

var _ ports.TenantLister = (*SchoolRegistry)(nil)

// NewSchoolRegistry wires a sql.DB implementation.
func NewSchoolRegistry(db *sql.DB) *SchoolRegistry {
	return &SchoolRegistry{db: db}
}

// ListActiveTenants returns the ids of schools enrolled in analysis,
// in a stable order so run reports read the same way every day.
func (r *SchoolRegistry) ListActiveTenants(ctx context.Context) ([]domain.TenantID, error) {
	query, args, err := psql.
		Select("id").
		From("schools").
		Where(sq.Eq{"active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schools query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schools: %w", err)
	}
	defer rows.Close()

	var tenants []domain.TenantID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan school id: %w", err)
		}
		tenants = append(tenants, domain.TenantID(id))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tenants, nil
}
