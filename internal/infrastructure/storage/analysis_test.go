package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewPulse/internal/domain"
)

var testPeriod = domain.DayPeriod(time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC))

func testSummary() domain.AnalysisSummary {
	return domain.AnalysisSummary{
		TenantID:      "school-1",
		Period:        testPeriod,
		DominantLabel: domain.LabelNegative,
		Score:         -0.2,
		Confidence:    0.85,
		PositiveCount: 2,
		NegativeCount: 3,
		AspectCounts:  map[string]int{"portion size": 2},
		Evidence:      []string{"rice was cold"},
		IssueFlag:     true,
		CreatedAt:     time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM review_analysis").
		WithArgs("school-1", "2026-08-27").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	repo := NewAnalysisRepository(db)
	found, err := repo.Exists(context.Background(), "school-1", testPeriod)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsNoRows(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM review_analysis").
		WithArgs("school-1", "2026-08-27").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	repo := NewAnalysisRepository(db)
	found, err := repo.Exists(context.Background(), "school-1", testPeriod)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInsert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	summary := testSummary()
	aspects, _ := json.Marshal(summary.AspectCounts)
	evidence, _ := json.Marshal(summary.Evidence)

	mock.ExpectExec("INSERT INTO review_analysis").
		WithArgs("school-1", "2026-08-27", "NEGATIVE", -0.2, 0.85, 2, 3,
			aspects, evidence, true, summary.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewAnalysisRepository(db)
	require.NoError(t, repo.Insert(context.Background(), summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO review_analysis").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewAnalysisRepository(db)
	err = repo.Insert(context.Background(), testSummary())
	assert.ErrorIs(t, err, domain.ErrDuplicatePeriod)
}

func TestSupersedeRunsInOneTransaction(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_analysis SET superseded").
		WithArgs(true, "school-1", "2026-08-27").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO review_analysis").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := NewAnalysisRepository(db)
	require.NoError(t, repo.Supersede(context.Background(), testSummary()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSummary(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"school_id", "period", "dominant_label", "score", "confidence",
		"positive_count", "negative_count", "aspect_counts", "evidence", "issue_flag", "created_at",
	}).AddRow("school-1", "2026-08-27", "NEGATIVE", -0.2, 0.85, 2, 3,
		[]byte(`{"portion size":2}`), []byte(`["rice was cold"]`), true, created)

	mock.ExpectQuery("SELECT school_id, period, dominant_label").
		WithArgs("school-1").
		WillReturnRows(rows)

	repo := NewAnalysisRepository(db)
	summary, err := repo.LatestSummary(context.Background(), "school-1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, domain.TenantID("school-1"), summary.TenantID)
	assert.Equal(t, "2026-08-27", summary.Period.String())
	assert.Equal(t, domain.LabelNegative, summary.DominantLabel)
	assert.Equal(t, map[string]int{"portion size": 2}, summary.AspectCounts)
	assert.True(t, summary.IssueFlag)
}

func TestLatestSummaryNone(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT school_id, period, dominant_label").
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"school_id"}))

	repo := NewAnalysisRepository(db)
	summary, err := repo.LatestSummary(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Nil(t, summary)
}
