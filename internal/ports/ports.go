package ports

import (
	"context"
	"time"

	"ReviewPulse/internal/domain"
)

// TenantLister supplies the active schools a run must cover.
type TenantLister interface {
	ListActiveTenants(ctx context.Context) ([]domain.TenantID, error)
}

// ReviewStore reads raw reviews for one tenant and period. An empty
// result is a valid, non-error outcome.
type ReviewStore interface {
	FetchReviews(ctx context.Context, tenant domain.TenantID, period domain.Period) ([]domain.ReviewRecord, error)
}

// SentimentClassifier sends a batch of review texts to the external
// analysis service. On success every input id has exactly one result;
// on failure no partial results are returned.
type SentimentClassifier interface {
	Classify(ctx context.Context, items []domain.ReviewText) ([]domain.ClassificationResult, error)
}

// AnalysisRepository persists per-period summaries. Insert returns
// domain.ErrDuplicatePeriod when the (tenant, period) uniqueness
// backstop fires.
type AnalysisRepository interface {
	Exists(ctx context.Context, tenant domain.TenantID, period domain.Period) (bool, error)
	Insert(ctx context.Context, summary domain.AnalysisSummary) error
	Supersede(ctx context.Context, summary domain.AnalysisSummary) error
	LatestSummary(ctx context.Context, tenant domain.TenantID) (*domain.AnalysisSummary, error)
}

// ReportSink receives the run report for logging/alerting. Best-effort:
// implementations never return an error.
type ReportSink interface {
	Report(ctx context.Context, report domain.BatchRunReport)
}

// Scheduler controls when the daily run fires.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
