package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/metrics"
	"ReviewPulse/internal/ports"
)

// PipelineDeps wires all driven adapters into the batch orchestrator.
type PipelineDeps struct {
	Tenants    ports.TenantLister
	Reviews    ports.ReviewStore
	Classifier ports.SentimentClassifier
	Summaries  ports.AnalysisRepository
	Sink       ports.ReportSink
	Settings   AggregateSettings
	Workers    int
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Pipeline executes one batch run: fan out over tenants, fetch,
// classify, aggregate, persist. Tenants are independent units of work;
// one tenant's failure never aborts its siblings.
type Pipeline struct {
	tenants    ports.TenantLister
	reviews    ports.ReviewStore
	classifier ports.SentimentClassifier
	summaries  ports.AnalysisRepository
	sink       ports.ReportSink
	settings   AggregateSettings
	workers    int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		tenants:    deps.Tenants,
		reviews:    deps.Reviews,
		classifier: deps.Classifier,
		summaries:  deps.Summaries,
		sink:       deps.Sink,
		settings:   deps.Settings,
		workers:    workers,
		logger:     deps.Logger,
		now:        now,
	}
}

// RunOptions parameterizes one invocation. The zero value means a
// regular scheduled run: previous calendar day, all active tenants,
// no overwrite.
type RunOptions struct {
	Period  domain.Period
	Tenants []domain.TenantID
	Force   bool
}

// Run executes one batch invocation and hands the report to the sink.
// The only error it returns is the run-level one: the tenant list being
// unavailable. Per-tenant failures are recorded in the report instead.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (domain.BatchRunReport, error) {
	report := domain.BatchRunReport{
		RunID:     uuid.New(),
		StartedAt: p.now(),
	}

	period := opts.Period
	if period.IsZero() {
		period = domain.PreviousDay(report.StartedAt)
	}
	report.Period = period.String()

	logger := p.logger.With().
		Stringer("run_id", report.RunID).
		Str("period", report.Period).
		Logger()

	tenants := opts.Tenants
	if len(tenants) == 0 {
		listed, err := p.tenants.ListActiveTenants(ctx)
		if err != nil {
			runErr := fmt.Errorf("%w: %s", domain.ErrTenantListUnavailable, err)
			report.FinishedAt = p.now()
			report.RunError = runErr.Error()
			logger.Error().Err(err).Msg("run aborted: cannot list tenants")
			metrics.RunsTotal.WithLabelValues(metrics.RunResultAborted).Inc()
			p.sink.Report(ctx, report)
			return report, runErr
		}
		tenants = listed
	}

	logger.Info().Int("tenants", len(tenants)).Bool("force", opts.Force).Msg("batch run started")

	report.Outcomes = p.processAll(ctx, logger, tenants, period, opts.Force)
	report.FinishedAt = p.now()

	metrics.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	metrics.RunsTotal.WithLabelValues(metrics.RunResultCompleted).Inc()

	p.sink.Report(ctx, report)
	return report, nil
}

// processAll dispatches tenants onto a bounded worker pool and collects
// outcomes back into input order over a results channel.
func (p *Pipeline) processAll(ctx context.Context, logger zerolog.Logger, tenants []domain.TenantID, period domain.Period, force bool) []domain.TenantOutcome {
	type indexed struct {
		pos     int
		outcome domain.TenantOutcome
	}

	jobs := make(chan int)
	results := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				results <- indexed{pos: pos, outcome: p.processTenant(ctx, logger, tenants[pos], period, force)}
			}
		}()
	}

	// Dispatched tenants finish; once the context is canceled the rest
	// are recorded as canceled so the report stays complete.
	canceledFrom := func(from int) {
		for rest := from; rest < len(tenants); rest++ {
			results <- indexed{pos: rest, outcome: domain.TenantOutcome{
				TenantID: tenants[rest],
				Status:   domain.StatusFailed,
				Kind:     domain.FailureCanceled,
				Detail:   ctx.Err().Error(),
			}}
		}
	}

	go func() {
	dispatch:
		for pos := range tenants {
			if ctx.Err() != nil {
				canceledFrom(pos)
				break
			}
			select {
			case jobs <- pos:
			case <-ctx.Done():
				canceledFrom(pos)
				break dispatch
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	outcomes := make([]domain.TenantOutcome, len(tenants))
	for r := range results {
		outcomes[r.pos] = r.outcome
	}

	for _, o := range outcomes {
		metrics.TenantOutcomes.WithLabelValues(string(o.Status)).Inc()
	}
	return outcomes
}

// processTenant runs the per-tenant state machine:
// check existing → fetch → classify → aggregate → persist.
// Every error is caught here, at the tenant boundary.
func (p *Pipeline) processTenant(ctx context.Context, logger zerolog.Logger, tenant domain.TenantID, period domain.Period, force bool) domain.TenantOutcome {
	tlog := logger.With().Str("tenant", string(tenant)).Logger()

	if !force {
		done, err := p.summaries.Exists(ctx, tenant, period)
		if err != nil {
			return p.failed(tlog, tenant, domain.FailurePersist, fmt.Errorf("check existing summary: %w", err))
		}
		if done {
			tlog.Debug().Msg("summary already present, skipping")
			return domain.TenantOutcome{TenantID: tenant, Status: domain.StatusSkipped}
		}
	}

	records, err := p.reviews.FetchReviews(ctx, tenant, period)
	if err != nil {
		return p.failed(tlog, tenant, domain.FailureFetch, fmt.Errorf("fetch reviews: %w", err))
	}

	items := classifiableTexts(records)

	var summary domain.AnalysisSummary
	if len(items) == 0 {
		// Zero reviews (or only blank ones) is a business outcome,
		// not a failure.
		summary = domain.EmptySummary(tenant, period, p.now())
	} else {
		results, cErr := p.classifier.Classify(ctx, items)
		if cErr != nil {
			return p.failed(tlog, tenant, domain.FailureClassify, fmt.Errorf("classify %d reviews: %w", len(items), cErr))
		}
		summary = Aggregate(tenant, period, results, p.settings, p.now())
	}

	if err := p.persist(ctx, summary, force); err != nil {
		if errors.Is(err, domain.ErrDuplicatePeriod) {
			// Another completed run beat us to it; the work is done.
			tlog.Debug().Msg("summary inserted by another run, skipping")
			return domain.TenantOutcome{TenantID: tenant, Status: domain.StatusSkipped}
		}
		return p.failed(tlog, tenant, domain.FailurePersist, fmt.Errorf("persist summary: %w", err))
	}

	tlog.Info().
		Int("positive", summary.PositiveCount).
		Int("negative", summary.NegativeCount).
		Bool("issue_flag", summary.IssueFlag).
		Msg("tenant processed")
	return domain.TenantOutcome{TenantID: tenant, Status: domain.StatusSucceeded}
}

func (p *Pipeline) persist(ctx context.Context, summary domain.AnalysisSummary, force bool) error {
	if force {
		return p.summaries.Supersede(ctx, summary)
	}
	return p.summaries.Insert(ctx, summary)
}

func (p *Pipeline) failed(logger zerolog.Logger, tenant domain.TenantID, kind domain.FailureKind, err error) domain.TenantOutcome {
	logger.Error().Err(err).Str("kind", string(kind)).Msg("tenant failed")
	return domain.TenantOutcome{
		TenantID: tenant,
		Status:   domain.StatusFailed,
		Kind:     kind,
		Detail:   err.Error(),
	}
}

// classifiableTexts drops rating-only reviews whose text is blank; the
// classification service rejects empty documents.
func classifiableTexts(records []domain.ReviewRecord) []domain.ReviewText {
	items := make([]domain.ReviewText, 0, len(records))
	for _, rec := range records {
		text := strings.TrimSpace(rec.Content)
		if text == "" {
			continue
		}
		items = append(items, domain.ReviewText{ReviewID: rec.ID, Text: text})
	}
	return items
}
