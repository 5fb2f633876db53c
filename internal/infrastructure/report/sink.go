package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/ports"
)

// Notifier pushes a short text alert to an ops channel.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// Sink logs every run report and alerts the ops channel when a run
// aborted or left failed tenants behind. Best-effort by contract:
// alerting problems are logged, never propagated.
type Sink struct {
	logger   zerolog.Logger
	notifier Notifier
}

var _ ports.ReportSink = (*Sink)(nil)

// NewSink builds the report sink; notifier may be nil to log only.
func NewSink(logger zerolog.Logger, notifier Notifier) *Sink {
	return &Sink{logger: logger, notifier: notifier}
}

// Report records the run outcome.
func (s *Sink) Report(ctx context.Context, rep domain.BatchRunReport) {
	failed := rep.CountByStatus(domain.StatusFailed)

	evt := s.logger.Info()
	if failed > 0 || rep.RunError != "" {
		evt = s.logger.Warn()
	}
	evt.
		Stringer("run_id", rep.RunID).
		Str("period", rep.Period).
		Int("succeeded", rep.CountByStatus(domain.StatusSucceeded)).
		Int("skipped", rep.CountByStatus(domain.StatusSkipped)).
		Int("failed", failed).
		Dur("duration", rep.FinishedAt.Sub(rep.StartedAt)).
		Str("run_error", rep.RunError).
		Msg("batch run report")

	for _, o := range rep.Outcomes {
		if o.Status != domain.StatusFailed {
			continue
		}
		s.logger.Error().
			Stringer("run_id", rep.RunID).
			Str("tenant", string(o.TenantID)).
			Str("kind", string(o.Kind)).
			Str("detail", o.Detail).
			Msg("tenant outcome")
	}

	if s.notifier == nil || (failed == 0 && rep.RunError == "") {
		return
	}

	if err := s.notifier.Publish(ctx, formatAlert(rep)); err != nil {
		s.logger.Error().Err(err).Msg("run alert delivery failed")
	}
}

func formatAlert(rep domain.BatchRunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review analysis run %s (%s)\n", rep.RunID, rep.Period)

	if rep.RunError != "" {
		fmt.Fprintf(&b, "Run aborted: %s\n", rep.RunError)
		return b.String()
	}

	fmt.Fprintf(&b, "Succeeded: %d, skipped: %d, failed: %d\n",
		rep.CountByStatus(domain.StatusSucceeded),
		rep.CountByStatus(domain.StatusSkipped),
		rep.CountByStatus(domain.StatusFailed))

	for _, o := range rep.Outcomes {
		if o.Status == domain.StatusFailed {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", o.TenantID, o.Kind, o.Detail)
		}
	}

	return b.String()
}
