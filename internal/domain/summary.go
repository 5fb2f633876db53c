package domain

import "time"

// AnalysisSummary is the persisted per-tenant, per-period aggregate.
// Rows are never mutated after insertion; a forced re-run supersedes the
// old row and inserts a fresh one.
type AnalysisSummary struct {
	TenantID      TenantID
	Period        Period
	DominantLabel SentimentLabel
	Score         float64
	Confidence    float64
	PositiveCount int
	NegativeCount int
	AspectCounts  map[string]int
	Evidence      []string
	IssueFlag     bool
	CreatedAt     time.Time
}

// EmptySummary is the summary recorded when a tenant had no reviews for
// the period. Absence of reviews is a valid outcome, not an error.
func EmptySummary(tenant TenantID, period Period, now time.Time) AnalysisSummary {
	return AnalysisSummary{
		TenantID:      tenant,
		Period:        period,
		DominantLabel: LabelNeutral,
		AspectCounts:  map[string]int{},
		CreatedAt:     now,
	}
}
