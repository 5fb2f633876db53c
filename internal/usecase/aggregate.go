package usecase

import (
	"sort"
	"time"

	"ReviewPulse/internal/domain"
)

// AggregateSettings tunes the summary reduction. Zero values fall back
// to the documented defaults.
type AggregateSettings struct {
	// IssueRatioThreshold is the negative-review ratio at which a
	// tenant's period is flagged for operator attention.
	IssueRatioThreshold float64
	// MinSampleSize guards the issue flag against tiny samples.
	MinSampleSize int
	// EvidenceCap limits how many evidence phrases a summary keeps.
	EvidenceCap int
}

const (
	defaultIssueRatio    = 0.3
	defaultMinSample     = 3
	defaultEvidenceCap   = 5
	aspectNoiseThreshold = 2
)

func (s AggregateSettings) withDefaults() AggregateSettings {
	if s.IssueRatioThreshold <= 0 {
		s.IssueRatioThreshold = defaultIssueRatio
	}
	if s.MinSampleSize <= 0 {
		s.MinSampleSize = defaultMinSample
	}
	if s.EvidenceCap <= 0 {
		s.EvidenceCap = defaultEvidenceCap
	}
	return s
}

// dominantPriority is the tie-break order: dissatisfaction surfaces first.
var dominantPriority = []domain.SentimentLabel{
	domain.LabelNegative,
	domain.LabelPositive,
	domain.LabelNeutral,
}

// Aggregate reduces a batch of classification results into the summary
// fields for one (tenant, period). It is pure and deterministic; the
// empty-input case degrades to a neutral summary rather than an error.
func Aggregate(tenant domain.TenantID, period domain.Period, results []domain.ClassificationResult, settings AggregateSettings, now time.Time) domain.AnalysisSummary {
	settings = settings.withDefaults()

	summary := domain.EmptySummary(tenant, period, now)
	if len(results) == 0 {
		return summary
	}

	counts := map[domain.SentimentLabel]int{}
	var scoreSum, confidenceSum float64
	for _, r := range results {
		counts[r.Label]++
		scoreSum += r.Score
		confidenceSum += r.Confidence
	}

	total := len(results)
	summary.PositiveCount = counts[domain.LabelPositive]
	summary.NegativeCount = counts[domain.LabelNegative]
	summary.Score = scoreSum / float64(total)
	summary.Confidence = confidenceSum / float64(total)
	summary.DominantLabel = dominantLabel(counts)
	summary.AspectCounts = aspectFrequencies(results)
	summary.Evidence = sampleEvidence(results, settings.EvidenceCap)

	negativeRatio := float64(summary.NegativeCount) / float64(total)
	summary.IssueFlag = negativeRatio >= settings.IssueRatioThreshold && total >= settings.MinSampleSize

	return summary
}

func dominantLabel(counts map[domain.SentimentLabel]int) domain.SentimentLabel {
	best := domain.LabelNeutral
	bestCount := -1
	for _, label := range dominantPriority {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

// aspectFrequencies counts tags across all results, dropping tags seen
// only once when there are enough results to call that noise.
func aspectFrequencies(results []domain.ClassificationResult) map[string]int {
	raw := map[string]int{}
	for _, r := range results {
		for _, tag := range r.Aspects {
			raw[tag]++
		}
	}

	if len(results) < aspectNoiseThreshold {
		return raw
	}

	kept := map[string]int{}
	for tag, n := range raw {
		if n >= aspectNoiseThreshold {
			kept[tag] = n
		}
	}
	return kept
}

// sampleEvidence keeps up to cap phrases, negative results first so
// operators see complaints before praise.
func sampleEvidence(results []domain.ClassificationResult, limit int) []string {
	ordered := make([]domain.ClassificationResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return labelRank(ordered[i].Label) < labelRank(ordered[j].Label)
	})

	var phrases []string
	for _, r := range ordered {
		for _, phrase := range r.Evidence {
			if len(phrases) == limit {
				return phrases
			}
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

func labelRank(label domain.SentimentLabel) int {
	for i, l := range dominantPriority {
		if l == label {
			return i
		}
	}
	return len(dominantPriority)
}
