package domain

import "time"

// TenantID identifies a school, the unit of data partitioning.
type TenantID string

// MealSlot names the serving a review refers to.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
)

// ReviewRecord is a raw meal review as stored by the review service.
// This pipeline only reads them.
type ReviewRecord struct {
	ID        string
	TenantID  TenantID
	AuthorID  string
	MealDate  time.Time
	Slot      MealSlot
	Rating    int
	Content   string
	CreatedAt time.Time
}

// ReviewText is the (id, text) pair submitted for classification.
type ReviewText struct {
	ReviewID string
	Text     string
}

// SentimentLabel is the closed set of labels the classifier may return.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "POSITIVE"
	LabelNegative SentimentLabel = "NEGATIVE"
	LabelNeutral  SentimentLabel = "NEUTRAL"
)

// ValidLabel reports whether l belongs to the closed label set.
func ValidLabel(l SentimentLabel) bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	}
	return false
}

// ClassificationResult is the per-review output of the sentiment service.
// It lives only between the classification call and the aggregation step.
type ClassificationResult struct {
	ReviewID   string
	Label      SentimentLabel
	Score      float64
	Confidence float64
	Aspects    []string
	Evidence   []string
}
