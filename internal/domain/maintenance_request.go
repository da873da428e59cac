package domain

import (
	"strings"
	"time"
)

// Priority enumerates triage tiers. The same values are used for the
// classifier's urgency classification and the stored ticket priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority matches raw case-insensitively against the known tiers.
func ParsePriority(raw string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.Valid()
}

// SentinelKeyword is reported when no tier term matched the message.
const SentinelKeyword = "general_maintenance"

// AnalysisResult is the classifier output for one message.
type AnalysisResult struct {
	Keywords              []string
	UrgencyClassification Priority
	PriorityScore         float64
}

// MaintenanceRequest is a persisted tenant ticket.
type MaintenanceRequest struct {
	ID              string
	TenantID        string
	Message         string
	CreatedAt       time.Time
	Priority        Priority
	Resolved        bool
	AnalyzedFactors AnalysisResult
}

// Score thresholds that escalate a stored priority above the classifier tier.
const (
	HighScoreThreshold   = 0.7
	MediumScoreThreshold = 0.4
)

// ReconcilePriority derives the stored priority from an analysis. A booster
// inflated score can outrank the urgency classification; the classification
// itself is kept untouched in AnalyzedFactors.
func ReconcilePriority(a AnalysisResult) Priority {
	switch {
	case a.UrgencyClassification == PriorityHigh || a.PriorityScore >= HighScoreThreshold:
		return PriorityHigh
	case a.UrgencyClassification == PriorityMedium || a.PriorityScore >= MediumScoreThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// TimestampLayout is the ISO-8601 form used on the wire and in storage.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and plain RFC3339 values.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
