// Package analysis scores maintenance messages by keyword and exposes the
// classifier both in-process and over HTTP.
package analysis

import (
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

var (
	highPriorityTerms = []string{
		"leak", "flood", "burst", "sewage",
		"sparking", "power outage", "exposed wires",
		"broken window", "roof leak",
		"gas leak", "smoke detector", "no heat", "frozen pipes",
	}

	mediumPriorityTerms = []string{
		"broken appliance", "appliance", "stuck door", "noisy equipment",
		"noisy", "malfunction", "fridge not working",
	}

	lowPriorityTerms = []string{
		"cosmetic", "paint", "touch-up", "squeaky hinge", "minor repair",
	}

	urgencyBoosters = []string{
		"urgent", "immediately", "asap", "emergency", "right away", "now",
	}
)

// Scores are kept in hundredths so rounding is exact.
const (
	highBaseScore   = 90
	mediumBaseScore = 50
	lowBaseScore    = 20
	boosterScore    = 5
	maxScore        = 100
)

// Analyze classifies message. It is deterministic and has no side effects.
func Analyze(message string) domain.AnalysisResult {
	lower := strings.ToLower(message)

	high := matchTerms(lower, highPriorityTerms)
	medium := matchTerms(lower, mediumPriorityTerms)
	low := matchTerms(lower, lowPriorityTerms)
	boosters := matchTerms(lower, urgencyBoosters)

	var (
		tier     domain.Priority
		keywords []string
		score    int
	)
	switch {
	case len(high) > 0:
		tier, keywords, score = domain.PriorityHigh, high, highBaseScore
	case len(medium) > 0:
		tier, keywords, score = domain.PriorityMedium, medium, mediumBaseScore
	case len(low) > 0:
		tier, keywords, score = domain.PriorityLow, low, lowBaseScore
	default:
		tier, keywords, score = domain.PriorityLow, []string{domain.SentinelKeyword}, lowBaseScore
	}

	score += boosterScore * len(boosters)
	if score > maxScore {
		score = maxScore
	}

	return domain.AnalysisResult{
		Keywords:              dedupe(append(keywords, boosters...)),
		UrgencyClassification: tier,
		PriorityScore:         float64(score) / 100,
	}
}

// matchTerms returns the terms found as substrings of text, in list order.
func matchTerms(text string, terms []string) []string {
	var matched []string
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}
	return dedupe(matched)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
