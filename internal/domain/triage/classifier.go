// Package triage classifies free-text symptom descriptions from pregnant
// patients into an urgency level. The classifier is a fixed bilingual
// keyword table rather than a model: it runs inline on the hot ingestion
// path with no external calls, and its bias is toward over-alerting, which
// is the safe direction for a maternal-health screen.
package triage

import "strings"

// Result is the outcome of classifying one message.
type Result struct {
	Urgency Urgency
	// Symptom is the matched category name, empty when nothing matched.
	Symptom string
}

// normalize trims, lowercases, and collapses internal whitespace so that
// keyword containment is insensitive to casing and spacing.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Classify scans the message against every keyword of every category and
// returns the highest-urgency match. Matching is substring containment on
// normalized text, deliberately a superset of word-boundary matching. Ties at
// the same urgency keep the first category in table order. No match yields
// {low, ""}.
func Classify(text string) Result {
	normalized := normalize(text)

	best := Result{Urgency: UrgencyLow}
	matched := false

	for _, cat := range symptomTable {
		for _, kw := range cat.allKeywords() {
			if !strings.Contains(normalized, normalize(kw)) {
				continue
			}
			if !matched || urgencyRank[cat.Urgency] > urgencyRank[best.Urgency] {
				best = Result{Urgency: cat.Urgency, Symptom: cat.Name}
				matched = true
			}
		}
	}

	return best
}
