package triage

// Urgency is the ordered clinical severity assigned to a patient message.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// Valid reports whether u is one of the four known urgency levels.
func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// AtLeast reports whether u is at or above the given level in the total
// order low < medium < high < critical.
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyRank[u] >= urgencyRank[other]
}

// NeedsAlert reports whether a message classified at this urgency must raise
// a clinician alert.
func (u Urgency) NeedsAlert() bool {
	return u.AtLeast(UrgencyHigh)
}
