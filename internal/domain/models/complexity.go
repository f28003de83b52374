package models

// Tier is the capability class of model a prompt is routed to.
type Tier string

const (
	TierSimple   Tier = "simple"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
)

// TierOrder lists tiers from least to most capable. Tie-breaks and
// fallback walks both rely on this ordering.
var TierOrder = []Tier{TierSimple, TierModerate, TierComplex}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierSimple, TierModerate, TierComplex:
		return true
	}
	return false
}

// LessCapable returns the next tier down the capability ladder.
// The second return value is false when t is already the lowest tier.
func (t Tier) LessCapable() (Tier, bool) {
	switch t {
	case TierComplex:
		return TierModerate, true
	case TierModerate:
		return TierSimple, true
	}
	return "", false
}

// ComplexityScore holds per-tier match counts for a classified prompt
// plus the tier those counts resolved to. Built fresh per classification
// call and discarded after routing.
type ComplexityScore struct {
	Scores     map[Tier]int `json:"scores"`
	ChosenTier Tier         `json:"chosen_tier"`
}
