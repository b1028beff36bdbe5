package types

type MatchTier string

const (
	MatchTierExact     MatchTier = "exact"
	MatchTierPartial   MatchTier = "partial"
	MatchTierFuzzy     MatchTier = "fuzzy"
	MatchTierUnmatched MatchTier = "unmatched"
)

// MatchInput is one name to resolve, optionally paired with its local-script
// spelling when the caller already knows it.
type MatchInput struct {
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name,omitempty"`
}

// MatchResult pairs an input with the tier that resolved it. Place is nil
// for the unmatched tier; Score is populated only by the fuzzy tier.
type MatchResult struct {
	Input MatchInput    `json:"input"`
	Tier  MatchTier     `json:"tier"`
	Place *CatalogPlace `json:"place,omitempty"`
	Score float64       `json:"score,omitempty"`
}

// Matched reports whether any tier resolved the input.
func (r MatchResult) Matched() bool {
	return r.Tier != MatchTierUnmatched && r.Place != nil
}
