package types

import (
	"github.com/google/uuid"
)

// CatalogPlace is one entry of the bookable-content catalog. Names are
// bilingual; Keyword holds comma-separated search terms maintained by the
// content team. AIEnabled gates whether the modification engine may pick
// the entry automatically.
type CatalogPlace struct {
	ID          uuid.UUID `json:"id"`
	PlaceType   ItemType  `json:"place_type"`
	NameKor     string    `json:"name_kor"`
	NameEng     string    `json:"name_eng"`
	Description string    `json:"description,omitempty"`
	Keyword     string    `json:"keyword,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	Region      string    `json:"region,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	AIEnabled   bool      `json:"ai_enabled"`
}

// DisplayName returns the English name when present, otherwise the Korean one.
func (p CatalogPlace) DisplayName() string {
	if p.NameEng != "" {
		return p.NameEng
	}
	return p.NameKor
}

// Snapshot denormalizes the display fields carried on itinerary items.
func (p CatalogPlace) Snapshot() *PlaceSnapshot {
	return &PlaceSnapshot{
		NameKor:     p.NameKor,
		NameEng:     p.NameEng,
		Description: p.Description,
		Images:      p.Images,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
	}
}

// ScoredPlace is a catalog entry plus the trigram similarity of the query
// that produced it.
type ScoredPlace struct {
	CatalogPlace
	Score float64 `json:"score"`
}

// EligibilityFilter selects catalog entries by their ai_enabled flag.
type EligibilityFilter int

const (
	EligibilityAny EligibilityFilter = iota
	EligibleOnly
	IneligibleOnly
)

// CatalogFilter drives the structured catalog search. RegionVariants is the
// already-expanded synonym set for one region and is OR'd in the query.
// Categories and InterestTerms form one OR group between them (tag overlap
// OR raw-term substring over keyword/description); TextQuery is an OR'd
// substring across all text fields. All groups are AND'd with type, region
// and the exclusion list.
type CatalogFilter struct {
	Type           ItemType
	RegionVariants []string
	Categories     []string
	InterestTerms  []string
	TextQuery      string
	ExcludeIDs     []uuid.UUID
	Eligibility    EligibilityFilter
	Limit          int
}

// FuzzySearchOptions configures the batched trigram search.
type FuzzySearchOptions struct {
	Type           ItemType
	Threshold      float64
	RegionVariants []string
	ExcludeIDs     []uuid.UUID
	Eligibility    EligibilityFilter
}
