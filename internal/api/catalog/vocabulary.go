package catalog

import "strings"

// regionVariants maps a canonical lowercase region key to the spellings that
// appear in catalog rows. Catalog data mixes Korean and romanized names, so a
// region filter must OR across all of them.
var regionVariants = map[string][]string{
	"seoul":     {"서울", "seoul", "Seoul"},
	"busan":     {"부산", "busan", "Busan"},
	"jeju":      {"제주", "제주도", "jeju", "Jeju"},
	"incheon":   {"인천", "incheon", "Incheon"},
	"gyeongju":  {"경주", "gyeongju", "Gyeongju"},
	"gangneung": {"강릉", "gangneung", "Gangneung"},
	"jeonju":    {"전주", "jeonju", "Jeonju"},
	"sokcho":    {"속초", "sokcho", "Sokcho"},
	"daegu":     {"대구", "daegu", "Daegu"},
	"daejeon":   {"대전", "daejeon", "Daejeon"},
	"gwangju":   {"광주", "gwangju", "Gwangju"},
	"suwon":     {"수원", "suwon", "Suwon"},
}

// RegionVariants returns every catalog spelling for a region. Unknown regions
// fall back to the input itself so the filter still narrows rather than
// silently matching everything.
func RegionVariants(region string) []string {
	key := strings.ToLower(strings.TrimSpace(region))
	if key == "" {
		return nil
	}
	if variants, ok := regionVariants[key]; ok {
		out := make([]string, len(variants))
		copy(out, variants)
		return out
	}
	return []string{region}
}

// interestCategories maps customer interest terms to catalog category tags.
// The catalog tags its rows with curated theme labels, not free text, so
// interests have to be translated before they can drive a category filter.
var interestCategories = map[string][]string{
	"food":      {"Theme:Foodie"},
	"foodie":    {"Theme:Foodie"},
	"history":   {"Theme:History"},
	"culture":   {"Theme:Culture", "Theme:History"},
	"nature":    {"Theme:Nature"},
	"hiking":    {"Theme:Nature", "Theme:Adventure"},
	"shopping":  {"Theme:Shopping"},
	"art":       {"Theme:Art"},
	"nightlife": {"Theme:Nightlife"},
	"kwave":     {"Theme:KWave"},
	"kpop":      {"Theme:KWave"},
	"wellness":  {"Theme:Wellness"},
	"adventure": {"Theme:Adventure"},
	"family":    {"Theme:Family"},
}

// CategoriesForInterests translates interest terms into distinct catalog
// category tags, preserving first-seen order. Terms with no mapping are
// skipped; callers that still want them can fall back to raw-term matching.
func CategoriesForInterests(interests []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, interest := range interests {
		key := strings.ToLower(strings.TrimSpace(interest))
		for _, category := range interestCategories[key] {
			if _, dup := seen[category]; dup {
				continue
			}
			seen[category] = struct{}{}
			out = append(out, category)
		}
	}
	return out
}
