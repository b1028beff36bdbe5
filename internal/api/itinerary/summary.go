package itinerary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/curatrip/curatrip-server/internal/types"
)

// SummarizeItems renders the per-day item list the way completion prompts
// embed it. Items are grouped by day and listed in order.
func SummarizeItems(items []types.ItineraryItem) string {
	if len(items) == 0 {
		return "The itinerary is currently empty."
	}

	byDay := lo.GroupBy(items, func(item types.ItineraryItem) int {
		return item.DayNumber
	})
	days := lo.Keys(byDay)
	sort.Ints(days)

	var sb strings.Builder
	for _, day := range days {
		dayItems := byDay[day]
		sort.Slice(dayItems, func(i, j int) bool {
			return dayItems[i].OrderIndex < dayItems[j].OrderIndex
		})
		fmt.Fprintf(&sb, "Day %d:\n", day)
		for i, item := range dayItems {
			marker := ""
			if item.IsTBD {
				marker = " [TBD]"
			}
			fmt.Fprintf(&sb, "  %d. %s (%s)%s\n", i+1, item.ItemName, item.Type, marker)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
