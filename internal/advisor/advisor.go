// Package advisor derives planning suggestions from the current cart. The
// analysis is a pure function of the item list and the clock; it holds no
// state and performs no I/O.
package advisor

import (
	"fmt"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

const (
	// groupSize is the combined quantity at which group pricing applies.
	groupSize = 4
	// budgetThreshold splits the value and premium budget tiers, in the
	// catalog's display currency.
	budgetThreshold = 500
	// longTripDays is the combined duration that tips a trip into the
	// multi-week planning advisory.
	longTripDays = 7
)

type season string

const (
	seasonWinter season = "winter"
	seasonSpring season = "spring"
	seasonSummer season = "summer"
	seasonAutumn season = "autumn"
)

// seasonOf buckets a month into a travel season. November counts as winter
// in the catalog's high-altitude bias.
func seasonOf(month time.Month) season {
	switch month {
	case time.November, time.December, time.January:
		return seasonWinter
	case time.June, time.July, time.August:
		return seasonSummer
	case time.February, time.March, time.April, time.May:
		return seasonSpring
	default:
		return seasonAutumn
	}
}

// Analyze inspects the cart and returns ordered suggestions. It never
// panics: any internal failure collapses to the single fallback tip.
func Analyze(items []models.CartItem, now time.Time) (out []models.Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			out = []models.Suggestion{{
				Type:    models.SuggestionFallback,
				Icon:    "✅",
				Title:   "Analysis complete",
				Message: "Your cart looks good. Review dates before checkout.",
			}}
		}
	}()

	totalQty := 0
	totalPrice := 0.0
	totalDays := 0.0
	regions := map[string]struct{}{}
	for _, it := range items {
		totalQty += it.Quantity
		totalPrice += it.Price.Max * float64(it.Quantity)
		totalDays += it.DurationDays
		if it.Region != "" {
			regions[it.Region] = struct{}{}
		}
	}

	out = append(out, models.Suggestion{
		Type:    models.SuggestionSummary,
		Icon:    "🧭",
		Title:   "Trip summary",
		Message: fmt.Sprintf("%d experience(s) in your cart for %d traveler slot(s).", len(items), totalQty),
	})

	if len(regions) > 1 {
		out = append(out, models.Suggestion{
			Type:    models.SuggestionLogistic,
			Icon:    "🗺️",
			Title:   "Multiple regions",
			Message: fmt.Sprintf("Your picks span %d regions. Leave a travel day between regions.", len(regions)),
		})
	}

	if totalQty >= groupSize {
		out = append(out, models.Suggestion{
			Type:    models.SuggestionDiscount,
			Icon:    "👥",
			Title:   "Group discount unlocked",
			Message: fmt.Sprintf("Groups of %d+ qualify for group pricing. Ask your operator at booking.", groupSize),
		})
	} else if len(items) > 0 {
		out = append(out, models.Suggestion{
			Type:    models.SuggestionUpsell,
			Icon:    "➕",
			Title:   "Almost a group",
			Message: fmt.Sprintf("Add %d more traveler slot(s) to unlock group pricing.", groupSize-totalQty),
		})
	}

	current := seasonOf(now.Month())
	for _, it := range items {
		if len(it.BestSeasons) == 0 {
			continue
		}
		match := false
		for _, m := range it.BestSeasons {
			if m < 1 || m > 12 {
				continue
			}
			if seasonOf(time.Month(m)) == current {
				match = true
				break
			}
		}
		if !match {
			out = append(out, models.Suggestion{
				Type:    models.SuggestionSeason,
				Icon:    "🌦️",
				Title:   "Off-season pick",
				Message: fmt.Sprintf("%s is best outside %s. Check conditions for your dates.", displayName(it), current),
			})
		}
	}

	if len(items) > 0 {
		tip := models.Suggestion{
			Type: models.SuggestionBudget,
			Icon: "💰",
		}
		if totalPrice > budgetThreshold {
			tip.Title = "Premium itinerary"
			tip.Message = fmt.Sprintf("Estimated total tops %.0f. Book early for the best rates.", float64(budgetThreshold))
		} else {
			tip.Title = "Budget friendly"
			tip.Message = fmt.Sprintf("Estimated total stays under %.0f. Room left for extras.", float64(budgetThreshold))
		}
		out = append(out, tip)
	}

	if totalDays > longTripDays {
		out = append(out, models.Suggestion{
			Type:    models.SuggestionDuration,
			Icon:    "🗓️",
			Title:   "Long trip",
			Message: fmt.Sprintf("Combined duration is %.0f days. Plan rest days and logistics between activities.", totalDays),
		})
	}

	return out
}

func displayName(it models.CartItem) string {
	if it.Title != "" {
		return it.Title
	}
	return it.SubjectID
}
