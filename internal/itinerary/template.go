package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// dayThemes are cycled through to give each generated day a distinct
// focus. The first and last day are always arrival and departure.
var dayThemes = []string{
	"Old town walking tour",
	"Museums and galleries",
	"Local food crawl",
	"Day trip to the surroundings",
	"Markets and neighborhoods",
	"Parks and viewpoints",
}

// TemplateGenerator assembles a deterministic placeholder itinerary from
// fixed per-day templates. It never fails and calls no external service,
// which makes it the default generator when no supplier is configured
// and the fixture generator in tests.
type TemplateGenerator struct{}

// compile-time check: TemplateGenerator must satisfy Generator.
var _ Generator = TemplateGenerator{}

// templateDay is one day of the placeholder plan.
type templateDay struct {
	Day        int      `json:"day"`
	Title      string   `json:"title"`
	Activities []string `json:"activities"`
}

// templatePayload is the JSON shape of the placeholder itinerary.
type templatePayload struct {
	Destination string        `json:"destination"`
	Days        []templateDay `json:"days"`
	Summary     string        `json:"summary"`
}

// Generate builds the placeholder payload. The same trip always yields
// the same payload.
func (TemplateGenerator) Generate(_ context.Context, trip domain.Trip) (json.RawMessage, error) {
	nights := trip.Nights()
	days := nights + 1

	payload := templatePayload{
		Destination: trip.Destination,
		Summary: fmt.Sprintf("%d-day trip to %s for %d traveler(s)",
			days, trip.Destination, trip.Travelers),
	}

	for d := 1; d <= days; d++ {
		td := templateDay{Day: d}
		switch {
		case d == 1:
			td.Title = "Arrival"
			td.Activities = []string{
				fmt.Sprintf("Arrive in %s and check in", trip.Destination),
				"Evening stroll near the hotel",
			}
		case d == days:
			td.Title = "Departure"
			td.Activities = []string{"Last-minute souvenirs", "Head to the airport"}
		default:
			theme := dayThemes[(d-2)%len(dayThemes)]
			td.Title = theme
			td.Activities = []string{theme, interestActivity(trip.Interests, d)}
		}
		payload.Days = append(payload.Days, td)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("itinerary.TemplateGenerator: marshal: %w", err)
	}
	return encoded, nil
}

// interestActivity picks one of the trip's interest tags for the given
// day, falling back to a generic suggestion when none were given.
func interestActivity(interests []string, day int) string {
	if len(interests) == 0 {
		return "Free time to explore"
	}
	tag := interests[(day-2)%len(interests)]
	return "Time for " + strings.ToLower(tag)
}
