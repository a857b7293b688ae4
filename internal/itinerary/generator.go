// Package itinerary produces the generated travel plan payload for a trip
// and runs the background worker that writes it back.
//
// The payload is opaque to the rest of the system: trip records store it
// as raw JSON and the API returns it unmodified.
package itinerary

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// ErrSupplier wraps any failure of the external generation supplier.
// The worker converts it into a terminal failed trip rather than
// propagating it — the creating caller returned long ago.
var ErrSupplier = errors.New("itinerary supplier error")

// Generator produces an itinerary payload for a trip.
// Implementations must treat the trip as read-only and return either a
// complete payload or an error wrapping ErrSupplier.
type Generator interface {
	Generate(ctx context.Context, trip domain.Trip) (json.RawMessage, error)
}
