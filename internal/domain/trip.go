// Package domain contains the core data types for the tripcart API.
// This package has zero external service dependencies and is imported by
// every other internal package (repo, service, handler, itinerary).
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TripStatus tracks where a trip is in its generation lifecycle.
// A trip is created in TripStatusGenerating and moves exactly once to
// either TripStatusCompleted or TripStatusFailed; both are terminal.
type TripStatus string

const (
	TripStatusGenerating TripStatus = "generating"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusFailed     TripStatus = "failed"
)

// Trip represents a single planned trip owned by one user.
// A trip is the top-level aggregate; the cart belongs to a trip.
//
// Itinerary is nil while Status is TripStatusGenerating and stays nil
// forever when generation fails. It is non-nil exactly when Status is
// TripStatusCompleted.
type Trip struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Destination string          `json:"destination"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Budget      string          `json:"budget,omitempty"` // free-form tier ("mid-range") or amount
	Travelers   int             `json:"travelers"`
	Interests   []string        `json:"interests,omitempty"`
	Status      TripStatus      `json:"status"`
	Itinerary   json.RawMessage `json:"itinerary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Nights returns the number of nights between the trip's start and end
// dates. A same-day trip has zero nights.
func (t Trip) Nights() int {
	return int(t.EndDate.Sub(t.StartDate).Hours() / 24)
}

// TripStatusSummary is the polling view of a trip's generation progress.
// It is safe to request before the trip exists: Exists is false and the
// other fields are zero values rather than an error.
type TripStatusSummary struct {
	Exists       bool       `json:"exists"`
	Status       TripStatus `json:"status,omitempty"`
	HasItinerary bool       `json:"has_itinerary"`
}
