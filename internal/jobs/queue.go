// Package jobs provides the deferred job queue that decouples itinerary
// generation from the request/response path. A job carries only the trip
// id — never a closure over mutable state — so any worker process can
// pick it up.
package jobs

import (
	"context"

	"github.com/google/uuid"
)

// GenerationJob is one unit of deferred itinerary-generation work.
type GenerationJob struct {
	TripID uuid.UUID `json:"trip_id"`
}

// Queue is the transport between trip creation and the generation worker.
// Enqueue must return promptly; Dequeue blocks until a job is available
// or ctx is cancelled.
type Queue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Dequeue(ctx context.Context) (GenerationJob, error)
}
