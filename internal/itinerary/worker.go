package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/jobs"
	"github.com/voyagerhq/tripcart/internal/repo"
)

// generateTimeout bounds one generation attempt. Supplier latency is
// seconds in the normal case; anything past this is a supplier failure.
const generateTimeout = 60 * time.Second

// Worker consumes generation jobs from the queue and drives each trip to
// its terminal status. It is the only writer of trip status after
// creation.
//
// A failed generation is terminal — there is no retry of the generation
// itself. Only transient queue receive errors are retried, with backoff.
type Worker struct {
	queue jobs.Queue
	trips repo.TripRepo
	gen   Generator
	log   *slog.Logger
}

// NewWorker constructs a Worker. The logger must be non-nil.
func NewWorker(queue jobs.Queue, trips repo.TripRepo, gen Generator, log *slog.Logger) *Worker {
	return &Worker{queue: queue, trips: trips, gen: gen, log: log}
}

// Run consumes jobs until ctx is cancelled. Call it on its own goroutine:
// the creating request never blocks on generation.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("itinerary worker stopping")
				return
			}
			w.log.Error("itinerary worker: dequeue failed", "error", err)
			continue
		}
		w.process(ctx, job)
	}
}

// dequeue blocks for the next job, retrying transient queue errors with
// fibonacci backoff so a Redis blip does not kill the worker loop.
func (w *Worker) dequeue(ctx context.Context) (jobs.GenerationJob, error) {
	var job jobs.GenerationJob
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		job, err = w.queue.Dequeue(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Warn("itinerary worker: dequeue error, backing off", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	return job, err
}

// process runs one generation job to its terminal write.
//
// Every outcome here is absorbed rather than propagated: the caller that
// triggered the job returned long ago, so failures surface through trip
// status (or a log line when the trip is already gone).
func (w *Worker) process(ctx context.Context, job jobs.GenerationJob) {
	log := w.log.With("trip_id", job.TripID)

	trip, err := w.trips.GetByID(ctx, job.TripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Trip deleted while the job was queued. Drop the job.
			log.Info("generation skipped: trip no longer exists")
			return
		}
		log.Error("generation aborted: load trip", "error", err)
		return
	}
	if trip.Status != domain.TripStatusGenerating {
		// Duplicate or stale job; the trip already reached a terminal
		// state and must not be overwritten.
		log.Info("generation skipped: trip already terminal", "status", trip.Status)
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	payload, err := w.gen.Generate(genCtx, trip)
	if err != nil {
		log.Warn("generation failed", "error", err)
		w.writeTerminal(ctx, log, func() error {
			return w.trips.FailItinerary(ctx, job.TripID)
		})
		return
	}

	w.writeTerminal(ctx, log, func() error {
		return w.trips.CompleteItinerary(ctx, job.TripID, payload)
	})
	log.Info("generation finished", "status", domain.TripStatusCompleted)
}

// writeTerminal applies a terminal status write, treating a missing or
// already-terminal trip as an ignorable race rather than a fatal error.
func (w *Worker) writeTerminal(ctx context.Context, log *slog.Logger, write func() error) {
	if err := write(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("terminal write dropped: trip deleted or already terminal")
			return
		}
		log.Error("terminal write failed", "error", err)
	}
}
