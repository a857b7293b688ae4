// Package service contains the business logic for the tripcart API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/jobs"
	"github.com/voyagerhq/tripcart/internal/repo"
)

// TripService implements business logic for Trip operations: creation
// (which kicks off deferred generation), listing, polling, and deletion.
type TripService struct {
	repo  repo.TripRepo
	queue jobs.Queue
	log   *slog.Logger
}

// NewTripService constructs a TripService backed by the provided repo
// and generation job queue.
func NewTripService(r repo.TripRepo, q jobs.Queue, log *slog.Logger) *TripService {
	return &TripService{repo: r, queue: q, log: log}
}

// Create validates and persists a new trip, then enqueues its generation
// job. The returned trip always has status generating and no itinerary;
// the caller polls Status to observe the outcome.
//
// If the job cannot be enqueued the trip is marked failed immediately —
// a trip stuck at generating with no job behind it would poll forever.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	trip.Status = domain.TripStatusGenerating
	trip.Itinerary = nil

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	if err := s.queue.Enqueue(ctx, jobs.GenerationJob{TripID: created.ID}); err != nil {
		s.log.Error("enqueue generation job failed, failing trip", "trip_id", created.ID, "error", err)
		if failErr := s.repo.FailItinerary(ctx, created.ID); failErr != nil {
			s.log.Error("mark trip failed after enqueue error", "trip_id", created.ID, "error", failErr)
		}
		created.Status = domain.TripStatusFailed
	}

	return created, nil
}

// GetByID returns a single trip by ID. No ownership check happens at
// this layer; reads are scoped by the caller where needed.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// ListByOwner returns all trips owned by ownerID, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Trip, error) {
	trips, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListByOwner: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// Status returns the polling summary for a trip. A missing trip is not
// an error: Exists is false and the caller keeps or stops polling as it
// sees fit.
func (s *TripService) Status(ctx context.Context, id uuid.UUID) (domain.TripStatusSummary, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TripStatusSummary{Exists: false}, nil
		}
		return domain.TripStatusSummary{}, fmt.Errorf("service.TripService.Status: %w", err)
	}
	return domain.TripStatusSummary{
		Exists:       true,
		Status:       trip.Status,
		HasItinerary: trip.Itinerary != nil,
	}, nil
}

// Delete removes a trip after verifying the requester owns it.
// Returns domain.ErrForbidden on an ownership mismatch and
// domain.ErrNotFound when the trip does not exist. The trip's cart is
// deliberately left untouched.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID, requestingOwner string) error {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if trip.OwnerID != requestingOwner {
		return fmt.Errorf("service.TripService.Delete: %w: not the trip owner", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip enforces the creation constraints.
//   - Destination must be non-empty (whitespace-only is rejected).
//   - EndDate must not be before StartDate (same-day trips are valid).
//   - Travelers must be at least 1.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if trip.Travelers < 1 {
		return fmt.Errorf("%w: travelers must be at least 1", domain.ErrValidation)
	}
	return nil
}
