// Package repo contains all database access logic for the tripcart API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByOwner returns all trips for one owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Trip, error)

	// CompleteItinerary attaches the generated payload and flips status to
	// completed. The write is guarded by status = 'generating': once a trip
	// is terminal (or deleted) the call affects nothing and reports
	// domain.ErrNotFound, so a stale generation job can never overwrite a
	// terminal outcome.
	CompleteItinerary(ctx context.Context, id uuid.UUID, itinerary json.RawMessage) error

	// FailItinerary flips status to failed with no itinerary, under the
	// same status = 'generating' guard as CompleteItinerary.
	FailItinerary(ctx context.Context, id uuid.UUID) error

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does
	// not exist. The cart, if any, is intentionally left in place.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, owner_id, destination, start_date, end_date, budget,
		       travelers, interests, status, itinerary, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (owner_id, destination, start_date, end_date, budget, travelers, interests, status)
		VALUES (@owner_id, @destination, @start_date, @end_date, @budget, @travelers, @interests, @status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"owner_id":    trip.OwnerID,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"budget":      trip.Budget,
		"travelers":   trip.Travelers,
		"interests":   trip.Interests,
		"status":      trip.Status,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByOwner returns all trips for one owner ordered by creation time
// descending (most recent first).
func (r *pgTripRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE owner_id = @owner_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByOwner: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByOwner: rows: %w", err)
	}

	return trips, nil
}

// CompleteItinerary writes the terminal completed state.
// The status guard makes the transition a compare-and-swap: zero rows
// affected means the trip is already terminal or gone.
func (r *pgTripRepo) CompleteItinerary(ctx context.Context, id uuid.UUID, itinerary json.RawMessage) error {
	const q = `
		UPDATE trips
		SET status     = 'completed',
		    itinerary  = @itinerary,
		    updated_at = now()
		WHERE id = @id AND status = 'generating'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "itinerary": itinerary})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.CompleteItinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.CompleteItinerary: %w", domain.ErrNotFound)
	}
	return nil
}

// FailItinerary writes the terminal failed state, leaving itinerary NULL.
func (r *pgTripRepo) FailItinerary(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE trips
		SET status     = 'failed',
		    itinerary  = NULL,
		    updated_at = now()
		WHERE id = @id AND status = 'generating'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.FailItinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.FailItinerary: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and nullable itinerary conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
		itinerary []byte
	)

	err := s.Scan(&id, &t.OwnerID, &t.Destination, &startDate, &endDate, &t.Budget,
		&t.Travelers, &t.Interests, &t.Status, &itinerary, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = startDate.Time
	t.EndDate = endDate.Time
	if len(itinerary) > 0 {
		t.Itinerary = json.RawMessage(itinerary)
	}

	return t, nil
}
