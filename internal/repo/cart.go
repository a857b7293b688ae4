package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// CartRepo defines the persistence operations for Carts.
// A cart row stores its line items as a JSONB array; the repo is the only
// place that marshals them. Item merge semantics live in the service layer.
type CartRepo interface {
	// GetByOwnerAndTrip retrieves the single cart for an (owner, trip) pair.
	// Returns domain.ErrNotFound if none exists.
	GetByOwnerAndTrip(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.Cart, error)

	// Create inserts a new pending cart and returns the persisted record.
	Create(ctx context.Context, cart domain.Cart) (domain.Cart, error)

	// UpdateItems overwrites the item list and total of an existing cart.
	// Returns domain.ErrNotFound if the cart no longer exists.
	UpdateItems(ctx context.Context, id uuid.UUID, items []domain.LineItem, total float64) (domain.Cart, error)

	// MarkCheckout transitions status pending -> checkout. The write is
	// guarded by status = 'pending'; a cart that is missing or already
	// checked out reports domain.ErrNotFound.
	MarkCheckout(ctx context.Context, id uuid.UUID) error

	// Delete removes a cart by ID. No-op semantics are the caller's
	// concern: a missing cart reports domain.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgCartRepo is the Postgres implementation of CartRepo.
type pgCartRepo struct {
	db db
}

// NewCartRepo constructs a CartRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCartRepo(db db) CartRepo {
	return &pgCartRepo{db: db}
}

const cartColumns = `id, owner_id, trip_id, items, total, currency, status, created_at, updated_at`

// GetByOwnerAndTrip retrieves a cart by its (owner, trip) identity.
func (r *pgCartRepo) GetByOwnerAndTrip(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.Cart, error) {
	const q = `
		SELECT ` + cartColumns + `
		FROM carts
		WHERE owner_id = @owner_id AND trip_id = @trip_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner_id": ownerID, "trip_id": tripID})
	result, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.CartRepo.GetByOwnerAndTrip: %w", err)
	}
	return result, nil
}

// Create inserts a new cart row and returns the full persisted record.
func (r *pgCartRepo) Create(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.CartRepo.Create: marshal items: %w", err)
	}

	const q = `
		INSERT INTO carts (owner_id, trip_id, items, total, currency, status)
		VALUES (@owner_id, @trip_id, @items, @total, @currency, @status)
		RETURNING ` + cartColumns

	args := pgx.NamedArgs{
		"owner_id": cart.OwnerID,
		"trip_id":  cart.TripID,
		"items":    items,
		"total":    cart.Total,
		"currency": cart.Currency,
		"status":   cart.Status,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.CartRepo.Create: %w", err)
	}
	return result, nil
}

// UpdateItems overwrites items and total, bumping updated_at.
func (r *pgCartRepo) UpdateItems(ctx context.Context, id uuid.UUID, items []domain.LineItem, total float64) (domain.Cart, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.CartRepo.UpdateItems: marshal items: %w", err)
	}

	const q = `
		UPDATE carts
		SET items      = @items,
		    total      = @total,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + cartColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "items": encoded, "total": total})
	result, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.CartRepo.UpdateItems: %w", err)
	}
	return result, nil
}

// MarkCheckout flips status pending -> checkout as a compare-and-swap.
func (r *pgCartRepo) MarkCheckout(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE carts
		SET status     = 'checkout',
		    updated_at = now()
		WHERE id = @id AND status = 'pending'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.CartRepo.MarkCheckout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CartRepo.MarkCheckout: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes a cart by primary key.
func (r *pgCartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM carts WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.CartRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CartRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanCart maps a single database row into a domain.Cart, decoding the
// JSONB items array.
func scanCart(s scanner) (domain.Cart, error) {
	var (
		c      domain.Cart
		id     pgtype.UUID
		tripID pgtype.UUID
		items  []byte
	)

	err := s.Scan(&id, &c.OwnerID, &tripID, &items, &c.Total, &c.Currency, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Cart{}, domain.ErrNotFound
		}
		return domain.Cart{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.TripID = uuid.UUID(tripID.Bytes)
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal items: %w", err)
	}

	return c, nil
}
