package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/repo"
)

// CartService implements the cart rules for one (owner, trip) pair:
// merge-keyed adds, removal, quantity changes, and the checkout
// transition. It holds the trip repo as well because the first add must
// verify the parent trip exists.
//
// Invariants maintained here:
//   - Total is recomputed as the full sum over items after every
//     mutation, never adjusted incrementally.
//   - An empty cart is never persisted; the record is deleted instead.
type CartService struct {
	trips repo.TripRepo
	carts repo.CartRepo
}

// NewCartService constructs a CartService backed by the provided repos.
func NewCartService(trips repo.TripRepo, carts repo.CartRepo) *CartService {
	return &CartService{trips: trips, carts: carts}
}

// Get returns the cart for (owner, trip).
// Returns domain.ErrNotFound when no cart exists — an empty cart and a
// missing cart are the same observable state.
func (s *CartService) Get(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.Cart, error) {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("service.CartService.Get: %w", err)
	}
	return cart, nil
}

// AddItem adds item to the (owner, trip) cart, creating the cart on
// first add. An existing item with the same (name, day, skip-line) merge
// key absorbs the incoming quantity; its price and other fields are
// retained, not overwritten. Anything else appends as a new line item.
func (s *CartService) AddItem(ctx context.Context, ownerID string, tripID uuid.UUID, item domain.LineItem) (domain.Cart, error) {
	if err := validateItem(item); err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.createCart(ctx, ownerID, tripID, item)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("service.CartService.AddItem: %w", err)
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].MatchesKey(item.Name, item.Day, item.SkipLine) {
			cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}

	updated, err := s.carts.UpdateItems(ctx, cart.ID, cart.Items, domain.CartTotal(cart.Items))
	if err != nil {
		return domain.Cart{}, fmt.Errorf("service.CartService.AddItem: %w", err)
	}
	return updated, nil
}

// createCart persists a brand-new pending cart holding only item.
// The parent trip must exist; adding to a cart of a deleted trip is a
// not-found, not a silent creation.
func (s *CartService) createCart(ctx context.Context, ownerID string, tripID uuid.UUID, item domain.LineItem) (domain.Cart, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return domain.Cart{}, fmt.Errorf("service.CartService.AddItem: %w", err)
	}

	items := []domain.LineItem{item}
	created, err := s.carts.Create(ctx, domain.Cart{
		OwnerID:  ownerID,
		TripID:   tripID,
		Items:    items,
		Total:    domain.CartTotal(items),
		Currency: item.Currency,
		Status:   domain.CartStatusPending,
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("service.CartService.AddItem: %w", err)
	}
	return created, nil
}

// RemoveItem removes every item matching the (name, day, skipLine) merge
// key. Removing the last item deletes the cart record entirely. A
// missing cart or a key with no match is a no-op, never an error — the
// call is idempotent.
func (s *CartService) RemoveItem(ctx context.Context, ownerID string, tripID uuid.UUID, name string, day *int, skipLine bool) error {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.CartService.RemoveItem: %w", err)
	}

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if !it.MatchesKey(name, day, skipLine) {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(cart.Items) {
		return nil
	}

	return s.persistOrDelete(ctx, cart.ID, kept, "RemoveItem")
}

// SetItemQuantity replaces the quantity of the item located by
// (name, itemType, day). A quantity of zero or less removes that item by
// its merge key. Locating nothing is a no-op.
func (s *CartService) SetItemQuantity(ctx context.Context, ownerID string, tripID uuid.UUID, name, itemType string, day *int, quantity int) error {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.CartService.SetItemQuantity: %w", err)
	}

	idx := -1
	for i, it := range cart.Items {
		if it.Name == name && it.Type == itemType && sameOptionalDay(it.Day, day) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	if quantity <= 0 {
		target := cart.Items[idx]
		return s.RemoveItem(ctx, ownerID, tripID, target.Name, target.Day, target.SkipLine)
	}

	cart.Items[idx].Quantity = quantity
	return s.persistOrDelete(ctx, cart.ID, cart.Items, "SetItemQuantity")
}

// Clear deletes the cart record outright. A missing cart is a no-op.
func (s *CartService) Clear(ctx context.Context, ownerID string, tripID uuid.UUID) error {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.CartService.Clear: %w", err)
	}
	if err := s.carts.Delete(ctx, cart.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.CartService.Clear: %w", err)
	}
	return nil
}

// ItemCount returns the sum of quantities across the cart's items, or
// zero when no cart exists.
func (s *CartService) ItemCount(ctx context.Context, ownerID string, tripID uuid.UUID) (int, error) {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service.CartService.ItemCount: %w", err)
	}
	return domain.CartItemCount(cart.Items), nil
}

// Checkout attempts the pending -> checkout transition and synthesizes
// one booking reference per line item. An absent or empty cart — or one
// already checked out — is a reported business outcome with
// Success=false, never an error. Payment and supplier calls happen
// downstream of this service.
func (s *CartService) Checkout(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.CheckoutResult, error) {
	cart, err := s.carts.GetByOwnerAndTrip(ctx, ownerID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.CheckoutResult{Success: false, Message: "cart is empty"}, nil
	}
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("service.CartService.Checkout: %w", err)
	}
	if len(cart.Items) == 0 {
		return domain.CheckoutResult{Success: false, Message: "cart is empty"}, nil
	}

	if err := s.carts.MarkCheckout(ctx, cart.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race: cleared concurrently or already checked out.
			return domain.CheckoutResult{Success: false, Message: "cart is no longer available for checkout"}, nil
		}
		return domain.CheckoutResult{}, fmt.Errorf("service.CartService.Checkout: %w", err)
	}

	refs := make([]string, len(cart.Items))
	for i := range cart.Items {
		refs[i] = bookingRef(cart.ID, i)
	}

	return domain.CheckoutResult{
		Success:     true,
		Message:     fmt.Sprintf("checkout started for %d item(s)", len(cart.Items)),
		BookingRefs: refs,
	}, nil
}

// persistOrDelete writes the new item list, or deletes the cart when the
// list has become empty — an empty cart never persists.
func (s *CartService) persistOrDelete(ctx context.Context, cartID uuid.UUID, items []domain.LineItem, op string) error {
	if len(items) == 0 {
		if err := s.carts.Delete(ctx, cartID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.CartService.%s: %w", op, err)
		}
		return nil
	}
	if _, err := s.carts.UpdateItems(ctx, cartID, items, domain.CartTotal(items)); err != nil {
		return fmt.Errorf("service.CartService.%s: %w", op, err)
	}
	return nil
}

// bookingRef builds a placeholder booking reference for one line item.
// Real references come from the supplier once payment integration exists.
func bookingRef(cartID uuid.UUID, idx int) string {
	short := strings.ToUpper(cartID.String()[:8])
	return fmt.Sprintf("BK-%s-%03d", short, idx+1)
}

// validateItem enforces the line-item constraints shared by add paths.
func validateItem(item domain.LineItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: item name is required", domain.ErrValidation)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	if item.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}

// sameOptionalDay compares two optional day indexes; two nils are equal.
func sameOptionalDay(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
