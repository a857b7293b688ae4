package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CartStatus tracks the purchase lifecycle of a cart.
// A cart starts pending and moves to checkout on the checkout action;
// there is no transition back. CartStatusCompleted is reserved for the
// payment collaborator and is never set by this service.
type CartStatus string

const (
	CartStatusPending   CartStatus = "pending"
	CartStatusCheckout  CartStatus = "checkout"
	CartStatusCompleted CartStatus = "completed"
)

// LineItem is one purchasable unit in a cart.
//
// Two line items are "the same" for merge and removal purposes iff their
// (Name, Day, SkipLine) triple matches — type and price do not
// participate in identity. Details is an opaque blob passed through
// unmodified; the cart layer never inspects it.
type LineItem struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Currency    string          `json:"currency"`
	Quantity    int             `json:"quantity"`
	Day         *int            `json:"day,omitempty"`
	BookingURL  string          `json:"booking_url,omitempty"`
	ProductCode string          `json:"product_code,omitempty"`
	SkipLine    bool            `json:"skip_line,omitempty"`
	ImageRef    string          `json:"image_ref,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// MatchesKey reports whether the item matches the (name, day, skipLine)
// merge key.
func (i LineItem) MatchesKey(name string, day *int, skipLine bool) bool {
	return i.Name == name && sameDay(i.Day, day) && i.SkipLine == skipLine
}

// Cart is the mutable collection of purchasable line items for one
// (owner, trip) pair. At most one non-deleted cart exists per pair.
//
// Total is derived: it always equals the sum of Price*Quantity over
// Items. An empty cart is never persisted — it is deleted instead.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   string     `json:"owner_id"`
	TripID    uuid.UUID  `json:"trip_id"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	Currency  string     `json:"currency"`
	Status    CartStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartTotal computes the full sum of price*quantity over items.
// Totals are always recomputed from scratch after a mutation — a stored
// total is never incrementally trusted.
func CartTotal(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// CartItemCount returns the sum of quantities across items.
func CartItemCount(items []LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// CheckoutResult is the structured business outcome of a checkout
// attempt. An empty or absent cart is a failed outcome, not an error.
type CheckoutResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	BookingRefs []string `json:"booking_refs,omitempty"`
}

// sameDay compares two optional day indexes; two nils are equal.
func sameDay(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
