package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/middleware"
)

// GetCart handles GET /api/trips/{tripID}/cart.
// 404 when no cart exists — an empty cart is never persisted, so
// "no cart" is the empty state.
func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	cart, err := s.carts.Get(r.Context(), middleware.OwnerFromContext(r.Context()), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddCartItem handles POST /api/trips/{tripID}/cart/items.
// The body is a domain.LineItem; the details field passes through as
// opaque JSON.
func (s *Server) AddCartItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	var item domain.LineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cart, err := s.carts.AddItem(r.Context(), middleware.OwnerFromContext(r.Context()), tripID, item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/trips/{tripID}/cart/items.
// The merge key comes from query parameters: ?name=...&day=2&skip_line=true
// (day and skip_line optional). Removal is idempotent: 204 whether or
// not anything matched.
func (s *Server) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeBadRequest(w, "name query parameter is required")
		return
	}
	day, ok := dayParam(r)
	if !ok {
		writeBadRequest(w, "day must be an integer")
		return
	}
	skipLine := r.URL.Query().Get("skip_line") == "true"

	err := s.carts.RemoveItem(r.Context(), middleware.OwnerFromContext(r.Context()), tripID, name, day, skipLine)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCartItemQuantityRequest is the body of PUT /api/trips/{tripID}/cart/items/quantity.
type SetCartItemQuantityRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Day      *int   `json:"day,omitempty"`
	Quantity int    `json:"quantity"`
}

// SetCartItemQuantity handles PUT /api/trips/{tripID}/cart/items/quantity.
// A quantity of zero or less removes the item.
func (s *Server) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	var req SetCartItemQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	err := s.carts.SetItemQuantity(r.Context(), middleware.OwnerFromContext(r.Context()),
		tripID, req.Name, req.Type, req.Day, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart handles DELETE /api/trips/{tripID}/cart. Always 204.
func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	if err := s.carts.Clear(r.Context(), middleware.OwnerFromContext(r.Context()), tripID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCartCount handles GET /api/trips/{tripID}/cart/count.
// Returns {"count": N}; zero when no cart exists.
func (s *Server) GetCartCount(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	count, err := s.carts.ItemCount(r.Context(), middleware.OwnerFromContext(r.Context()), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Checkout handles POST /api/trips/{tripID}/cart/checkout.
// The result is always 200 with a CheckoutResult body — an empty cart is
// a business outcome, not an HTTP error.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	result, err := s.carts.Checkout(r.Context(), middleware.OwnerFromContext(r.Context()), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// dayParam parses the optional ?day= query parameter.
// Absent means nil (no day); a non-integer value reports failure.
func dayParam(r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return nil, true
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &d, true
}
