// Package handler implements the HTTP handlers for the tripcart API.
// All handlers are methods on Server. Methods are split into
// domain-specific files (health.go, trip.go, cart.go) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Trip, error)
	Status(ctx context.Context, id uuid.UUID) (domain.TripStatusSummary, error)
	Delete(ctx context.Context, id uuid.UUID, requestingOwner string) error
}

// CartServicer defines the business operations the cart handlers depend on.
type CartServicer interface {
	Get(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, tripID uuid.UUID, item domain.LineItem) (domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID string, tripID uuid.UUID, name string, day *int, skipLine bool) error
	SetItemQuantity(ctx context.Context, ownerID string, tripID uuid.UUID, name, itemType string, day *int, quantity int) error
	Clear(ctx context.Context, ownerID string, tripID uuid.UUID) error
	ItemCount(ctx context.Context, ownerID string, tripID uuid.UUID) (int, error)
	Checkout(ctx context.Context, ownerID string, tripID uuid.UUID) (domain.CheckoutResult, error)
}

// Server holds the dependencies shared by every handler method.
type Server struct {
	trips TripServicer
	carts CartServicer
	log   *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, carts CartServicer, log *slog.Logger) *Server {
	return &Server{trips: trips, carts: carts, log: log}
}

// Routes registers every API route on a fresh chi router.
// Identity-scoped routes live under /api; mount the identity middleware
// there, not on /healthz.
func (s *Server) Routes(identity func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(identity)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)

			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Get("/status", s.GetTripStatus)
				r.Delete("/", s.DeleteTrip)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", s.GetCart)
					r.Delete("/", s.ClearCart)
					r.Get("/count", s.GetCartCount)
					r.Post("/items", s.AddCartItem)
					r.Delete("/items", s.RemoveCartItem)
					r.Put("/items/quantity", s.SetCartItemQuantity)
					r.Post("/checkout", s.Checkout)
				})
			})
		})
	})

	return r
}

// tripIDParam parses the {tripID} URL parameter.
func tripIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tripID"))
	return id, err == nil
}
