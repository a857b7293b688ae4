package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/middleware"
)

// CreateTripRequest is the body of POST /api/trips.
// Dates are date-only strings ("2006-01-02").
type CreateTripRequest struct {
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Budget      string   `json:"budget,omitempty"`
	Travelers   int      `json:"travelers"`
	Interests   []string `json:"interests,omitempty"`
}

// CreateTrip handles POST /api/trips.
// The response trip is always in the generating state; the client polls
// GET /api/trips/{id}/status for the outcome.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	trip, err := requestToTrip(req, middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /api/trips.
// Trips are scoped to the caller and ordered newest first.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListByOwner(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// GetTrip handles GET /api/trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// GetTripStatus handles GET /api/trips/{tripID}/status.
// Designed for polling: a missing trip is a 200 with exists=false, so a
// client may start polling before creation has round-tripped.
func (s *Server) GetTripStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	summary, err := s.trips.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// DeleteTrip handles DELETE /api/trips/{tripID}.
// Only the owner may delete; the cart is left in place.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid trip id")
		return
	}

	if err := s.trips.Delete(r.Context(), id, middleware.OwnerFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestToTrip converts a CreateTripRequest into a domain.Trip.
// Date parse failures are caught here; the business constraints
// (non-empty destination, date ordering, traveler count) belong to the
// service layer.
func requestToTrip(req CreateTripRequest, owner string) (domain.Trip, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return domain.Trip{}, errInvalidDate("start_date")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return domain.Trip{}, errInvalidDate("end_date")
	}

	return domain.Trip{
		OwnerID:     owner,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      req.Budget,
		Travelers:   req.Travelers,
		Interests:   req.Interests,
	}, nil
}

// errInvalidDate builds the bad-request message for an unparseable date field.
type errInvalidDate string

func (e errInvalidDate) Error() string {
	return string(e) + " must be a date in YYYY-MM-DD format"
}
