package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// createTripRequest is the POST /trips body.
type createTripRequest struct {
	StartedAt *time.Time       `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at"`
	Status    *string          `json:"status"`
	Location  *domain.Location `json:"location"`
}

// updateTripRequest is the PATCH /trips/{tripID} body. All fields optional.
type updateTripRequest struct {
	StartedAt *time.Time       `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at"`
	Status    *string          `json:"status"`
	Location  *domain.Location `json:"location"`
}

// quickStartRequest is the POST /trips/quick-start body.
type quickStartRequest struct {
	Location          *domain.Location `json:"location"`
	CopyLastEquipment bool             `json:"copy_last_equipment"`
}

// tripResponse wraps a trip with the optional auto-refresh outcome attached
// to close responses.
type tripResponse struct {
	domain.Trip
	WeatherRefresh *domain.RefreshOutcome `json:"weather_refresh,omitempty"`
}

// listTrips handles GET /trips.
// Query parameters: from, to (RFC3339 bounds on started_at), limit, sort,
// order, cursor.
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	p, err := listParams(r, repo.TripSorts)
	if err != nil {
		respondError(w, err)
		return
	}
	f, err := tripFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	trips, page, err := s.trips.List(r.Context(), ownerID, f, p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse[domain.Trip]{Data: trips, Page: page})
}

// createTrip handles POST /trips.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req createTripRequest
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, err)
		return
	}

	var startedAt time.Time
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}
	status := domain.TripStatus("")
	if req.Status != nil {
		status = domain.TripStatus(*req.Status)
		if !domain.ValidStatus(status) {
			respondError(w, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *req.Status))
			return
		}
	}

	created, err := s.trips.Create(r.Context(), ownerID, startedAt, req.EndedAt, status, req.Location)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// quickStartTrip handles POST /trips/quick-start: an active trip starting
// now, optionally seeded with the previous trip's equipment.
func (s *Server) quickStartTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req quickStartRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}
	}

	created, err := s.trips.QuickStart(r.Context(), ownerID, req.Location, req.CopyLastEquipment)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// getTrip handles GET /trips/{tripID}.
func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), ownerID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

// updateTrip handles PATCH /trips/{tripID}. Closing the trip (setting
// ended_at for the first time) may attach a weather_refresh outcome to the
// response; a failed refresh never fails the update itself.
func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req updateTripRequest
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, err)
		return
	}

	patch := domain.TripPatch{
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		Location:  req.Location,
	}
	if req.Status != nil {
		status := domain.TripStatus(*req.Status)
		patch.Status = &status
	}

	updated, refresh, err := s.trips.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tripResponse{Trip: updated, WeatherRefresh: refresh})
}

// deleteTrip handles DELETE /trips/{tripID}: soft-delete, no cascade.
func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.trips.SoftDelete(r.Context(), ownerID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getLastEquipment handles GET /trips/last-equipment.
// A 404 means the owner has no trips yet — a legitimate empty state.
func (s *Server) getLastEquipment(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	set, err := s.lastUsed.LastUsed(r.Context(), ownerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// tripFilter parses the optional from/to bounds of a trip list query.
func tripFilter(r *http.Request) (repo.TripFilter, error) {
	var f repo.TripFilter
	q := r.URL.Query()
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		s := q.Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return repo.TripFilter{}, fmt.Errorf("%w: %s must be an RFC3339 timestamp", domain.ErrValidation, name)
		}
		*dst = &t
	}
	return f, nil
}
