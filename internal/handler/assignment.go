package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// replaceAssignmentsRequest is the PUT body: the full desired set of
// equipment ids for the trip.
type replaceAssignmentsRequest struct {
	EquipmentIDs []uuid.UUID `json:"equipment_ids"`
}

// addAssignmentRequest is the POST body: one equipment id to attach.
type addAssignmentRequest struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
}

// listAssignments handles GET /trips/{tripID}/{kind}.
func (s *Server) listAssignments(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		tripID, err := pathID(r, "tripID")
		if err != nil {
			respondError(w, err)
			return
		}

		assignments, err := s.assignments[kind].List(r.Context(), ownerID, tripID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, assignments)
	}
}

// replaceAssignments handles PUT /trips/{tripID}/{kind}: declarative
// replacement of the full set. Existing assignments keep their original
// name snapshots, so repeating the same PUT is a no-op.
func (s *Server) replaceAssignments(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		tripID, err := pathID(r, "tripID")
		if err != nil {
			respondError(w, err)
			return
		}
		var req replaceAssignmentsRequest
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}

		assignments, err := s.assignments[kind].ReplaceAll(r.Context(), ownerID, tripID, req.EquipmentIDs)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, assignments)
	}
}

// addAssignment handles POST /trips/{tripID}/{kind}: attach one item,
// conflicting when it is already assigned.
func (s *Server) addAssignment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		tripID, err := pathID(r, "tripID")
		if err != nil {
			respondError(w, err)
			return
		}
		var req addAssignmentRequest
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}

		assignment, err := s.assignments[kind].AddOne(r.Context(), ownerID, tripID, req.EquipmentID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, assignment)
	}
}
