package handler

import (
	"net/http"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// equipmentRequest is the create/update body for an equipment item.
// Name is a pointer so PATCH can distinguish "absent" from "empty".
type equipmentRequest struct {
	Name *string `json:"name"`
}

// listEquipment handles GET /rods, /lures, /groundbaits.
// Query parameters: q, include_deleted, limit, sort, order, cursor.
func (s *Server) listEquipment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		p, err := listParams(r, repo.EquipmentSorts)
		if err != nil {
			respondError(w, err)
			return
		}
		f := domain.EquipmentFilter{
			Search:         r.URL.Query().Get("q"),
			IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
		}

		items, page, err := s.equipment[kind].List(r.Context(), ownerID, f, p)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, listResponse[domain.Equipment]{Data: items, Page: page})
	}
}

// createEquipment handles POST /rods, /lures, /groundbaits.
func (s *Server) createEquipment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		var req equipmentRequest
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}
		name := ""
		if req.Name != nil {
			name = *req.Name
		}

		created, err := s.equipment[kind].Create(r.Context(), ownerID, name)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, created)
	}
}

// getEquipment handles GET /rods/{id} (and lure/groundbait counterparts).
func (s *Server) getEquipment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		item, err := s.equipment[kind].GetByID(r.Context(), ownerID, id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, item)
	}
}

// updateEquipment handles PATCH /rods/{id} (and counterparts).
// An empty patch is a no-op returning current state.
func (s *Server) updateEquipment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		var req equipmentRequest
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}

		updated, err := s.equipment[kind].Update(r.Context(), ownerID, id, req.Name)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)
	}
}

// deleteEquipment handles DELETE /rods/{id} (and counterparts): soft-delete.
func (s *Server) deleteEquipment(kind domain.EquipmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := owner(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if err := s.equipment[kind].SoftDelete(r.Context(), ownerID, id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
