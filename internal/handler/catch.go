package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// createCatchRequest is the POST /trips/{tripID}/catches body.
type createCatchRequest struct {
	SpeciesID         uuid.UUID  `json:"species_id"`
	CaughtAt          time.Time  `json:"caught_at"`
	LureID            *uuid.UUID `json:"lure_id"`
	GroundbaitID      *uuid.UUID `json:"groundbait_id"`
	WeightGrams       *int       `json:"weight_g"`
	LengthMillimeters *int       `json:"length_mm"`
	PhotoPath         *string    `json:"photo_path"`
}

// updateCatchRequest is the PATCH body. The clearable fields are captured as
// raw JSON so that "absent", "null" and "value" stay distinguishable: absent
// leaves the field alone, explicit null clears it.
type updateCatchRequest struct {
	SpeciesID         *uuid.UUID      `json:"species_id"`
	CaughtAt          *time.Time      `json:"caught_at"`
	LureID            json.RawMessage `json:"lure_id"`
	GroundbaitID      json.RawMessage `json:"groundbait_id"`
	WeightGrams       json.RawMessage `json:"weight_g"`
	LengthMillimeters json.RawMessage `json:"length_mm"`
	PhotoPath         json.RawMessage `json:"photo_path"`
}

// listCatches handles GET /trips/{tripID}/catches.
// Query parameters: species_id, from, to, limit, sort, order, cursor.
func (s *Server) listCatches(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	p, err := listParams(r, repo.CatchSorts)
	if err != nil {
		respondError(w, err)
		return
	}
	f, err := catchFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	catches, page, err := s.catches.List(r.Context(), ownerID, tripID, f, p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse[domain.Catch]{Data: catches, Page: page})
}

// createCatch handles POST /trips/{tripID}/catches. Unknown body fields are
// rejected so a misspelled optional field fails loudly instead of silently
// recording an incomplete catch.
func (s *Server) createCatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req createCatchRequest
	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, err)
		return
	}

	created, err := s.catches.Create(r.Context(), ownerID, domain.Catch{
		TripID:            tripID,
		SpeciesID:         req.SpeciesID,
		CaughtAt:          req.CaughtAt,
		LureID:            req.LureID,
		GroundbaitID:      req.GroundbaitID,
		WeightGrams:       req.WeightGrams,
		LengthMillimeters: req.LengthMillimeters,
		PhotoPath:         req.PhotoPath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// getCatch handles GET /trips/{tripID}/catches/{catchID}.
func (s *Server) getCatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := pathID(r, "catchID")
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := s.catches.GetByID(r.Context(), ownerID, tripID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// updateCatch handles PATCH /trips/{tripID}/catches/{catchID}. Like create,
// the body decode is strict about unknown fields.
func (s *Server) updateCatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := pathID(r, "catchID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req updateCatchRequest
	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, err)
		return
	}
	patch, err := catchPatch(req)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := s.catches.Update(r.Context(), ownerID, tripID, id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// deleteCatch handles DELETE /trips/{tripID}/catches/{catchID}. Catches are
// removed for real, not soft-deleted.
func (s *Server) deleteCatch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := pathID(r, "catchID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.catches.Delete(r.Context(), ownerID, tripID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// catchPatch converts the raw request fields into a domain patch.
func catchPatch(req updateCatchRequest) (domain.CatchPatch, error) {
	patch := domain.CatchPatch{
		SpeciesID: req.SpeciesID,
		CaughtAt:  req.CaughtAt,
	}
	var err error
	if patch.LureID, err = patchField[uuid.UUID](req.LureID, "lure_id"); err != nil {
		return domain.CatchPatch{}, err
	}
	if patch.GroundbaitID, err = patchField[uuid.UUID](req.GroundbaitID, "groundbait_id"); err != nil {
		return domain.CatchPatch{}, err
	}
	if patch.WeightGrams, err = patchField[int](req.WeightGrams, "weight_g"); err != nil {
		return domain.CatchPatch{}, err
	}
	if patch.LengthMillimeters, err = patchField[int](req.LengthMillimeters, "length_mm"); err != nil {
		return domain.CatchPatch{}, err
	}
	if patch.PhotoPath, err = patchField[string](req.PhotoPath, "photo_path"); err != nil {
		return domain.CatchPatch{}, err
	}
	return patch, nil
}

// patchField decodes one clearable patch field. A nil raw value means the
// field was absent from the body; JSON null decodes to a pointer to nil.
func patchField[T any](raw json.RawMessage, name string) (**T, error) {
	if raw == nil {
		return nil, nil
	}
	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return &v, nil
}

// catchFilter parses the optional catch list filters.
func catchFilter(r *http.Request) (domain.CatchFilter, error) {
	var f domain.CatchFilter
	q := r.URL.Query()
	if s := q.Get("species_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return domain.CatchFilter{}, fmt.Errorf("%w: species_id must be a valid uuid", domain.ErrValidation)
		}
		f.SpeciesID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		s := q.Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return domain.CatchFilter{}, fmt.Errorf("%w: %s must be an RFC3339 timestamp", domain.ErrValidation, name)
		}
		*dst = &t
	}
	return f, nil
}
