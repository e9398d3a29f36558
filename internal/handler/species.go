package handler

import "net/http"

// listSpecies handles GET /species: the full reference list, alphabetical.
func (s *Server) listSpecies(w http.ResponseWriter, r *http.Request) {
	species, err := s.species.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, species)
}
