// Export handlers. GET /export returns every trip with its catches as a
// flat table, as JSON by default or as CSV via ?format=csv.
package handler

import (
	"net/http"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// exportJSONRow is the JSON shape of one export row. Empty catch fields are
// omitted so trips without catches serialize as trip-only rows.
type exportJSONRow struct {
	TripID             string     `json:"trip_id"`
	TripStartedAt      string     `json:"trip_started_at"`
	TripEndedAt        string     `json:"trip_ended_at,omitempty"`
	TripStatus         string     `json:"trip_status"`
	LocationLabel      string     `json:"location_label,omitempty"`
	Species            string     `json:"species,omitempty"`
	CaughtAt           *time.Time `json:"caught_at,omitempty"`
	LureSnapshot       string     `json:"lure_snapshot,omitempty"`
	GroundbaitSnapshot string     `json:"groundbait_snapshot,omitempty"`
	WeightGrams        *int       `json:"weight_g,omitempty"`
	LengthMillimeters  *int       `json:"length_mm,omitempty"`
}

// exportCSVRow is the CSV shape of one export row. The field order defines
// the column order; csvutil renders nil pointers as empty cells.
type exportCSVRow struct {
	TripID             string     `csv:"trip_id"`
	TripStartedAt      string     `csv:"trip_started_at"`
	TripEndedAt        string     `csv:"trip_ended_at"`
	TripStatus         string     `csv:"trip_status"`
	LocationLabel      string     `csv:"location_label"`
	Species            string     `csv:"species"`
	CaughtAt           *time.Time `csv:"caught_at"`
	LureSnapshot       string     `csv:"lure_snapshot"`
	GroundbaitSnapshot string     `csv:"groundbait_snapshot"`
	WeightGrams        *int       `csv:"weight_g"`
	LengthMillimeters  *int       `csv:"length_mm"`
}

// getExport handles GET /export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	rows, err := s.export.Export(r.Context(), ownerID)
	if err != nil {
		respondError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}

	out := make([]exportJSONRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, exportJSONRow(row))
	}
	respondJSON(w, http.StatusOK, out)
}

// writeCSV encodes export rows as CSV with a header row derived from the
// exportCSVRow tags.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	out := make([]exportCSVRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, exportCSVRow(row))
	}

	data, err := csvutil.Marshal(out)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fishlog-export.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
