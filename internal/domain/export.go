package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per catch, with trip fields
// repeated for every catch on that trip. Trips with no catches yield one row
// with zero values for all catch fields.
//
// Snapshot columns carry the names *as recorded at catch time*, not the
// current equipment names — the export is a historical document.
type ExportRow struct {
	// Trip fields — repeated for every catch on the trip.
	TripID        string
	TripStartedAt string // RFC3339 formatted
	TripEndedAt   string // empty string when nil
	TripStatus    string
	LocationLabel string

	// Catch fields — zero values when the trip has no catches.
	Species            string
	CaughtAt           *time.Time
	LureSnapshot       string
	GroundbaitSnapshot string
	WeightGrams        *int
	LengthMillimeters  *int
}
