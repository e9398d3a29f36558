package domain

import (
	"time"

	"github.com/google/uuid"
)

// Species is a read-only reference row for fish species, seeded by migration.
type Species struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Catch records one fish caught during a trip.
//
// LureNameSnapshot and GroundbaitNameSnapshot are copied from the referenced
// equipment when the catch is created, and re-copied only when the reference
// itself is changed on update. They are never re-derived from the equipment
// tables, so renaming or soft-deleting tackle later leaves the record intact.
//
// Unlike trips and equipment, catches are physically deleted.
type Catch struct {
	ID                     uuid.UUID  `json:"id"`
	TripID                 uuid.UUID  `json:"trip_id"`
	SpeciesID              uuid.UUID  `json:"species_id"`
	CaughtAt               time.Time  `json:"caught_at"`
	LureID                 *uuid.UUID `json:"lure_id,omitempty"`
	GroundbaitID           *uuid.UUID `json:"groundbait_id,omitempty"`
	LureNameSnapshot       *string    `json:"lure_name_snapshot,omitempty"`
	GroundbaitNameSnapshot *string    `json:"groundbait_name_snapshot,omitempty"`
	WeightGrams            *int       `json:"weight_g,omitempty"`
	LengthMillimeters      *int       `json:"length_mm,omitempty"`
	PhotoPath              *string    `json:"photo_path,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// CatchPatch carries the partial-update fields of a catch. Nil leaves a field
// unchanged. Clearing an optional reference (lure, groundbait) is expressed
// with a non-nil pointer to a nil value, hence the double pointers.
// Snapshot fields are deliberately absent: they are not client-writable.
type CatchPatch struct {
	SpeciesID         *uuid.UUID
	CaughtAt          *time.Time
	LureID            **uuid.UUID
	GroundbaitID      **uuid.UUID
	WeightGrams       **int
	LengthMillimeters **int
	PhotoPath         **string
}

// CatchFilter narrows a catch list query.
type CatchFilter struct {
	SpeciesID *uuid.UUID
	From      *time.Time
	To        *time.Time
}
