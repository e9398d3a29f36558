// Package domain contains the core data types for the fishing log backend.
// This package has no dependencies beyond uuid and the stdlib and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EquipmentKind selects one of the three parallel tackle entities.
// Rods, lures, and groundbaits share an identical shape and differ only in
// which table (and junction table) they live in.
type EquipmentKind string

const (
	KindRod        EquipmentKind = "rod"
	KindLure       EquipmentKind = "lure"
	KindGroundbait EquipmentKind = "groundbait"
)

// Kinds lists all equipment kinds in a stable order.
var Kinds = []EquipmentKind{KindRod, KindLure, KindGroundbait}

// Equipment is a reusable tackle item owned by a single user.
//
// OwnerID is an internal partitioning key and is never serialized — the JSON
// tag strips it from every response shape.
// DeletedAt non-nil means the item is soft-deleted: hidden from default
// listings and rejected as a target for new assignments or catches, but still
// resolvable so historical snapshots keep pointing at a real row.
type Equipment struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"-"`
	Name      string     `json:"name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Deleted reports whether the item is currently soft-deleted.
func (e Equipment) Deleted() bool { return e.DeletedAt != nil }

// Assignment links one equipment item to one trip.
//
// NameSnapshot is copied from the equipment item exactly once, at assignment
// time. Renaming or soft-deleting the source item afterwards must not change
// it — no code path updates an existing assignment.
type Assignment struct {
	ID           uuid.UUID `json:"id"`
	TripID       uuid.UUID `json:"trip_id"`
	EquipmentID  uuid.UUID `json:"equipment_id"`
	NameSnapshot string    `json:"name_snapshot"`
	CreatedAt    time.Time `json:"created_at"`
}

// EquipmentFilter narrows an equipment list query.
// Search is a case-insensitive substring match on the name; empty means no
// filtering. Soft-deleted rows are excluded unless IncludeDeleted is set.
type EquipmentFilter struct {
	Search         string
	IncludeDeleted bool
}

// EquipmentSet groups the three assignment lists of a trip, as returned by
// the last-used-equipment lookup.
type EquipmentSet struct {
	Rods        []Assignment `json:"rods"`
	Lures       []Assignment `json:"lures"`
	Groundbaits []Assignment `json:"groundbaits"`
}

// IDs extracts the equipment ids from a list of assignments.
func IDs(assignments []Assignment) []uuid.UUID {
	out := make([]uuid.UUID, len(assignments))
	for i, a := range assignments {
		out[i] = a.EquipmentID
	}
	return out
}
