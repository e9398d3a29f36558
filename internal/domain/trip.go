package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip.
// Transitions only move forward: draft → active → closed. A trip in any
// non-deleted status may additionally be soft-deleted, which is terminal.
type TripStatus string

const (
	StatusDraft  TripStatus = "draft"
	StatusActive TripStatus = "active"
	StatusClosed TripStatus = "closed"
)

// ValidStatus reports whether s is one of the known trip statuses.
func ValidStatus(s TripStatus) bool {
	return s == StatusDraft || s == StatusActive || s == StatusClosed
}

// CanTransition reports whether a trip may move from one status to another.
// Staying in place is always allowed (partial updates resend the status).
func CanTransition(from, to TripStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusDraft:
		return to == StatusActive || to == StatusClosed
	case StatusActive:
		return to == StatusClosed
	default:
		return false
	}
}

// Location is a resolved geographic point with an optional display label.
// Resolution (geocoding, map pick) happens in the caller; the core only
// stores and forwards it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     *string `json:"label,omitempty"`
}

// Trip is the top-level aggregate: catches, equipment assignments, and
// weather snapshots all hang off a trip.
//
// EndedAt is nil while the trip is open. Closing requires it to be set.
// DeletedAt non-nil hides the trip from default listings and blocks further
// equipment/catch mutations, but nothing underneath it is destroyed.
type Trip struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"-"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    TripStatus `json:"status"`
	Location  *Location  `json:"location,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Deleted reports whether the trip is soft-deleted.
func (t Trip) Deleted() bool { return t.DeletedAt != nil }

// TripPatch carries the partial-update fields of a trip. Nil means "leave
// unchanged". Invariants are validated against the merge of the existing
// trip and the patch, since a client may send only one of the two date
// fields.
type TripPatch struct {
	StartedAt *time.Time
	EndedAt   *time.Time
	Status    *TripStatus
	Location  *Location
}
