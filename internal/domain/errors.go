package domain

import "errors"

// CodeOf maps an error chain to its public error code. Unrecognized errors
// collapse to internal_error so raw datastore or provider text never leaks
// into a response.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrEquipmentOwnerMismatch):
		return "equipment_owner_mismatch"
	case errors.Is(err, ErrEquipmentDeleted):
		return "equipment_soft_deleted"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrBadGateway):
		return "bad_gateway"
	default:
		return "internal_error"
	}
}

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist (or is soft-deleted and the caller did not ask for
// deleted rows). Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. malformed cursor, end time before start time, catch outside the trip
// window). Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when no authenticated owner identity is present
// on the request. Handlers map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is returned on uniqueness violations: duplicate equipment name
// per owner, or assigning the same equipment to a trip twice.
// Handlers map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEquipmentOwnerMismatch is returned when equipment referenced by a trip
// assignment or a catch belongs to a different owner than the trip.
var ErrEquipmentOwnerMismatch = errors.New("equipment owner mismatch")

// ErrEquipmentDeleted is returned when equipment referenced at write time is
// currently soft-deleted. Already-captured snapshots are unaffected.
var ErrEquipmentDeleted = errors.New("equipment soft deleted")

// ErrRateLimited is returned when the external weather provider rejects a
// request for quota reasons. Handlers map this to HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// ErrBadGateway is returned when the external weather provider fails:
// upstream 5xx, network error, timeout, or a provider auth/configuration
// problem. Handlers map this to HTTP 502.
var ErrBadGateway = errors.New("bad gateway")
