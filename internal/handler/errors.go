package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/middleware"
)

// errorBody is the public error envelope: {"error":{"code":...,"message":...}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorStatus maps public error codes to HTTP status codes.
var errorStatus = map[string]int{
	"validation_error":         http.StatusUnprocessableEntity,
	"unauthorized":             http.StatusUnauthorized,
	"not_found":                http.StatusNotFound,
	"conflict":                 http.StatusConflict,
	"equipment_owner_mismatch": http.StatusUnprocessableEntity,
	"equipment_soft_deleted":   http.StatusUnprocessableEntity,
	"rate_limited":             http.StatusTooManyRequests,
	"bad_gateway":              http.StatusBadGateway,
	"internal_error":           http.StatusInternalServerError,
}

// errorMessage holds the deterministic user-facing message per code.
// Validation errors are the exception: their message carries the specific
// rule that failed, extracted from the sentinel chain.
var errorMessage = map[string]string{
	"unauthorized":             "authentication required",
	"not_found":                "resource not found",
	"conflict":                 "resource already exists",
	"equipment_owner_mismatch": "equipment belongs to a different owner",
	"equipment_soft_deleted":   "equipment has been deleted",
	"rate_limited":             "weather provider quota exceeded",
	"bad_gateway":              "weather provider unavailable",
	"internal_error":           "internal error",
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck — nothing to do about a failed response write.
	json.NewEncoder(w).Encode(v)
}

// respondError maps err to its public code, status, and deterministic
// message. Raw datastore or provider text never reaches the client: anything
// unrecognized collapses to internal_error and is logged server-side with
// its full chain intact.
func respondError(w http.ResponseWriter, err error) {
	if !isExpected(err) {
		slog.Error("unexpected error", "error", err)
	}
	code := domain.CodeOf(err)
	msg := errorMessage[code]
	if code == "validation_error" {
		msg = validationMessage(err)
	}
	respondJSON(w, errorStatus[code], errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// validationMessage extracts the rule text from a wrapped ErrValidation,
// e.g. "service.TripService.Update: validation error: ended_at is required
// to close a trip" → "ended_at is required to close a trip".
func validationMessage(err error) string {
	const marker = "validation error: "
	msg := err.Error()
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return "invalid input"
}

// owner extracts the authenticated owner id from the request. A request that
// somehow reached a handler without one is rejected as unauthorized.
func owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.OwnerID(r.Context())
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a UUID path parameter. A malformed id is a validation error,
// not a 404 — the route matched, the value didn't parse.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed %s", domain.ErrValidation, name)
	}
	return id, nil
}

// decodeBody decodes a JSON request body into dst.
// With strict set, unknown fields are rejected rather than silently dropped —
// used on the catch paths so snapshot fields cannot be smuggled in.
func decodeBody(r *http.Request, dst any, strict bool) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return nil
}

// listParams parses the shared list query parameters against an entity's
// sort allow-list.
func listParams(r *http.Request, allowedSorts []string) (domain.ListParams, error) {
	q := r.URL.Query()

	var limit *int
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return domain.ListParams{}, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation)
		}
		limit = &n
	}

	return domain.NewListParams(limit, q.Get("sort"), q.Get("order"), q.Get("cursor"), allowedSorts)
}

// listResponse is the envelope of every list endpoint.
type listResponse[T any] struct {
	Data []T         `json:"data"`
	Page domain.Page `json:"page"`
}

// isExpected reports whether err belongs to the public taxonomy (as opposed
// to an unexpected internal failure worth logging server-side).
func isExpected(err error) bool {
	for _, sentinel := range []error{
		domain.ErrValidation, domain.ErrUnauthorized, domain.ErrNotFound,
		domain.ErrConflict, domain.ErrEquipmentOwnerMismatch,
		domain.ErrEquipmentDeleted, domain.ErrRateLimited, domain.ErrBadGateway,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
