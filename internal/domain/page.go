package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is the sort direction of a list query.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Cursor is the decoded form of an opaque pagination cursor: the sort value
// and tie-breaking id of the last row the client has already seen.
//
// SortValue is carried as a string. Timestamp sort columns serialize as
// RFC3339Nano (see SortTimeValue); text columns carry the raw value. The repo
// layer knows each sort column's type and parses accordingly.
type Cursor struct {
	SortValue string    `json:"v"`
	ID        uuid.UUID `json:"id"`
}

// EncodeCursor packs a sort value and id into an opaque cursor string.
// The encoding is reversible but deliberately not part of the public API
// shape — clients must treat cursors as black boxes.
func EncodeCursor(sortValue string, id uuid.UUID) string {
	raw, _ := json.Marshal(Cursor{SortValue: sortValue, ID: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor unpacks an opaque cursor string.
// Any malformed input — bad base64, bad JSON, bad UUID — yields ErrValidation,
// never a panic: a tampered cursor is a client error, not a server fault.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	if c.ID == uuid.Nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	return c, nil
}

// SortTimeValue formats a timestamp for use as a cursor sort value.
// RFC3339Nano preserves full precision so the keyset comparison in SQL and
// the encoded cursor agree on ordering.
func SortTimeValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseSortTime is the inverse of SortTimeValue. Returns ErrValidation on
// input that did not come from SortTimeValue (i.e. a tampered cursor).
func ParseSortTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	return t, nil
}

// ListParams carries keyset pagination values from the HTTP layer to the repo
// layer. Build it with NewListParams, which validates the sort field against
// the entity's allow-list and bounds the limit.
type ListParams struct {
	// Limit is the maximum number of items to return (1–100, default 20).
	Limit int
	// Sort is a column name from the entity's allow-list.
	Sort string
	// Order is asc or desc (default desc — most lists are "newest first").
	Order Order
	// Cursor, when non-nil, restricts results to rows strictly after
	// (SortValue, ID) in the requested direction.
	Cursor *Cursor
}

// NewListParams builds ListParams from optional HTTP query values.
//
// allowedSorts is the entity's sort allow-list; its first element is the
// default. An unrecognized sort or order is ErrValidation rather than being
// silently coerced, so clients learn about typos instead of getting
// surprising orderings.
func NewListParams(limit *int, sort, order, cursor string, allowedSorts []string) (ListParams, error) {
	p := ListParams{Limit: 20, Sort: allowedSorts[0], Order: OrderDesc}

	if limit != nil {
		if *limit < 1 || *limit > 100 {
			return ListParams{}, fmt.Errorf("%w: limit must be between 1 and 100", ErrValidation)
		}
		p.Limit = *limit
	}

	if sort != "" {
		ok := false
		for _, s := range allowedSorts {
			if s == sort {
				ok = true
				break
			}
		}
		if !ok {
			return ListParams{}, fmt.Errorf("%w: unsupported sort field %q", ErrValidation, sort)
		}
		p.Sort = sort
	}

	switch order {
	case "":
	case string(OrderAsc):
		p.Order = OrderAsc
	case string(OrderDesc):
		p.Order = OrderDesc
	default:
		return ListParams{}, fmt.Errorf("%w: order must be asc or desc", ErrValidation)
	}

	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return ListParams{}, err
		}
		p.Cursor = &c
	}

	return p, nil
}

// Page is the pagination envelope returned alongside every list result.
// NextCursor is nil on the final page.
type Page struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"next_cursor"`
}

// NewPage builds the Page for a result set. The repo fetched limit+1 rows;
// if it got them all, the extra row proves more data exists and the caller
// emits a cursor built from the last *returned* row.
func NewPage(limit int, nextCursor string, hasMore bool) Page {
	p := Page{Limit: limit}
	if hasMore {
		p.NextCursor = &nextCursor
	}
	return p
}
