// Package repo contains all database access logic for the fishing log API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the per-resource
// scan helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes the core interprets. Constraints themselves are
// enforced server-side; this layer only translates their violations into the
// public error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapConstraintError translates known Postgres constraint violations into
// domain sentinels with deterministic messages. Raw datastore error text is
// never forwarded to callers. Unrecognized errors pass through unchanged and
// eventually surface as internal_error.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: duplicate value", domain.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: referenced row does not exist", domain.ErrValidation)
	case pgCheckViolation:
		return fmt.Errorf("%w: value out of range", domain.ErrValidation)
	}
	return err
}

// escapeLike escapes the LIKE pattern metacharacters in a search term so it
// matches literally. Without this, q=% would match every row and q=_ any
// single character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// keyset helpers ------------------------------------------------------------
//
// Every list query fetches limit+1 rows ordered by (sort_col, id) with id as
// the tie-break in the same direction, so ordering is total even when sort
// values repeat. A supplied cursor filters to rows strictly after
// (cursor value, cursor id) in the requested direction, using Postgres
// row-wise comparison. Sort column names come from per-entity allow-lists
// validated in domain.NewListParams, never from raw client input.

// keysetOrderBy renders the ORDER BY clause for a keyset query.
func keysetOrderBy(sortCol string, order domain.Order) string {
	dir := "ASC"
	if order == domain.OrderDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", sortCol, dir, dir)
}

// keysetPredicate renders the cursor WHERE fragment for a keyset query.
// The caller binds @cursor_v and @cursor_id.
func keysetPredicate(sortCol string, order domain.Order) string {
	op := ">"
	if order == domain.OrderDesc {
		op = "<"
	}
	return fmt.Sprintf("AND (%s, id) %s (@cursor_v, @cursor_id)", sortCol, op)
}

// timeSortColumns marks the sort columns whose cursor values are RFC3339Nano
// timestamps rather than plain text.
var timeSortColumns = map[string]bool{
	"created_at": true,
	"started_at": true,
	"caught_at":  true,
}

// cursorValue converts a decoded cursor's sort value into the concrete type
// the sort column compares against. A cursor whose value cannot be parsed for
// its column type was tampered with and fails as a validation error.
func cursorValue(sortCol string, c domain.Cursor) (any, error) {
	if timeSortColumns[sortCol] {
		return domain.ParseSortTime(c.SortValue)
	}
	return c.SortValue, nil
}
