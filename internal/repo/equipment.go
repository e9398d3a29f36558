package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// equipmentTables maps each equipment kind to its table. The three kinds are
// identical in shape and differ only in which table they live in, so one
// implementation serves all of them.
var equipmentTables = map[domain.EquipmentKind]string{
	domain.KindRod:        "rods",
	domain.KindLure:       "lures",
	domain.KindGroundbait: "groundbaits",
}

// EquipmentSorts is the sort allow-list for equipment lists.
// The first entry is the default.
var EquipmentSorts = []string{"created_at", "name"}

// EquipmentRepo defines the persistence operations for one equipment kind.
type EquipmentRepo interface {
	// Create inserts a new equipment item and returns the persisted record.
	// A duplicate name for the same owner yields domain.ErrConflict.
	Create(ctx context.Context, ownerID uuid.UUID, name string) (domain.Equipment, error)

	// GetByID retrieves an item by primary key regardless of owner or
	// soft-delete state. Callers decide whether a foreign owner is a
	// not-found or an ownership violation.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Equipment, error)

	// GetManyByID retrieves the items for all given ids in one query.
	// Missing ids are simply absent from the result — callers detect them
	// by comparing lengths.
	GetManyByID(ctx context.Context, ids []uuid.UUID) ([]domain.Equipment, error)

	// List returns one page of the owner's items plus a hasMore flag
	// indicating whether a further page exists.
	List(ctx context.Context, ownerID uuid.UUID, f domain.EquipmentFilter, p domain.ListParams) ([]domain.Equipment, bool, error)

	// UpdateName renames a non-deleted item owned by ownerID.
	// Returns domain.ErrNotFound if no such live row exists and
	// domain.ErrConflict on a duplicate name.
	UpdateName(ctx context.Context, ownerID, id uuid.UUID, name string) (domain.Equipment, error)

	// SoftDelete marks a currently-non-deleted item as deleted.
	// Re-deleting an already-deleted row (or a nonexistent one) returns
	// domain.ErrNotFound.
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
}

// pgEquipmentRepo is the Postgres implementation of EquipmentRepo.
type pgEquipmentRepo struct {
	db    db
	table string
}

// NewEquipmentRepo constructs an EquipmentRepo for the given kind.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewEquipmentRepo(db db, kind domain.EquipmentKind) EquipmentRepo {
	return &pgEquipmentRepo{db: db, table: equipmentTables[kind]}
}

const equipmentCols = "id, owner_id, name, deleted_at, created_at, updated_at"

func (r *pgEquipmentRepo) Create(ctx context.Context, ownerID uuid.UUID, name string) (domain.Equipment, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name)
		VALUES (@owner_id, @name)
		RETURNING %s`, r.table, equipmentCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner_id": ownerID, "name": name})
	result, err := scanEquipment(row)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("repo.EquipmentRepo.Create: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgEquipmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Equipment, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = @id`, equipmentCols, r.table)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanEquipment(row)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("repo.EquipmentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgEquipmentRepo) GetManyByID(ctx context.Context, ids []uuid.UUID) ([]domain.Equipment, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY(@ids)`, equipmentCols, r.table)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.EquipmentRepo.GetManyByID: %w", err)
	}
	defer rows.Close()

	items := []domain.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EquipmentRepo.GetManyByID: scan: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EquipmentRepo.GetManyByID: rows: %w", err)
	}
	return items, nil
}

// List fetches limit+1 rows; the extra row, when present, signals a next page.
func (r *pgEquipmentRepo) List(ctx context.Context, ownerID uuid.UUID, f domain.EquipmentFilter, p domain.ListParams) ([]domain.Equipment, bool, error) {
	args := pgx.NamedArgs{
		"owner_id":        ownerID,
		"search":          escapeLike(f.Search),
		"include_deleted": f.IncludeDeleted,
		"limit":           p.Limit + 1,
	}

	cursorFrag := ""
	if p.Cursor != nil {
		v, err := cursorValue(p.Sort, *p.Cursor)
		if err != nil {
			return nil, false, fmt.Errorf("repo.EquipmentRepo.List: %w", err)
		}
		cursorFrag = keysetPredicate(p.Sort, p.Order)
		args["cursor_v"] = v
		args["cursor_id"] = p.Cursor.ID
	}

	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = @owner_id
		  AND (@include_deleted OR deleted_at IS NULL)
		  AND (@search = '' OR name ILIKE '%%' || @search || '%%')
		  %s
		%s
		LIMIT @limit`, equipmentCols, r.table, cursorFrag, keysetOrderBy(p.Sort, p.Order))

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, false, fmt.Errorf("repo.EquipmentRepo.List: %w", err)
	}
	defer rows.Close()

	items := []domain.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, false, fmt.Errorf("repo.EquipmentRepo.List: scan: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("repo.EquipmentRepo.List: rows: %w", err)
	}

	hasMore := len(items) > p.Limit
	if hasMore {
		items = items[:p.Limit]
	}
	return items, hasMore, nil
}

func (r *pgEquipmentRepo) UpdateName(ctx context.Context, ownerID, id uuid.UUID, name string) (domain.Equipment, error) {
	q := fmt.Sprintf(`
		UPDATE %s
		SET name = @name, updated_at = now()
		WHERE id = @id AND owner_id = @owner_id AND deleted_at IS NULL
		RETURNING %s`, r.table, equipmentCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID, "name": name})
	result, err := scanEquipment(row)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("repo.EquipmentRepo.UpdateName: %w", mapConstraintError(err))
	}
	return result, nil
}

// SoftDelete only matches live rows, which makes it naturally idempotent-safe:
// a second delete finds nothing and reports not found.
func (r *pgEquipmentRepo) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = now(), updated_at = now()
		WHERE id = @id AND owner_id = @owner_id AND deleted_at IS NULL`, r.table)

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.EquipmentRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.EquipmentRepo.SoftDelete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanEquipment maps a single database row into a domain.Equipment.
func scanEquipment(s scanner) (domain.Equipment, error) {
	var (
		e         domain.Equipment
		id, owner pgtype.UUID
		deletedAt pgtype.Timestamptz
	)

	err := s.Scan(&id, &owner, &e.Name, &deletedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Equipment{}, domain.ErrNotFound
		}
		return domain.Equipment{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.OwnerID = uuid.UUID(owner.Bytes)
	if deletedAt.Valid {
		t := deletedAt.Time
		e.DeletedAt = &t
	}
	return e, nil
}
