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

// CatchSorts is the sort allow-list for catch lists. The first entry is the default.
var CatchSorts = []string{"caught_at", "created_at"}

// CatchRepo defines the persistence operations for Catches.
// Catches are physically deleted, unlike trips and equipment.
type CatchRepo interface {
	// Create inserts a new catch and returns the persisted record.
	Create(ctx context.Context, c domain.Catch) (domain.Catch, error)

	// GetByID retrieves a catch by id, scoped to the given trip.
	GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Catch, error)

	// ListByTrip returns one page of a trip's catches plus a hasMore flag.
	ListByTrip(ctx context.Context, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, bool, error)

	// Update overwrites the mutable fields of a catch, including the
	// snapshot columns — the service layer is responsible for only ever
	// passing re-snapshotted values when the reference itself changed.
	Update(ctx context.Context, c domain.Catch) (domain.Catch, error)

	// Delete removes a catch, scoped to the given trip.
	Delete(ctx context.Context, tripID, id uuid.UUID) error
}

// pgCatchRepo is the Postgres implementation of CatchRepo.
type pgCatchRepo struct {
	db db
}

// NewCatchRepo constructs a CatchRepo backed by the provided db connection.
func NewCatchRepo(db db) CatchRepo {
	return &pgCatchRepo{db: db}
}

const catchCols = `id, trip_id, species_id, caught_at, lure_id, groundbait_id,
		lure_name_snapshot, groundbait_name_snapshot,
		weight_g, length_mm, photo_path, created_at, updated_at`

func (r *pgCatchRepo) Create(ctx context.Context, c domain.Catch) (domain.Catch, error) {
	q := fmt.Sprintf(`
		INSERT INTO catches (trip_id, species_id, caught_at, lure_id, groundbait_id,
			lure_name_snapshot, groundbait_name_snapshot, weight_g, length_mm, photo_path)
		VALUES (@trip_id, @species_id, @caught_at, @lure_id, @groundbait_id,
			@lure_name_snapshot, @groundbait_name_snapshot, @weight_g, @length_mm, @photo_path)
		RETURNING %s`, catchCols)

	row := r.db.QueryRow(ctx, q, catchArgs(c))
	result, err := scanCatch(row)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("repo.CatchRepo.Create: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgCatchRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Catch, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM catches
		WHERE id = @id AND trip_id = @trip_id`, catchCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID})
	result, err := scanCatch(row)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("repo.CatchRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCatchRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, bool, error) {
	args := pgx.NamedArgs{
		"trip_id":    tripID,
		"species_id": f.SpeciesID,
		"from":       f.From,
		"to":         f.To,
		"limit":      p.Limit + 1,
	}

	cursorFrag := ""
	if p.Cursor != nil {
		v, err := cursorValue(p.Sort, *p.Cursor)
		if err != nil {
			return nil, false, fmt.Errorf("repo.CatchRepo.ListByTrip: %w", err)
		}
		cursorFrag = keysetPredicate(p.Sort, p.Order)
		args["cursor_v"] = v
		args["cursor_id"] = p.Cursor.ID
	}

	q := fmt.Sprintf(`
		SELECT %s FROM catches
		WHERE trip_id = @trip_id
		  AND (@species_id::uuid IS NULL OR species_id = @species_id)
		  AND (@from::timestamptz IS NULL OR caught_at >= @from)
		  AND (@to::timestamptz IS NULL OR caught_at <= @to)
		  %s
		%s
		LIMIT @limit`, catchCols, cursorFrag, keysetOrderBy(p.Sort, p.Order))

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, false, fmt.Errorf("repo.CatchRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	catches := []domain.Catch{}
	for rows.Next() {
		c, err := scanCatch(rows)
		if err != nil {
			return nil, false, fmt.Errorf("repo.CatchRepo.ListByTrip: scan: %w", err)
		}
		catches = append(catches, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("repo.CatchRepo.ListByTrip: rows: %w", err)
	}

	hasMore := len(catches) > p.Limit
	if hasMore {
		catches = catches[:p.Limit]
	}
	return catches, hasMore, nil
}

func (r *pgCatchRepo) Update(ctx context.Context, c domain.Catch) (domain.Catch, error) {
	q := fmt.Sprintf(`
		UPDATE catches
		SET species_id               = @species_id,
		    caught_at                = @caught_at,
		    lure_id                  = @lure_id,
		    groundbait_id            = @groundbait_id,
		    lure_name_snapshot       = @lure_name_snapshot,
		    groundbait_name_snapshot = @groundbait_name_snapshot,
		    weight_g                 = @weight_g,
		    length_mm                = @length_mm,
		    photo_path               = @photo_path,
		    updated_at               = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING %s`, catchCols)

	args := catchArgs(c)
	args["id"] = c.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanCatch(row)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("repo.CatchRepo.Update: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgCatchRepo) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	const q = `DELETE FROM catches WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.CatchRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CatchRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// catchArgs flattens a domain.Catch into named args for INSERT/UPDATE.
func catchArgs(c domain.Catch) pgx.NamedArgs {
	return pgx.NamedArgs{
		"trip_id":                  c.TripID,
		"species_id":               c.SpeciesID,
		"caught_at":                c.CaughtAt,
		"lure_id":                  c.LureID,
		"groundbait_id":            c.GroundbaitID,
		"lure_name_snapshot":       c.LureNameSnapshot,
		"groundbait_name_snapshot": c.GroundbaitNameSnapshot,
		"weight_g":                 c.WeightGrams,
		"length_mm":                c.LengthMillimeters,
		"photo_path":               c.PhotoPath,
	}
}

// scanCatch maps a single database row into a domain.Catch.
func scanCatch(s scanner) (domain.Catch, error) {
	var (
		c                 domain.Catch
		id, trip, species pgtype.UUID
		lureID, gbID      pgtype.UUID
		lureSnap, gbSnap  pgtype.Text
		weight, length    pgtype.Int4
		photoPath         pgtype.Text
	)

	err := s.Scan(&id, &trip, &species, &c.CaughtAt, &lureID, &gbID,
		&lureSnap, &gbSnap, &weight, &length, &photoPath, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Catch{}, domain.ErrNotFound
		}
		return domain.Catch{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.TripID = uuid.UUID(trip.Bytes)
	c.SpeciesID = uuid.UUID(species.Bytes)
	if lureID.Valid {
		u := uuid.UUID(lureID.Bytes)
		c.LureID = &u
	}
	if gbID.Valid {
		u := uuid.UUID(gbID.Bytes)
		c.GroundbaitID = &u
	}
	if lureSnap.Valid {
		c.LureNameSnapshot = &lureSnap.String
	}
	if gbSnap.Valid {
		c.GroundbaitNameSnapshot = &gbSnap.String
	}
	if weight.Valid {
		w := int(weight.Int32)
		c.WeightGrams = &w
	}
	if length.Valid {
		l := int(length.Int32)
		c.LengthMillimeters = &l
	}
	if photoPath.Valid {
		c.PhotoPath = &photoPath.String
	}
	return c, nil
}
