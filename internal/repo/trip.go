package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// TripSorts is the sort allow-list for trip lists. The first entry is the default.
var TripSorts = []string{"started_at", "created_at"}

// TripFilter narrows a trip list query to trips starting inside [From, To].
type TripFilter struct {
	From *time.Time
	To   *time.Time
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id and timestamps populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a non-deleted trip owned by ownerID.
	// Soft-deleted trips are reported as domain.ErrNotFound: they are not
	// valid targets for reads or mutations.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)

	// List returns one page of the owner's non-deleted trips plus a hasMore flag.
	List(ctx context.Context, ownerID uuid.UUID, f TripFilter, p domain.ListParams) ([]domain.Trip, bool, error)

	// Update overwrites the mutable fields of a non-deleted trip and returns
	// the updated record. The caller supplies the full merged field set.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// SoftDelete marks a non-deleted trip as deleted.
	// Returns domain.ErrNotFound if no live row matches.
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error

	// LastByOwner returns the owner's most recent non-deleted trip by start
	// time, or domain.ErrNotFound if the owner has no trips at all.
	LastByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripCols = `id, owner_id, started_at, ended_at, status,
		latitude, longitude, location_label, deleted_at, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := fmt.Sprintf(`
		INSERT INTO trips (owner_id, started_at, ended_at, status, latitude, longitude, location_label)
		VALUES (@owner_id, @started_at, @ended_at, @status, @latitude, @longitude, @location_label)
		RETURNING %s`, tripCols)

	row := r.db.QueryRow(ctx, q, tripArgs(trip))
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE id = @id AND owner_id = @owner_id AND deleted_at IS NULL`, tripCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) List(ctx context.Context, ownerID uuid.UUID, f TripFilter, p domain.ListParams) ([]domain.Trip, bool, error) {
	args := pgx.NamedArgs{
		"owner_id": ownerID,
		"from":     f.From, // nil disables the bound
		"to":       f.To,
		"limit":    p.Limit + 1,
	}

	cursorFrag := ""
	if p.Cursor != nil {
		v, err := cursorValue(p.Sort, *p.Cursor)
		if err != nil {
			return nil, false, fmt.Errorf("repo.TripRepo.List: %w", err)
		}
		cursorFrag = keysetPredicate(p.Sort, p.Order)
		args["cursor_v"] = v
		args["cursor_id"] = p.Cursor.ID
	}

	q := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE owner_id = @owner_id
		  AND deleted_at IS NULL
		  AND (@from::timestamptz IS NULL OR started_at >= @from)
		  AND (@to::timestamptz IS NULL OR started_at <= @to)
		  %s
		%s
		LIMIT @limit`, tripCols, cursorFrag, keysetOrderBy(p.Sort, p.Order))

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, false, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, false, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}

	hasMore := len(trips) > p.Limit
	if hasMore {
		trips = trips[:p.Limit]
	}
	return trips, hasMore, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := fmt.Sprintf(`
		UPDATE trips
		SET started_at     = @started_at,
		    ended_at       = @ended_at,
		    status         = @status,
		    latitude       = @latitude,
		    longitude      = @longitude,
		    location_label = @location_label,
		    updated_at     = now()
		WHERE id = @id AND owner_id = @owner_id AND deleted_at IS NULL
		RETURNING %s`, tripCols)

	args := tripArgs(trip)
	args["id"] = trip.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgTripRepo) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `
		UPDATE trips
		SET deleted_at = now(), updated_at = now()
		WHERE id = @id AND owner_id = @owner_id AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.SoftDelete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) LastByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Trip, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE owner_id = @owner_id AND deleted_at IS NULL
		ORDER BY started_at DESC, id DESC
		LIMIT 1`, tripCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.LastByOwner: %w", err)
	}
	return result, nil
}

// tripArgs flattens a domain.Trip into named args for INSERT/UPDATE.
// The optional location collapses to three nullable columns.
func tripArgs(trip domain.Trip) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"owner_id":       trip.OwnerID,
		"started_at":     trip.StartedAt,
		"ended_at":       trip.EndedAt, // nil becomes NULL
		"status":         string(trip.Status),
		"latitude":       nil,
		"longitude":      nil,
		"location_label": nil,
	}
	if trip.Location != nil {
		args["latitude"] = trip.Location.Latitude
		args["longitude"] = trip.Location.Longitude
		args["location_label"] = trip.Location.Label
	}
	return args
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t           domain.Trip
		id, owner   pgtype.UUID
		endedAt     pgtype.Timestamptz
		deletedAt   pgtype.Timestamptz
		lat, lon    pgtype.Float8
		locLabel    pgtype.Text
		statusValue string
	)

	err := s.Scan(&id, &owner, &t.StartedAt, &endedAt, &statusValue,
		&lat, &lon, &locLabel, &deletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.OwnerID = uuid.UUID(owner.Bytes)
	t.Status = domain.TripStatus(statusValue)
	if endedAt.Valid {
		e := endedAt.Time
		t.EndedAt = &e
	}
	if deletedAt.Valid {
		d := deletedAt.Time
		t.DeletedAt = &d
	}
	if lat.Valid && lon.Valid {
		loc := domain.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		if locLabel.Valid {
			loc.Label = &locLabel.String
		}
		t.Location = &loc
	}
	return t, nil
}
