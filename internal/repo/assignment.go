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

// assignmentTables maps each equipment kind to its trip junction table and
// the name of the equipment FK column inside it.
var assignmentTables = map[domain.EquipmentKind]struct {
	table string
	fkCol string
}{
	domain.KindRod:        {table: "trip_rods", fkCol: "rod_id"},
	domain.KindLure:       {table: "trip_lures", fkCol: "lure_id"},
	domain.KindGroundbait: {table: "trip_groundbaits", fkCol: "groundbait_id"},
}

// AssignmentRepo defines the persistence operations for one kind's trip
// equipment assignments. Assignments are insert-and-delete only: there is no
// update path, which is what makes name snapshots write-once at this layer.
type AssignmentRepo interface {
	// ListByTrip returns all assignments of a trip, ordered by creation time.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Assignment, error)

	// Add links one equipment item to a trip, capturing nameSnapshot.
	// A duplicate (trip, equipment) pair yields domain.ErrConflict.
	Add(ctx context.Context, tripID, equipmentID uuid.UUID, nameSnapshot string) (domain.Assignment, error)

	// RemoveNotIn deletes the trip's assignments whose equipment id is not
	// in keep. An empty keep removes them all.
	RemoveNotIn(ctx context.Context, tripID uuid.UUID, keep []uuid.UUID) error
}

// pgAssignmentRepo is the Postgres implementation of AssignmentRepo.
type pgAssignmentRepo struct {
	db    db
	table string
	fkCol string
}

// NewAssignmentRepo constructs an AssignmentRepo for the given kind.
func NewAssignmentRepo(db db, kind domain.EquipmentKind) AssignmentRepo {
	t := assignmentTables[kind]
	return &pgAssignmentRepo{db: db, table: t.table, fkCol: t.fkCol}
}

func (r *pgAssignmentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Assignment, error) {
	q := fmt.Sprintf(`
		SELECT id, trip_id, %s, name_snapshot, created_at
		FROM %s
		WHERE trip_id = @trip_id
		ORDER BY created_at, id`, r.fkCol, r.table)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	assignments := []domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: scan: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: rows: %w", err)
	}
	return assignments, nil
}

func (r *pgAssignmentRepo) Add(ctx context.Context, tripID, equipmentID uuid.UUID, nameSnapshot string) (domain.Assignment, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (trip_id, %s, name_snapshot)
		VALUES (@trip_id, @equipment_id, @name_snapshot)
		RETURNING id, trip_id, %s, name_snapshot, created_at`, r.table, r.fkCol, r.fkCol)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":       tripID,
		"equipment_id":  equipmentID,
		"name_snapshot": nameSnapshot,
	})
	result, err := scanAssignment(row)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("repo.AssignmentRepo.Add: %w", mapConstraintError(err))
	}
	return result, nil
}

func (r *pgAssignmentRepo) RemoveNotIn(ctx context.Context, tripID uuid.UUID, keep []uuid.UUID) error {
	q := fmt.Sprintf(`
		DELETE FROM %s
		WHERE trip_id = @trip_id AND NOT (%s = ANY(@keep))`, r.table, r.fkCol)

	// pgx maps []uuid.UUID to a uuid[] parameter; an empty slice matches
	// nothing in ANY, so every assignment of the trip is removed.
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "keep": keep})
	if err != nil {
		return fmt.Errorf("repo.AssignmentRepo.RemoveNotIn: %w", err)
	}
	return nil
}

// scanAssignment maps a single database row into a domain.Assignment.
func scanAssignment(s scanner) (domain.Assignment, error) {
	var (
		a            domain.Assignment
		id, trip, eq pgtype.UUID
	)

	err := s.Scan(&id, &trip, &eq, &a.NameSnapshot, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, domain.ErrNotFound
		}
		return domain.Assignment{}, err
	}

	a.ID = uuid.UUID(id.Bytes)
	a.TripID = uuid.UUID(trip.Bytes)
	a.EquipmentID = uuid.UUID(eq.Bytes)
	return a, nil
}
