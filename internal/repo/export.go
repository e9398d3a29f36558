package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// ExportRepo assembles the flat full-data export in a single join query.
type ExportRepo interface {
	// List returns one row per catch across the owner's non-deleted trips,
	// ordered by trip start time then catch time. Trips with no catches
	// contribute one row with empty catch fields.
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.ExportRow, error)
}

// pgExportRepo is the Postgres implementation of ExportRepo.
type pgExportRepo struct {
	db db
}

// NewExportRepo constructs an ExportRepo backed by the provided db connection.
func NewExportRepo(db db) ExportRepo {
	return &pgExportRepo{db: db}
}

func (r *pgExportRepo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.ExportRow, error) {
	// Snapshot columns are read from the catch rows, not joined back to the
	// equipment tables: the export reports names as they were at catch time.
	const q = `
		SELECT t.id, t.started_at, t.ended_at, t.status, t.location_label,
		       s.name, c.caught_at, c.lure_name_snapshot, c.groundbait_name_snapshot,
		       c.weight_g, c.length_mm
		FROM trips t
		LEFT JOIN catches c ON c.trip_id = t.id
		LEFT JOIN species s ON s.id = c.species_id
		WHERE t.owner_id = @owner_id AND t.deleted_at IS NULL
		ORDER BY t.started_at, t.id, c.caught_at, c.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.ExportRepo.List: %w", err)
	}
	defer rows.Close()

	out := []domain.ExportRow{}
	for rows.Next() {
		row, err := scanExportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ExportRepo.List: scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ExportRepo.List: rows: %w", err)
	}
	return out, nil
}

// scanExportRow maps a joined trip/catch/species row into a domain.ExportRow.
func scanExportRow(s scanner) (domain.ExportRow, error) {
	var (
		row               domain.ExportRow
		tripID            pgtype.UUID
		startedAt         time.Time
		endedAt           pgtype.Timestamptz
		locLabel, species pgtype.Text
		caughtAt          pgtype.Timestamptz
		lureSnap, gbSnap  pgtype.Text
		weight, length    pgtype.Int4
	)

	err := s.Scan(&tripID, &startedAt, &endedAt, &row.TripStatus, &locLabel,
		&species, &caughtAt, &lureSnap, &gbSnap, &weight, &length)
	if err != nil {
		return domain.ExportRow{}, err
	}

	row.TripID = uuid.UUID(tripID.Bytes).String()
	row.TripStartedAt = startedAt.UTC().Format(time.RFC3339)
	if endedAt.Valid {
		row.TripEndedAt = endedAt.Time.UTC().Format(time.RFC3339)
	}
	if locLabel.Valid {
		row.LocationLabel = locLabel.String
	}
	if species.Valid {
		row.Species = species.String
	}
	if caughtAt.Valid {
		t := caughtAt.Time
		row.CaughtAt = &t
	}
	if lureSnap.Valid {
		row.LureSnapshot = lureSnap.String
	}
	if gbSnap.Valid {
		row.GroundbaitSnapshot = gbSnap.String
	}
	if weight.Valid {
		w := int(weight.Int32)
		row.WeightGrams = &w
	}
	if length.Valid {
		l := int(length.Int32)
		row.LengthMillimeters = &l
	}
	return row, nil
}
