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

// WeatherRepo defines the persistence operations for weather snapshots.
// Snapshots are insert-only: a refresh creates a new snapshot, never mutates
// an existing one, and "current" weather is simply the latest fetched_at.
type WeatherRepo interface {
	// CreateSnapshot inserts a snapshot and its hour rows, returning the
	// persisted snapshot with hours attached.
	CreateSnapshot(ctx context.Context, snap domain.WeatherSnapshot) (domain.WeatherSnapshot, error)

	// LatestByTrip returns the most recently fetched snapshot of a trip
	// with its hours ordered by observation time, or domain.ErrNotFound if
	// the trip has no snapshots.
	LatestByTrip(ctx context.Context, tripID uuid.UUID) (domain.WeatherSnapshot, error)
}

// pgWeatherRepo is the Postgres implementation of WeatherRepo.
type pgWeatherRepo struct {
	db db
}

// NewWeatherRepo constructs a WeatherRepo backed by the provided db connection.
func NewWeatherRepo(db db) WeatherRepo {
	return &pgWeatherRepo{db: db}
}

const snapshotCols = "id, trip_id, source, fetched_at, period_start, period_end, created_at"

func (r *pgWeatherRepo) CreateSnapshot(ctx context.Context, snap domain.WeatherSnapshot) (domain.WeatherSnapshot, error) {
	q := fmt.Sprintf(`
		INSERT INTO weather_snapshots (trip_id, source, fetched_at, period_start, period_end)
		VALUES (@trip_id, @source, @fetched_at, @period_start, @period_end)
		RETURNING %s`, snapshotCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":      snap.TripID,
		"source":       string(snap.Source),
		"fetched_at":   snap.FetchedAt,
		"period_start": snap.PeriodStart,
		"period_end":   snap.PeriodEnd,
	})
	created, err := scanSnapshot(row)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.CreateSnapshot: %w", mapConstraintError(err))
	}

	const hq = `
		INSERT INTO weather_hours (snapshot_id, observed_at, temperature_c, feels_like_c,
			wind_speed_ms, wind_gust_ms, wind_direction_deg, pressure_hpa, humidity_pct,
			precipitation_mm, cloud_cover_pct, condition_text, is_daylight)
		VALUES (@snapshot_id, @observed_at, @temperature_c, @feels_like_c,
			@wind_speed_ms, @wind_gust_ms, @wind_direction_deg, @pressure_hpa, @humidity_pct,
			@precipitation_mm, @cloud_cover_pct, @condition_text, @is_daylight)
		RETURNING id`

	created.Hours = make([]domain.WeatherHour, 0, len(snap.Hours))
	for _, h := range snap.Hours {
		args := pgx.NamedArgs{
			"snapshot_id":        created.ID,
			"observed_at":        h.ObservedAt,
			"temperature_c":      h.TemperatureC,
			"feels_like_c":       h.FeelsLikeC,
			"wind_speed_ms":      h.WindSpeedMS,
			"wind_gust_ms":       h.WindGustMS,
			"wind_direction_deg": h.WindDirectionDeg,
			"pressure_hpa":       h.PressureHPa,
			"humidity_pct":       h.HumidityPct,
			"precipitation_mm":   h.PrecipitationMM,
			"cloud_cover_pct":    h.CloudCoverPct,
			"condition_text":     h.ConditionText,
			"is_daylight":        h.IsDaylight,
		}
		var hid pgtype.UUID
		if err := r.db.QueryRow(ctx, hq, args).Scan(&hid); err != nil {
			return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.CreateSnapshot: hour: %w", mapConstraintError(err))
		}
		h.ID = uuid.UUID(hid.Bytes)
		h.SnapshotID = created.ID
		created.Hours = append(created.Hours, h)
	}

	return created, nil
}

func (r *pgWeatherRepo) LatestByTrip(ctx context.Context, tripID uuid.UUID) (domain.WeatherSnapshot, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM weather_snapshots
		WHERE trip_id = @trip_id
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1`, snapshotCols)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	snap, err := scanSnapshot(row)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.LatestByTrip: %w", err)
	}

	const hq = `
		SELECT id, snapshot_id, observed_at, temperature_c, feels_like_c,
			wind_speed_ms, wind_gust_ms, wind_direction_deg, pressure_hpa, humidity_pct,
			precipitation_mm, cloud_cover_pct, condition_text, is_daylight
		FROM weather_hours
		WHERE snapshot_id = @snapshot_id
		ORDER BY observed_at, id`

	rows, err := r.db.Query(ctx, hq, pgx.NamedArgs{"snapshot_id": snap.ID})
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.LatestByTrip: hours: %w", err)
	}
	defer rows.Close()

	snap.Hours = []domain.WeatherHour{}
	for rows.Next() {
		h, err := scanWeatherHour(rows)
		if err != nil {
			return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.LatestByTrip: scan hour: %w", err)
		}
		snap.Hours = append(snap.Hours, h)
	}
	if err := rows.Err(); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("repo.WeatherRepo.LatestByTrip: rows: %w", err)
	}

	return snap, nil
}

// scanSnapshot maps a single database row into a domain.WeatherSnapshot
// without its hours.
func scanSnapshot(s scanner) (domain.WeatherSnapshot, error) {
	var (
		snap     domain.WeatherSnapshot
		id, trip pgtype.UUID
		source   string
	)

	err := s.Scan(&id, &trip, &source, &snap.FetchedAt, &snap.PeriodStart, &snap.PeriodEnd, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WeatherSnapshot{}, domain.ErrNotFound
		}
		return domain.WeatherSnapshot{}, err
	}

	snap.ID = uuid.UUID(id.Bytes)
	snap.TripID = uuid.UUID(trip.Bytes)
	snap.Source = domain.WeatherSource(source)
	return snap, nil
}

// scanWeatherHour maps a single database row into a domain.WeatherHour.
// Every weather field is nullable; NULL scans into a nil pointer, never a zero.
func scanWeatherHour(s scanner) (domain.WeatherHour, error) {
	var (
		h        domain.WeatherHour
		id, snap pgtype.UUID
	)

	err := s.Scan(&id, &snap, &h.ObservedAt, &h.TemperatureC, &h.FeelsLikeC,
		&h.WindSpeedMS, &h.WindGustMS, &h.WindDirectionDeg, &h.PressureHPa, &h.HumidityPct,
		&h.PrecipitationMM, &h.CloudCoverPct, &h.ConditionText, &h.IsDaylight)
	if err != nil {
		return domain.WeatherHour{}, err
	}

	h.ID = uuid.UUID(id.Bytes)
	h.SnapshotID = uuid.UUID(snap.Bytes)
	return h, nil
}
