package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// freshSnapshotWindow is how recently an api snapshot must have been fetched
// for a non-forced refresh to reuse it instead of calling the provider.
const freshSnapshotWindow = time.Hour

// WeatherProvider is the external provider contract the weather service
// depends on: a location-key resolution step followed by an hourly fetch.
// The two steps are sequential by nature — the key feeds the second call.
type WeatherProvider interface {
	LocationKey(ctx context.Context, lat, lon float64) (string, error)
	Hourly(ctx context.Context, key string, from, to time.Time) ([]domain.WeatherHour, error)
}

// WeatherService implements weather snapshot refresh and lookup for trips.
type WeatherService struct {
	trips    repo.TripRepo
	weather  repo.WeatherRepo
	provider WeatherProvider
}

// NewWeatherService constructs a WeatherService backed by the provided repos
// and provider client.
func NewWeatherService(trips repo.TripRepo, weather repo.WeatherRepo, provider WeatherProvider) *WeatherService {
	return &WeatherService{trips: trips, weather: weather, provider: provider}
}

// Refresh fetches fresh weather data for the trip's location over the given
// period and persists it as a new immutable snapshot. Period bounds default
// to the trip's own window (start, and end or now).
//
// A trip without a location is a validation error and no provider call is
// attempted. Without force, a sufficiently fresh api snapshot covering the
// period short-circuits the provider entirely.
func (s *WeatherService) Refresh(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error) {
	trip, err := s.trips.GetByID(ctx, ownerID, tripID)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Refresh: %w", err)
	}
	if trip.Location == nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: trip has no location", domain.ErrValidation)
	}

	start := trip.StartedAt
	if periodStart != nil {
		start = *periodStart
	}
	end := time.Now().UTC()
	if periodEnd != nil {
		end = *periodEnd
	} else if trip.EndedAt != nil {
		end = *trip.EndedAt
	}
	if end.Before(start) {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: period_end must not be before period_start", domain.ErrValidation)
	}

	if !force {
		if fresh, ok := s.freshSnapshot(ctx, tripID, start, end); ok {
			return fresh, nil
		}
	}

	key, err := s.provider.LocationKey(ctx, trip.Location.Latitude, trip.Location.Longitude)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Refresh: %w", err)
	}
	hours, err := s.provider.Hourly(ctx, key, start, end)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Refresh: %w", err)
	}

	snap, err := s.weather.CreateSnapshot(ctx, domain.WeatherSnapshot{
		TripID:      tripID,
		Source:      domain.WeatherSourceAPI,
		FetchedAt:   time.Now().UTC(),
		PeriodStart: start,
		PeriodEnd:   end,
		Hours:       hours,
	})
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Refresh: %w", err)
	}
	return snap, nil
}

// CreateManual records an operator-entered snapshot with caller-supplied
// hours. Every observation must fall inside the stated period. Manual
// snapshots never satisfy the freshness short-circuit in Refresh, so a later
// refresh still goes to the provider.
func (s *WeatherService) CreateManual(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd time.Time, hours []domain.WeatherHour) (domain.WeatherSnapshot, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.CreateManual: %w", err)
	}
	if periodEnd.Before(periodStart) {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: period_end must not be before period_start", domain.ErrValidation)
	}
	if len(hours) == 0 {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: at least one hour is required", domain.ErrValidation)
	}
	for _, h := range hours {
		if h.ObservedAt.Before(periodStart) || h.ObservedAt.After(periodEnd) {
			return domain.WeatherSnapshot{}, fmt.Errorf("%w: observed_at must fall within the period", domain.ErrValidation)
		}
	}

	snap, err := s.weather.CreateSnapshot(ctx, domain.WeatherSnapshot{
		TripID:      tripID,
		Source:      domain.WeatherSourceManual,
		FetchedAt:   time.Now().UTC(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Hours:       hours,
	})
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.CreateManual: %w", err)
	}
	return snap, nil
}

// Latest returns the most recently fetched snapshot of the owner's trip.
func (s *WeatherService) Latest(ctx context.Context, ownerID, tripID uuid.UUID) (domain.WeatherSnapshot, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Latest: %w", err)
	}
	snap, err := s.weather.LatestByTrip(ctx, tripID)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("service.WeatherService.Latest: %w", err)
	}
	return snap, nil
}

// freshSnapshot reports whether the trip's latest snapshot is an api snapshot
// fetched within the fresh window that covers [start, end]. Lookup errors
// just mean "no fresh snapshot" — the refresh proceeds to the provider.
func (s *WeatherService) freshSnapshot(ctx context.Context, tripID uuid.UUID, start, end time.Time) (domain.WeatherSnapshot, bool) {
	latest, err := s.weather.LatestByTrip(ctx, tripID)
	if err != nil {
		// Includes ErrNotFound — a trip with no snapshots has nothing fresh.
		return domain.WeatherSnapshot{}, false
	}
	if latest.Source != domain.WeatherSourceAPI {
		return domain.WeatherSnapshot{}, false
	}
	if time.Since(latest.FetchedAt) > freshSnapshotWindow {
		return domain.WeatherSnapshot{}, false
	}
	if latest.PeriodStart.After(start) || latest.PeriodEnd.Before(end) {
		return domain.WeatherSnapshot{}, false
	}
	return latest, true
}
