package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// autoRefreshWindow bounds how old a trip may be (by start time) for closing
// it to trigger an automatic weather refresh. Weather data for trips closed
// long after the fact is unlikely to be what the provider still serves.
const autoRefreshWindow = 24 * time.Hour

// tripWeatherRefresher is the slice of WeatherService the trip lifecycle
// needs for auto-refresh on close. Defined here, in the consumer.
type tripWeatherRefresher interface {
	Refresh(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error)
}

// lastEquipmentLookup is the slice of LastUsedService quick-start consumes.
type lastEquipmentLookup interface {
	LastUsed(ctx context.Context, ownerID uuid.UUID) (domain.EquipmentSet, error)
}

// EquipmentCopier is the slice of AssignmentService quick-start consumes.
// Exported so main can build the per-kind copier map.
type EquipmentCopier interface {
	CopyFrom(ctx context.Context, ownerID, tripID uuid.UUID, ids []uuid.UUID) error
}

// TripService implements the trip lifecycle: creation, quick-start, partial
// update with status transitions, and soft-delete.
type TripService struct {
	trips    repo.TripRepo
	lastUsed lastEquipmentLookup
	copiers  map[domain.EquipmentKind]EquipmentCopier
	weather  tripWeatherRefresher
}

// NewTripService constructs a TripService. copiers holds one AssignmentService
// per equipment kind for quick-start equipment copying.
func NewTripService(trips repo.TripRepo, lastUsed lastEquipmentLookup, copiers map[domain.EquipmentKind]EquipmentCopier, weather tripWeatherRefresher) *TripService {
	return &TripService{trips: trips, lastUsed: lastUsed, copiers: copiers, weather: weather}
}

// Create validates and persists a new trip. Status defaults to draft.
func (s *TripService) Create(ctx context.Context, ownerID uuid.UUID, startedAt time.Time, endedAt *time.Time, status domain.TripStatus, location *domain.Location) (domain.Trip, error) {
	if status == "" {
		status = domain.StatusDraft
	}
	trip := domain.Trip{
		OwnerID:   ownerID,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Status:    status,
		Location:  location,
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// QuickStart creates an active trip starting now and, if requested, copies
// the equipment set of the owner's most recent trip onto it. Copying
// re-snapshots the equipment's *current* names — that is what the user sees
// when they copy "now" — and silently skips items deleted since.
//
// An owner with no previous trips gets a plain quick-start: the lookup's
// not-found is an empty state here, not an error.
func (s *TripService) QuickStart(ctx context.Context, ownerID uuid.UUID, location *domain.Location, copyEquipment bool) (domain.Trip, error) {
	trip, err := s.trips.Create(ctx, domain.Trip{
		OwnerID:   ownerID,
		StartedAt: time.Now().UTC(),
		Status:    domain.StatusActive,
		Location:  location,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.QuickStart: %w", err)
	}

	if !copyEquipment {
		return trip, nil
	}

	set, err := s.lastUsed.LastUsed(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return trip, nil
		}
		return domain.Trip{}, fmt.Errorf("service.TripService.QuickStart: %w", err)
	}

	for kind, ids := range map[domain.EquipmentKind][]uuid.UUID{
		domain.KindRod:        domain.IDs(set.Rods),
		domain.KindLure:       domain.IDs(set.Lures),
		domain.KindGroundbait: domain.IDs(set.Groundbaits),
	} {
		if len(ids) == 0 {
			continue
		}
		if err := s.copiers[kind].CopyFrom(ctx, ownerID, trip.ID, ids); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.QuickStart: %w", err)
		}
	}

	return trip, nil
}

// GetByID returns a single non-deleted trip owned by ownerID.
func (s *TripService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	result, err := s.trips.GetByID(ctx, ownerID, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of the owner's trips and the pagination envelope.
func (s *TripService) List(ctx context.Context, ownerID uuid.UUID, f repo.TripFilter, p domain.ListParams) ([]domain.Trip, domain.Page, error) {
	trips, hasMore, err := s.trips.List(ctx, ownerID, f, p)
	if err != nil {
		return nil, domain.Page{}, fmt.Errorf("service.TripService.List: %w", err)
	}

	var next string
	if hasMore {
		last := trips[len(trips)-1]
		next = domain.EncodeCursor(tripSortValue(last, p.Sort), last.ID)
	}
	return trips, domain.NewPage(p.Limit, next, hasMore), nil
}

// Update applies a partial patch to a trip. Invariants are validated against
// the merge of the existing row and the patch, since a client may send only
// one of the two date fields.
//
// When the patch transitions ended_at from unset to set — the trip is being
// closed — and the trip is eligible (has a location, started within the last
// 24 hours), a weather refresh is issued as a side effect. Its outcome is
// returned separately and its failure never fails the update.
func (s *TripService) Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.TripPatch) (domain.Trip, *domain.RefreshOutcome, error) {
	existing, err := s.trips.GetByID(ctx, ownerID, id)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Update: %w", err)
	}

	merged := existing
	if patch.StartedAt != nil {
		merged.StartedAt = *patch.StartedAt
	}
	if patch.EndedAt != nil {
		merged.EndedAt = patch.EndedAt
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Location != nil {
		merged.Location = patch.Location
	}

	if !domain.ValidStatus(merged.Status) {
		return domain.Trip{}, nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, merged.Status)
	}
	if !domain.CanTransition(existing.Status, merged.Status) {
		return domain.Trip{}, nil, fmt.Errorf("%w: cannot transition from %s to %s", domain.ErrValidation, existing.Status, merged.Status)
	}
	if err := validateTrip(merged); err != nil {
		return domain.Trip{}, nil, err
	}

	updated, err := s.trips.Update(ctx, merged)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Update: %w", err)
	}

	outcome := s.maybeAutoRefresh(ctx, ownerID, existing, updated)
	return updated, outcome, nil
}

// SoftDelete marks a trip deleted. Catches and assignments underneath it are
// not destroyed — they just become unreachable through default listings.
func (s *TripService) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.trips.SoftDelete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("service.TripService.SoftDelete: %w", err)
	}
	return nil
}

// maybeAutoRefresh issues the close-triggered weather refresh when the update
// closed the trip and it is eligible. Returns nil when no refresh was
// attempted.
func (s *TripService) maybeAutoRefresh(ctx context.Context, ownerID uuid.UUID, before, after domain.Trip) *domain.RefreshOutcome {
	closed := before.EndedAt == nil && after.EndedAt != nil
	if !closed || after.Location == nil {
		return nil
	}
	if time.Since(after.StartedAt) > autoRefreshWindow {
		return nil
	}

	snap, err := s.weather.Refresh(ctx, ownerID, after.ID, &after.StartedAt, after.EndedAt, false)
	if err != nil {
		return &domain.RefreshOutcome{Status: "failed", Error: domain.CodeOf(err)}
	}
	return &domain.RefreshOutcome{Status: "ok", SnapshotID: &snap.ID}
}

// validateTrip enforces the date and status invariants common to Create and
// Update (on the merged field values).
//   - started_at is required.
//   - ended_at, if set, must not be before started_at.
//   - status closed requires ended_at.
func validateTrip(trip domain.Trip) error {
	if trip.StartedAt.IsZero() {
		return fmt.Errorf("%w: started_at is required", domain.ErrValidation)
	}
	if trip.EndedAt != nil && trip.EndedAt.Before(trip.StartedAt) {
		return fmt.Errorf("%w: ended_at must not be before started_at", domain.ErrValidation)
	}
	if trip.Status == domain.StatusClosed && trip.EndedAt == nil {
		return fmt.Errorf("%w: ended_at is required to close a trip", domain.ErrValidation)
	}
	return nil
}

// tripSortValue extracts the cursor sort value of a trip for the given sort column.
func tripSortValue(t domain.Trip, sort string) string {
	if sort == "created_at" {
		return domain.SortTimeValue(t.CreatedAt)
	}
	return domain.SortTimeValue(t.StartedAt)
}
