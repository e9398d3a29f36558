package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/photo"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// CatchService implements catch recording inside a trip.
// It holds the trip repo to validate the trip window, and the lure and
// groundbait repos to validate references and capture name snapshots.
type CatchService struct {
	trips       repo.TripRepo
	catches     repo.CatchRepo
	lures       repo.EquipmentRepo
	groundbaits repo.EquipmentRepo
}

// NewCatchService constructs a CatchService backed by the provided repos.
func NewCatchService(trips repo.TripRepo, catches repo.CatchRepo, lures, groundbaits repo.EquipmentRepo) *CatchService {
	return &CatchService{trips: trips, catches: catches, lures: lures, groundbaits: groundbaits}
}

// Create validates and persists a new catch on the owner's trip, snapshotting
// the names of any referenced lure and groundbait.
func (s *CatchService) Create(ctx context.Context, ownerID uuid.UUID, c domain.Catch) (domain.Catch, error) {
	trip, err := s.trips.GetByID(ctx, ownerID, c.TripID)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Create: %w", err)
	}
	if err := validateCatch(ownerID, trip, c); err != nil {
		return domain.Catch{}, err
	}

	if err := s.snapshotLure(ctx, ownerID, &c); err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Create: %w", err)
	}
	if err := s.snapshotGroundbait(ctx, ownerID, &c); err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Create: %w", err)
	}

	result, err := s.catches.Create(ctx, c)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single catch, scoped to the owner's trip.
func (s *CatchService) GetByID(ctx context.Context, ownerID, tripID, id uuid.UUID) (domain.Catch, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.GetByID: %w", err)
	}
	result, err := s.catches.GetByID(ctx, tripID, id)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of a trip's catches and the pagination envelope.
func (s *CatchService) List(ctx context.Context, ownerID, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, domain.Page, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return nil, domain.Page{}, fmt.Errorf("service.CatchService.List: %w", err)
	}
	catches, hasMore, err := s.catches.ListByTrip(ctx, tripID, f, p)
	if err != nil {
		return nil, domain.Page{}, fmt.Errorf("service.CatchService.List: %w", err)
	}

	var next string
	if hasMore {
		last := catches[len(catches)-1]
		next = domain.EncodeCursor(catchSortValue(last, p.Sort), last.ID)
	}
	return catches, domain.NewPage(p.Limit, next, hasMore), nil
}

// Update applies a partial patch to a catch. Validation runs against the
// merged field values, so patching only caught_at still re-checks the trip
// window. Snapshots are only re-captured when the reference itself changes:
// an untouched lure keeps the snapshot text recorded at catch time, even if
// the lure has since been renamed or deleted.
func (s *CatchService) Update(ctx context.Context, ownerID, tripID, id uuid.UUID, patch domain.CatchPatch) (domain.Catch, error) {
	trip, err := s.trips.GetByID(ctx, ownerID, tripID)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Update: %w", err)
	}
	merged, err := s.catches.GetByID(ctx, tripID, id)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Update: %w", err)
	}

	if patch.SpeciesID != nil {
		merged.SpeciesID = *patch.SpeciesID
	}
	if patch.CaughtAt != nil {
		merged.CaughtAt = *patch.CaughtAt
	}
	if patch.WeightGrams != nil {
		merged.WeightGrams = *patch.WeightGrams
	}
	if patch.LengthMillimeters != nil {
		merged.LengthMillimeters = *patch.LengthMillimeters
	}
	if patch.PhotoPath != nil {
		merged.PhotoPath = *patch.PhotoPath
	}
	if patch.LureID != nil {
		merged.LureID = *patch.LureID
		merged.LureNameSnapshot = nil
		if err := s.snapshotLure(ctx, ownerID, &merged); err != nil {
			return domain.Catch{}, fmt.Errorf("service.CatchService.Update: %w", err)
		}
	}
	if patch.GroundbaitID != nil {
		merged.GroundbaitID = *patch.GroundbaitID
		merged.GroundbaitNameSnapshot = nil
		if err := s.snapshotGroundbait(ctx, ownerID, &merged); err != nil {
			return domain.Catch{}, fmt.Errorf("service.CatchService.Update: %w", err)
		}
	}

	if err := validateCatch(ownerID, trip, merged); err != nil {
		return domain.Catch{}, err
	}

	result, err := s.catches.Update(ctx, merged)
	if err != nil {
		return domain.Catch{}, fmt.Errorf("service.CatchService.Update: %w", err)
	}
	return result, nil
}

// Delete physically removes a catch, scoped to the owner's trip.
func (s *CatchService) Delete(ctx context.Context, ownerID, tripID, id uuid.UUID) error {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return fmt.Errorf("service.CatchService.Delete: %w", err)
	}
	if err := s.catches.Delete(ctx, tripID, id); err != nil {
		return fmt.Errorf("service.CatchService.Delete: %w", err)
	}
	return nil
}

// snapshotLure resolves the catch's lure reference (if any), checks it is
// usable by the owner, and captures its current name.
func (s *CatchService) snapshotLure(ctx context.Context, ownerID uuid.UUID, c *domain.Catch) error {
	if c.LureID == nil {
		return nil
	}
	item, err := requireUsableEquipment(ctx, s.lures, ownerID, *c.LureID)
	if err != nil {
		return err
	}
	c.LureNameSnapshot = &item.Name
	return nil
}

// snapshotGroundbait is the groundbait counterpart of snapshotLure.
func (s *CatchService) snapshotGroundbait(ctx context.Context, ownerID uuid.UUID, c *domain.Catch) error {
	if c.GroundbaitID == nil {
		return nil
	}
	item, err := requireUsableEquipment(ctx, s.groundbaits, ownerID, *c.GroundbaitID)
	if err != nil {
		return err
	}
	c.GroundbaitNameSnapshot = &item.Name
	return nil
}

// requireUsableEquipment fetches one equipment row and checks ownership and
// soft-delete state. Shared by both snapshot helpers.
func requireUsableEquipment(ctx context.Context, r repo.EquipmentRepo, ownerID, id uuid.UUID) (domain.Equipment, error) {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Equipment{}, err
	}
	if item.OwnerID != ownerID {
		return domain.Equipment{}, fmt.Errorf("%w: equipment %s", domain.ErrEquipmentOwnerMismatch, id)
	}
	if item.Deleted() {
		return domain.Equipment{}, fmt.Errorf("%w: equipment %s", domain.ErrEquipmentDeleted, id)
	}
	return item, nil
}

// validateCatch enforces the catch invariants on merged field values.
//   - caught_at must lie within [trip.started_at, trip.ended_at] (when set)
//     and must not be in the future.
//   - weight and length, when present, must be positive.
//   - a photo path must lie inside the owner's partition.
func validateCatch(ownerID uuid.UUID, trip domain.Trip, c domain.Catch) error {
	if c.CaughtAt.IsZero() {
		return fmt.Errorf("%w: caught_at is required", domain.ErrValidation)
	}
	if c.CaughtAt.Before(trip.StartedAt) {
		return fmt.Errorf("%w: caught_at must not be before the trip start", domain.ErrValidation)
	}
	if trip.EndedAt != nil && c.CaughtAt.After(*trip.EndedAt) {
		return fmt.Errorf("%w: caught_at must not be after the trip end", domain.ErrValidation)
	}
	if c.CaughtAt.After(time.Now()) {
		return fmt.Errorf("%w: caught_at must not be in the future", domain.ErrValidation)
	}
	if c.SpeciesID == uuid.Nil {
		return fmt.Errorf("%w: species_id is required", domain.ErrValidation)
	}
	if c.WeightGrams != nil && *c.WeightGrams <= 0 {
		return fmt.Errorf("%w: weight_g must be positive", domain.ErrValidation)
	}
	if c.LengthMillimeters != nil && *c.LengthMillimeters <= 0 {
		return fmt.Errorf("%w: length_mm must be positive", domain.ErrValidation)
	}
	if c.PhotoPath != nil {
		if err := photo.ValidatePath(ownerID, *c.PhotoPath); err != nil {
			return err
		}
	}
	return nil
}

// catchSortValue extracts the cursor sort value of a catch for the given sort column.
func catchSortValue(c domain.Catch, sort string) string {
	if sort == "created_at" {
		return domain.SortTimeValue(c.CreatedAt)
	}
	return domain.SortTimeValue(c.CaughtAt)
}
