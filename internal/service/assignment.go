package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// maxAssignmentsPerTrip caps the size of a replace-all set.
const maxAssignmentsPerTrip = 50

// AssignmentService implements trip equipment assignment for one kind.
// Assignments capture an immutable name snapshot at creation; nothing in this
// service (or its repo) ever rewrites an existing snapshot.
type AssignmentService struct {
	trips       repo.TripRepo
	equipment   repo.EquipmentRepo
	assignments repo.AssignmentRepo
}

// NewAssignmentService constructs an AssignmentService backed by the provided repos.
func NewAssignmentService(trips repo.TripRepo, equipment repo.EquipmentRepo, assignments repo.AssignmentRepo) *AssignmentService {
	return &AssignmentService{trips: trips, equipment: equipment, assignments: assignments}
}

// List returns all assignments of the owner's trip.
// Always returns a non-nil slice so callers can safely range over it.
func (s *AssignmentService) List(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.Assignment, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return nil, fmt.Errorf("service.AssignmentService.List: %w", err)
	}
	assignments, err := s.assignments.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.AssignmentService.List: %w", err)
	}
	return assignments, nil
}

// ReplaceAll makes the trip's assignment set exactly equal to ids, as a
// diff-based replace: assignments missing from ids are removed, new ids are
// added with the equipment's *current* name as snapshot. Existing assignments
// are left untouched, preserving their original snapshots — calling
// ReplaceAll twice with the same ids is a no-op the second time.
func (s *AssignmentService) ReplaceAll(ctx context.Context, ownerID, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Assignment, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
	}
	if len(ids) > maxAssignmentsPerTrip {
		return nil, fmt.Errorf("%w: at most %d equipment items per trip", domain.ErrValidation, maxAssignmentsPerTrip)
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate equipment id %s", domain.ErrValidation, id)
		}
		seen[id] = true
	}

	byID, err := s.requireUsable(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
	}

	existing, err := s.assignments.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
	}
	assigned := make(map[uuid.UUID]bool, len(existing))
	for _, a := range existing {
		assigned[a.EquipmentID] = true
	}

	if err := s.assignments.RemoveNotIn(ctx, tripID, ids); err != nil {
		return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
	}
	for _, id := range ids {
		if assigned[id] {
			continue
		}
		if _, err := s.assignments.Add(ctx, tripID, id, byID[id].Name); err != nil {
			return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
		}
	}

	result, err := s.assignments.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.AssignmentService.ReplaceAll: %w", err)
	}
	return result, nil
}

// AddOne links a single equipment item to the trip, snapshotting its current
// name. An already-assigned pair is a conflict.
func (s *AssignmentService) AddOne(ctx context.Context, ownerID, tripID, equipmentID uuid.UUID) (domain.Assignment, error) {
	if _, err := s.trips.GetByID(ctx, ownerID, tripID); err != nil {
		return domain.Assignment{}, fmt.Errorf("service.AssignmentService.AddOne: %w", err)
	}

	byID, err := s.requireUsable(ctx, ownerID, []uuid.UUID{equipmentID})
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("service.AssignmentService.AddOne: %w", err)
	}

	result, err := s.assignments.Add(ctx, tripID, equipmentID, byID[equipmentID].Name)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("service.AssignmentService.AddOne: %w", err)
	}
	return result, nil
}

// CopyFrom assigns the usable subset of ids to the trip, silently skipping
// equipment that has been soft-deleted since the source trip used it. Used by
// trip quick-start, where a stale item should not block starting the trip.
// Names are re-snapshotted from the current equipment rows.
func (s *AssignmentService) CopyFrom(ctx context.Context, ownerID, tripID uuid.UUID, ids []uuid.UUID) error {
	items, err := s.equipment.GetManyByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("service.AssignmentService.CopyFrom: %w", err)
	}
	for _, item := range items {
		if item.OwnerID != ownerID || item.Deleted() {
			continue
		}
		if _, err := s.assignments.Add(ctx, tripID, item.ID, item.Name); err != nil {
			return fmt.Errorf("service.AssignmentService.CopyFrom: %w", err)
		}
	}
	return nil
}

// requireUsable fetches the given equipment rows and checks each is owned by
// ownerID and not soft-deleted. Returns the rows keyed by id.
func (s *AssignmentService) requireUsable(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domain.Equipment, error) {
	items, err := s.equipment.GetManyByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Equipment, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: equipment %s", domain.ErrNotFound, id)
		}
		if item.OwnerID != ownerID {
			return nil, fmt.Errorf("%w: equipment %s", domain.ErrEquipmentOwnerMismatch, id)
		}
		if item.Deleted() {
			return nil, fmt.Errorf("%w: equipment %s", domain.ErrEquipmentDeleted, id)
		}
	}
	return byID, nil
}
