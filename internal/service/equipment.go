// Package service contains the business logic for the fishing log API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// maxEquipmentNameLen bounds equipment names on create and rename.
const maxEquipmentNameLen = 120

// EquipmentService implements business logic for one equipment kind.
// The three kinds (rods, lures, groundbaits) behave identically; main wires
// one instance per kind, each backed by its own repo.
type EquipmentService struct {
	equipment repo.EquipmentRepo
}

// NewEquipmentService constructs an EquipmentService backed by the provided repo.
func NewEquipmentService(equipment repo.EquipmentRepo) *EquipmentService {
	return &EquipmentService{equipment: equipment}
}

// Create validates and persists a new equipment item for the owner.
func (s *EquipmentService) Create(ctx context.Context, ownerID uuid.UUID, name string) (domain.Equipment, error) {
	name, err := validateEquipmentName(name)
	if err != nil {
		return domain.Equipment{}, err
	}
	result, err := s.equipment.Create(ctx, ownerID, name)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("service.EquipmentService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single item owned by ownerID. Another owner's item is
// reported as not found — ownership is not revealed through the registry.
func (s *EquipmentService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Equipment, error) {
	item, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("service.EquipmentService.GetByID: %w", err)
	}
	if item.OwnerID != ownerID {
		return domain.Equipment{}, fmt.Errorf("service.EquipmentService.GetByID: %w", domain.ErrNotFound)
	}
	return item, nil
}

// List returns one page of the owner's items and the pagination envelope.
func (s *EquipmentService) List(ctx context.Context, ownerID uuid.UUID, f domain.EquipmentFilter, p domain.ListParams) ([]domain.Equipment, domain.Page, error) {
	items, hasMore, err := s.equipment.List(ctx, ownerID, f, p)
	if err != nil {
		return nil, domain.Page{}, fmt.Errorf("service.EquipmentService.List: %w", err)
	}

	var next string
	if hasMore {
		last := items[len(items)-1]
		next = domain.EncodeCursor(equipmentSortValue(last, p.Sort), last.ID)
	}
	return items, domain.NewPage(p.Limit, next, hasMore), nil
}

// Update renames an item. A patch with no fields set is a no-op that returns
// the current state without issuing a write.
func (s *EquipmentService) Update(ctx context.Context, ownerID, id uuid.UUID, name *string) (domain.Equipment, error) {
	if name == nil {
		return s.GetByID(ctx, ownerID, id)
	}

	validated, err := validateEquipmentName(*name)
	if err != nil {
		return domain.Equipment{}, err
	}
	result, err := s.equipment.UpdateName(ctx, ownerID, id, validated)
	if err != nil {
		return domain.Equipment{}, fmt.Errorf("service.EquipmentService.Update: %w", err)
	}
	return result, nil
}

// SoftDelete marks an item deleted. Deleting an already-deleted or unknown
// item returns domain.ErrNotFound.
func (s *EquipmentService) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.equipment.SoftDelete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("service.EquipmentService.SoftDelete: %w", err)
	}
	return nil
}

// validateEquipmentName trims and bounds an equipment name.
func validateEquipmentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(name) > maxEquipmentNameLen {
		return "", fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxEquipmentNameLen)
	}
	return name, nil
}

// equipmentSortValue extracts the cursor sort value of an item for the given
// sort column.
func equipmentSortValue(e domain.Equipment, sort string) string {
	if sort == "name" {
		return e.Name
	}
	return domain.SortTimeValue(e.CreatedAt)
}
