package service

import (
	"context"
	"fmt"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// SpeciesService exposes the seeded species reference data.
type SpeciesService struct {
	species repo.SpeciesRepo
}

// NewSpeciesService constructs a SpeciesService backed by the provided repo.
func NewSpeciesService(species repo.SpeciesRepo) *SpeciesService {
	return &SpeciesService{species: species}
}

// List returns all species ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
func (s *SpeciesService) List(ctx context.Context) ([]domain.Species, error) {
	species, err := s.species.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.SpeciesService.List: %w", err)
	}
	if species == nil {
		return []domain.Species{}, nil
	}
	return species, nil
}
