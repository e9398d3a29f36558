package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// ExportService assembles the flat full-data export of an owner's trips and
// catches. Snapshot names in the export are the historical values recorded at
// catch time.
type ExportService struct {
	export repo.ExportRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(export repo.ExportRepo) *ExportService {
	return &ExportService{export: export}
}

// Export returns one row per catch across the owner's trips.
// Trips with no catches contribute one row with empty catch fields.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExportService) Export(ctx context.Context, ownerID uuid.UUID) ([]domain.ExportRow, error) {
	rows, err := s.export.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	if rows == nil {
		return []domain.ExportRow{}, nil
	}
	return rows, nil
}
