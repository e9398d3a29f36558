package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// LastUsedService derives the "copy from last trip" equipment set.
type LastUsedService struct {
	trips       repo.TripRepo
	rods        repo.AssignmentRepo
	lures       repo.AssignmentRepo
	groundbaits repo.AssignmentRepo
}

// NewLastUsedService constructs a LastUsedService backed by the provided repos.
func NewLastUsedService(trips repo.TripRepo, rods, lures, groundbaits repo.AssignmentRepo) *LastUsedService {
	return &LastUsedService{trips: trips, rods: rods, lures: lures, groundbaits: groundbaits}
}

// LastUsed returns the three assignment sets of the owner's most recent
// non-deleted trip. The three lists are independent, so they are fetched
// concurrently; any one failure fails the whole call — a partial equipment
// set would be a misleading thing to copy.
//
// Returns domain.ErrNotFound if the owner has no trips at all. That is a
// legitimate empty state for new users, not a fault.
func (s *LastUsedService) LastUsed(ctx context.Context, ownerID uuid.UUID) (domain.EquipmentSet, error) {
	trip, err := s.trips.LastByOwner(ctx, ownerID)
	if err != nil {
		return domain.EquipmentSet{}, fmt.Errorf("service.LastUsedService.LastUsed: %w", err)
	}

	var set domain.EquipmentSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		set.Rods, err = s.rods.ListByTrip(gctx, trip.ID)
		return err
	})
	g.Go(func() error {
		var err error
		set.Lures, err = s.lures.ListByTrip(gctx, trip.ID)
		return err
	})
	g.Go(func() error {
		var err error
		set.Groundbaits, err = s.groundbaits.ListByTrip(gctx, trip.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EquipmentSet{}, fmt.Errorf("service.LastUsedService.LastUsed: %w", err)
	}

	return set, nil
}
