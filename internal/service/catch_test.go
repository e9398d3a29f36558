package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
	"github.com/mhalme/fishlog/backend/internal/service"
)

// ---- mock repo -------------------------------------------------------------

// mockCatchRepo is a hand-written test double for repo.CatchRepo.
type mockCatchRepo struct {
	create     func(ctx context.Context, c domain.Catch) (domain.Catch, error)
	getByID    func(ctx context.Context, tripID, id uuid.UUID) (domain.Catch, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, bool, error)
	update     func(ctx context.Context, c domain.Catch) (domain.Catch, error)
	delete     func(ctx context.Context, tripID, id uuid.UUID) error
}

func (m *mockCatchRepo) Create(ctx context.Context, c domain.Catch) (domain.Catch, error) {
	return m.create(ctx, c)
}
func (m *mockCatchRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Catch, error) {
	return m.getByID(ctx, tripID, id)
}
func (m *mockCatchRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, bool, error) {
	return m.listByTrip(ctx, tripID, f, p)
}
func (m *mockCatchRepo) Update(ctx context.Context, c domain.Catch) (domain.Catch, error) {
	return m.update(ctx, c)
}
func (m *mockCatchRepo) Delete(ctx context.Context, tripID, id uuid.UUID) error {
	return m.delete(ctx, tripID, id)
}

// compile-time check: mockCatchRepo must satisfy repo.CatchRepo.
var _ repo.CatchRepo = (*mockCatchRepo)(nil)

// ---- fixtures --------------------------------------------------------------

// echoCatchRepo echoes creates and updates, assigning an id on create.
func echoCatchRepo() *mockCatchRepo {
	return &mockCatchRepo{
		create: func(_ context.Context, c domain.Catch) (domain.Catch, error) {
			c.ID = uuid.New()
			return c, nil
		},
		update: func(_ context.Context, c domain.Catch) (domain.Catch, error) {
			return c, nil
		},
	}
}

// singleRepo returns an equipment repo double that resolves exactly one item.
func singleRepo(item domain.Equipment) *mockEquipmentRepo {
	return &mockEquipmentRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Equipment, error) {
			if id != item.ID {
				return domain.Equipment{}, domain.ErrNotFound
			}
			return item, nil
		},
	}
}

// catchTripRepo returns a trip repo double holding the given trip for any id.
func catchTripRepo(trip domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, ownerID, _ uuid.UUID) (domain.Trip, error) {
			if ownerID != trip.OwnerID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return trip, nil
		},
	}
}

func openTrip(ownerID uuid.UUID) domain.Trip {
	return domain.Trip{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartedAt: time.Now().UTC().Add(-6 * time.Hour),
		Status:    domain.StatusActive,
	}
}

func validCatch(trip domain.Trip) domain.Catch {
	return domain.Catch{
		TripID:    trip.ID,
		SpeciesID: uuid.New(),
		CaughtAt:  trip.StartedAt.Add(time.Hour),
	}
}

// ---- Create ----------------------------------------------------------------

func TestCatchService_Create_SnapshotsLureName(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	lure := domain.Equipment{ID: uuid.New(), OwnerID: ownerID, Name: "Wobbler-A"}

	svc := service.NewCatchService(catchTripRepo(trip), echoCatchRepo(), singleRepo(lure), &mockEquipmentRepo{})

	input := validCatch(trip)
	input.LureID = &lure.ID

	got, err := svc.Create(context.Background(), ownerID, input)

	require.NoError(t, err)
	require.NotNil(t, got.LureNameSnapshot)
	assert.Equal(t, "Wobbler-A", *got.LureNameSnapshot)
	assert.Nil(t, got.GroundbaitNameSnapshot)
}

func TestCatchService_Create_NoReferencesNoSnapshots(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)

	// Equipment repos left empty: resolving a reference would panic.
	svc := service.NewCatchService(catchTripRepo(trip), echoCatchRepo(), &mockEquipmentRepo{}, &mockEquipmentRepo{})

	got, err := svc.Create(context.Background(), ownerID, validCatch(trip))

	require.NoError(t, err)
	assert.Nil(t, got.LureNameSnapshot)
	assert.Nil(t, got.GroundbaitNameSnapshot)
}

func TestCatchService_Create_DeletedLure(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	deletedAt := time.Now().UTC()
	lure := domain.Equipment{ID: uuid.New(), OwnerID: ownerID, Name: "Retired", DeletedAt: &deletedAt}

	svc := service.NewCatchService(catchTripRepo(trip), echoCatchRepo(), singleRepo(lure), &mockEquipmentRepo{})

	input := validCatch(trip)
	input.LureID = &lure.ID

	_, err := svc.Create(context.Background(), ownerID, input)

	assert.ErrorIs(t, err, domain.ErrEquipmentDeleted)
}

func TestCatchService_Create_ForeignGroundbait(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	foreign := domain.Equipment{ID: uuid.New(), OwnerID: uuid.New(), Name: "Not yours"}

	svc := service.NewCatchService(catchTripRepo(trip), echoCatchRepo(), &mockEquipmentRepo{}, singleRepo(foreign))

	input := validCatch(trip)
	input.GroundbaitID = &foreign.ID

	_, err := svc.Create(context.Background(), ownerID, input)

	assert.ErrorIs(t, err, domain.ErrEquipmentOwnerMismatch)
}

func TestCatchService_Create_Validation(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	end := trip.StartedAt.Add(2 * time.Hour)
	closedTrip := trip
	closedTrip.EndedAt = &end

	negative := -1
	futureTime := time.Now().UTC().Add(time.Hour)

	tests := []struct {
		name   string
		trip   domain.Trip
		mutate func(*domain.Catch)
	}{
		{"missing caught_at", trip, func(c *domain.Catch) { c.CaughtAt = time.Time{} }},
		{"before trip start", trip, func(c *domain.Catch) { c.CaughtAt = trip.StartedAt.Add(-time.Minute) }},
		{"after trip end", closedTrip, func(c *domain.Catch) { c.CaughtAt = end.Add(time.Minute) }},
		{"in the future", trip, func(c *domain.Catch) { c.CaughtAt = futureTime }},
		{"missing species", trip, func(c *domain.Catch) { c.SpeciesID = uuid.Nil }},
		{"negative weight", trip, func(c *domain.Catch) { c.WeightGrams = &negative }},
		{"negative length", trip, func(c *domain.Catch) { c.LengthMillimeters = &negative }},
		{"foreign photo path", trip, func(c *domain.Catch) {
			p := uuid.New().String() + "/x.jpg"
			c.PhotoPath = &p
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := service.NewCatchService(catchTripRepo(tc.trip), echoCatchRepo(), &mockEquipmentRepo{}, &mockEquipmentRepo{})
			input := validCatch(tc.trip)
			tc.mutate(&input)

			_, err := svc.Create(context.Background(), ownerID, input)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

// ---- Update ----------------------------------------------------------------

// storedCatch wires a service around one existing catch and returns both.
func storedCatch(trip domain.Trip, existing domain.Catch, lures, groundbaits repo.EquipmentRepo) *service.CatchService {
	catches := echoCatchRepo()
	catches.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.Catch, error) {
		return existing, nil
	}
	return service.NewCatchService(catchTripRepo(trip), catches, lures, groundbaits)
}

func TestCatchService_Update_UntouchedReferenceKeepsSnapshot(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	lureID := uuid.New()
	oldName := "Wobbler-A"

	existing := validCatch(trip)
	existing.ID = uuid.New()
	existing.LureID = &lureID
	existing.LureNameSnapshot = &oldName

	// The lure repo would resolve the lure to its *renamed* form, but an
	// untouched reference must never be re-resolved.
	renamed := domain.Equipment{ID: lureID, OwnerID: ownerID, Name: "Wobbler-B"}
	svc := storedCatch(trip, existing, singleRepo(renamed), &mockEquipmentRepo{})

	weight := 1200
	got, err := svc.Update(context.Background(), ownerID, trip.ID, existing.ID, domain.CatchPatch{WeightGrams: ptrTo(&weight)})

	require.NoError(t, err)
	require.NotNil(t, got.LureNameSnapshot)
	assert.Equal(t, "Wobbler-A", *got.LureNameSnapshot)
	require.NotNil(t, got.WeightGrams)
	assert.Equal(t, 1200, *got.WeightGrams)
}

func TestCatchService_Update_ChangedReferenceResnapshots(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	oldName := "Wobbler-A"
	oldID := uuid.New()

	existing := validCatch(trip)
	existing.ID = uuid.New()
	existing.LureID = &oldID
	existing.LureNameSnapshot = &oldName

	newLure := domain.Equipment{ID: uuid.New(), OwnerID: ownerID, Name: "Spinner-X"}
	svc := storedCatch(trip, existing, singleRepo(newLure), &mockEquipmentRepo{})

	newRef := &newLure.ID
	got, err := svc.Update(context.Background(), ownerID, trip.ID, existing.ID, domain.CatchPatch{LureID: &newRef})

	require.NoError(t, err)
	require.NotNil(t, got.LureNameSnapshot)
	assert.Equal(t, "Spinner-X", *got.LureNameSnapshot)
}

func TestCatchService_Update_ClearedReferenceClearsSnapshot(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)
	oldName := "Wobbler-A"
	oldID := uuid.New()

	existing := validCatch(trip)
	existing.ID = uuid.New()
	existing.LureID = &oldID
	existing.LureNameSnapshot = &oldName

	svc := storedCatch(trip, existing, &mockEquipmentRepo{}, &mockEquipmentRepo{})

	var cleared *uuid.UUID // explicit null
	got, err := svc.Update(context.Background(), ownerID, trip.ID, existing.ID, domain.CatchPatch{LureID: &cleared})

	require.NoError(t, err)
	assert.Nil(t, got.LureID)
	assert.Nil(t, got.LureNameSnapshot)
}

func TestCatchService_Update_MergedValidation(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)

	existing := validCatch(trip)
	existing.ID = uuid.New()

	svc := storedCatch(trip, existing, &mockEquipmentRepo{}, &mockEquipmentRepo{})

	// Patch only caught_at, to before the trip start.
	bad := trip.StartedAt.Add(-time.Hour)
	_, err := svc.Update(context.Background(), ownerID, trip.ID, existing.ID, domain.CatchPatch{CaughtAt: &bad})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Delete ----------------------------------------------------------------

func TestCatchService_Delete_TripScoped(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)

	catches := echoCatchRepo()
	catches.delete = func(_ context.Context, _, _ uuid.UUID) error { return nil }
	svc := service.NewCatchService(catchTripRepo(trip), catches, &mockEquipmentRepo{}, &mockEquipmentRepo{})

	// Deleting through a foreign owner fails at the trip lookup.
	err := svc.Delete(context.Background(), uuid.New(), trip.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(context.Background(), ownerID, trip.ID, uuid.New())
	assert.NoError(t, err)
}

// ptrTo returns a pointer to p, for building double-pointer patch fields.
func ptrTo[T any](p T) *T { return &p }

// ---- List ------------------------------------------------------------------

func TestCatchService_List_CursorEmission(t *testing.T) {
	ownerID := uuid.New()
	trip := openTrip(ownerID)

	first := domain.Catch{ID: uuid.New(), TripID: trip.ID, CaughtAt: trip.StartedAt.Add(time.Hour)}
	second := domain.Catch{ID: uuid.New(), TripID: trip.ID, CaughtAt: trip.StartedAt.Add(2 * time.Hour)}

	catches := echoCatchRepo()
	catches.listByTrip = func(_ context.Context, _ uuid.UUID, _ domain.CatchFilter, _ domain.ListParams) ([]domain.Catch, bool, error) {
		return []domain.Catch{first, second}, true, nil
	}
	svc := service.NewCatchService(catchTripRepo(trip), catches, &mockEquipmentRepo{}, &mockEquipmentRepo{})

	p, err := domain.NewListParams(nil, "", "", "", repo.CatchSorts)
	require.NoError(t, err)

	got, page, err := svc.List(context.Background(), ownerID, trip.ID, domain.CatchFilter{}, p)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, p.Limit, page.Limit)

	require.NotNil(t, page.NextCursor)
	c, err := domain.DecodeCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, second.ID, c.ID)
	assert.Equal(t, domain.SortTimeValue(second.CaughtAt), c.SortValue)

	catches.listByTrip = func(_ context.Context, _ uuid.UUID, _ domain.CatchFilter, _ domain.ListParams) ([]domain.Catch, bool, error) {
		return []domain.Catch{first}, false, nil
	}
	_, page, err = svc.List(context.Background(), ownerID, trip.ID, domain.CatchFilter{}, p)
	require.NoError(t, err)
	assert.Nil(t, page.NextCursor)
}
