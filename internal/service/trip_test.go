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

// ---- mock repos and collaborators ------------------------------------------

// mockTripRepo is a hand-written test double for repo.TripRepo.
type mockTripRepo struct {
	create      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID     func(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)
	list        func(ctx context.Context, ownerID uuid.UUID, f repo.TripFilter, p domain.ListParams) ([]domain.Trip, bool, error)
	update      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	softDelete  func(ctx context.Context, ownerID, id uuid.UUID) error
	lastByOwner func(ctx context.Context, ownerID uuid.UUID) (domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, ownerID, id)
}
func (m *mockTripRepo) List(ctx context.Context, ownerID uuid.UUID, f repo.TripFilter, p domain.ListParams) ([]domain.Trip, bool, error) {
	return m.list(ctx, ownerID, f, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.softDelete(ctx, ownerID, id)
}
func (m *mockTripRepo) LastByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Trip, error) {
	return m.lastByOwner(ctx, ownerID)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockRefresher doubles the weather refresh dependency of trip updates.
type mockRefresher struct {
	refresh func(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error)
}

func (m *mockRefresher) Refresh(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error) {
	return m.refresh(ctx, ownerID, tripID, periodStart, periodEnd, force)
}

// mockLookup doubles the last-used-equipment dependency of quick-start.
type mockLookup struct {
	lastUsed func(ctx context.Context, ownerID uuid.UUID) (domain.EquipmentSet, error)
}

func (m *mockLookup) LastUsed(ctx context.Context, ownerID uuid.UUID) (domain.EquipmentSet, error) {
	return m.lastUsed(ctx, ownerID)
}

// mockCopier records CopyFrom calls per kind.
type mockCopier struct {
	copied [][]uuid.UUID
	err    error
}

func (m *mockCopier) CopyFrom(_ context.Context, _, _ uuid.UUID, ids []uuid.UUID) error {
	m.copied = append(m.copied, ids)
	return m.err
}

// ---- helpers ---------------------------------------------------------------

// echoTripRepo returns a mockTripRepo whose create/update echo their input,
// assigning an id on create. Good enough for most lifecycle tests.
func echoTripRepo() *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
			trip.ID = uuid.New()
			return trip, nil
		},
		update: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
			return trip, nil
		},
	}
}

func newTripService(trips repo.TripRepo, refresher *mockRefresher) *service.TripService {
	copiers := map[domain.EquipmentKind]service.EquipmentCopier{}
	for _, kind := range domain.Kinds {
		copiers[kind] = &mockCopier{}
	}
	return service.NewTripService(trips, &mockLookup{}, copiers, refresher)
}

// ---- Create ----------------------------------------------------------------

func TestTripService_Create_DefaultsToDraft(t *testing.T) {
	svc := newTripService(echoTripRepo(), nil)

	got, err := svc.Create(context.Background(), uuid.New(), time.Now().UTC(), nil, "", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
}

func TestTripService_Create_StartRequired(t *testing.T) {
	svc := newTripService(echoTripRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), time.Time{}, nil, "", nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Create_EndBeforeStart(t *testing.T) {
	svc := newTripService(echoTripRepo(), nil)
	start := time.Now().UTC()
	end := start.Add(-time.Hour)

	_, err := svc.Create(context.Background(), uuid.New(), start, &end, "", nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Create_ClosedRequiresEnd(t *testing.T) {
	svc := newTripService(echoTripRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), time.Now().UTC(), nil, domain.StatusClosed, nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- QuickStart ------------------------------------------------------------

func TestTripService_QuickStart_CopiesLastEquipment(t *testing.T) {
	ownerID := uuid.New()
	rodID, lureID := uuid.New(), uuid.New()

	copiers := map[domain.EquipmentKind]service.EquipmentCopier{}
	recorded := map[domain.EquipmentKind]*mockCopier{}
	for _, kind := range domain.Kinds {
		c := &mockCopier{}
		copiers[kind] = c
		recorded[kind] = c
	}

	lookup := &mockLookup{
		lastUsed: func(_ context.Context, _ uuid.UUID) (domain.EquipmentSet, error) {
			return domain.EquipmentSet{
				Rods:        []domain.Assignment{{EquipmentID: rodID}},
				Lures:       []domain.Assignment{{EquipmentID: lureID}},
				Groundbaits: []domain.Assignment{},
			}, nil
		},
	}

	svc := service.NewTripService(echoTripRepo(), lookup, copiers, nil)

	got, err := svc.QuickStart(context.Background(), ownerID, nil, true)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.False(t, got.StartedAt.IsZero())

	require.Len(t, recorded[domain.KindRod].copied, 1)
	assert.Equal(t, []uuid.UUID{rodID}, recorded[domain.KindRod].copied[0])
	require.Len(t, recorded[domain.KindLure].copied, 1)
	assert.Equal(t, []uuid.UUID{lureID}, recorded[domain.KindLure].copied[0])
	// Empty sets must not trigger a copy call at all.
	assert.Empty(t, recorded[domain.KindGroundbait].copied)
}

func TestTripService_QuickStart_NoPreviousTrip(t *testing.T) {
	lookup := &mockLookup{
		lastUsed: func(_ context.Context, _ uuid.UUID) (domain.EquipmentSet, error) {
			return domain.EquipmentSet{}, domain.ErrNotFound
		},
	}
	svc := service.NewTripService(echoTripRepo(), lookup, nil, nil)

	got, err := svc.QuickStart(context.Background(), uuid.New(), nil, true)

	// First-ever trip: the missing history is an empty state, not an error.
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestTripService_QuickStart_WithoutCopy(t *testing.T) {
	// lookup and copiers nil: touching either would panic.
	svc := service.NewTripService(echoTripRepo(), nil, nil, nil)

	got, err := svc.QuickStart(context.Background(), uuid.New(), nil, false)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
}

// ---- Update ----------------------------------------------------------------

// existingTrip returns a repo double that holds one active trip.
func existingTrip(trip domain.Trip) *mockTripRepo {
	r := echoTripRepo()
	r.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.Trip, error) {
		return trip, nil
	}
	return r
}

func activeTrip(ownerID uuid.UUID) domain.Trip {
	return domain.Trip{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartedAt: time.Now().UTC().Add(-2 * time.Hour),
		Status:    domain.StatusActive,
	}
}

func TestTripService_Update_MergedValidation(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	svc := newTripService(existingTrip(trip), nil)

	// Patch only ended_at, to a value before the existing started_at.
	badEnd := trip.StartedAt.Add(-time.Hour)
	_, _, err := svc.Update(context.Background(), ownerID, trip.ID, domain.TripPatch{EndedAt: &badEnd})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Update_CloseWithoutEnd(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	svc := newTripService(existingTrip(trip), nil)

	closed := domain.StatusClosed
	_, _, err := svc.Update(context.Background(), ownerID, trip.ID, domain.TripPatch{Status: &closed})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Update_BackwardTransition(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	svc := newTripService(existingTrip(trip), nil)

	draft := domain.StatusDraft
	_, _, err := svc.Update(context.Background(), ownerID, trip.ID, domain.TripPatch{Status: &draft})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Update_UnknownStatus(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	svc := newTripService(existingTrip(trip), nil)

	bogus := domain.TripStatus("paused")
	_, _, err := svc.Update(context.Background(), ownerID, trip.ID, domain.TripPatch{Status: &bogus})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- auto-refresh on close -------------------------------------------------

func closePatch(trip domain.Trip) domain.TripPatch {
	end := trip.StartedAt.Add(3 * time.Hour)
	closed := domain.StatusClosed
	return domain.TripPatch{EndedAt: &end, Status: &closed}
}

func TestTripService_Update_CloseTriggersRefresh(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	trip.Location = &domain.Location{Latitude: 61.5, Longitude: 23.8}
	snapID := uuid.New()

	var refreshed bool
	refresher := &mockRefresher{
		refresh: func(_ context.Context, _, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error) {
			refreshed = true
			assert.Equal(t, trip.ID, tripID)
			require.NotNil(t, periodStart)
			assert.True(t, periodStart.Equal(trip.StartedAt))
			require.NotNil(t, periodEnd)
			assert.False(t, force)
			return domain.WeatherSnapshot{ID: snapID}, nil
		},
	}
	svc := newTripService(existingTrip(trip), refresher)

	updated, outcome, err := svc.Update(context.Background(), ownerID, trip.ID, closePatch(trip))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, updated.Status)
	assert.True(t, refreshed)
	require.NotNil(t, outcome)
	assert.Equal(t, "ok", outcome.Status)
	require.NotNil(t, outcome.SnapshotID)
	assert.Equal(t, snapID, *outcome.SnapshotID)
}

func TestTripService_Update_RefreshFailureDoesNotFailClose(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	trip.Location = &domain.Location{Latitude: 61.5, Longitude: 23.8}

	refresher := &mockRefresher{
		refresh: func(_ context.Context, _, _ uuid.UUID, _, _ *time.Time, _ bool) (domain.WeatherSnapshot, error) {
			return domain.WeatherSnapshot{}, domain.ErrRateLimited
		},
	}
	svc := newTripService(existingTrip(trip), refresher)

	updated, outcome, err := svc.Update(context.Background(), ownerID, trip.ID, closePatch(trip))

	// The close itself succeeds; the failure rides along as an outcome.
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, updated.Status)
	require.NotNil(t, outcome)
	assert.Equal(t, "failed", outcome.Status)
	assert.Equal(t, "rate_limited", outcome.Error)
	assert.Nil(t, outcome.SnapshotID)
}

func TestTripService_Update_NoRefreshWithoutLocation(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	// refresher nil: calling it would panic.
	svc := newTripService(existingTrip(trip), nil)

	_, outcome, err := svc.Update(context.Background(), ownerID, trip.ID, closePatch(trip))

	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestTripService_Update_NoRefreshForOldTrip(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	trip.StartedAt = time.Now().UTC().Add(-48 * time.Hour)
	trip.Location = &domain.Location{Latitude: 61.5, Longitude: 23.8}
	svc := newTripService(existingTrip(trip), nil)

	_, outcome, err := svc.Update(context.Background(), ownerID, trip.ID, closePatch(trip))

	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestTripService_Update_NoRefreshWhenAlreadyClosed(t *testing.T) {
	ownerID := uuid.New()
	trip := activeTrip(ownerID)
	end := trip.StartedAt.Add(time.Hour)
	trip.EndedAt = &end
	trip.Status = domain.StatusClosed
	trip.Location = &domain.Location{Latitude: 61.5, Longitude: 23.8}
	svc := newTripService(existingTrip(trip), nil)

	// Move ended_at on an already-closed trip: not a close transition.
	newEnd := trip.StartedAt.Add(2 * time.Hour)
	_, outcome, err := svc.Update(context.Background(), ownerID, trip.ID, domain.TripPatch{EndedAt: &newEnd})

	require.NoError(t, err)
	assert.Nil(t, outcome)
}

// ---- List ------------------------------------------------------------------

func TestTripService_List_CursorEmission(t *testing.T) {
	ownerID := uuid.New()
	first := activeTrip(ownerID)
	second := activeTrip(ownerID)
	second.StartedAt = first.StartedAt.Add(-time.Hour)

	trips := echoTripRepo()
	trips.list = func(_ context.Context, _ uuid.UUID, _ repo.TripFilter, _ domain.ListParams) ([]domain.Trip, bool, error) {
		return []domain.Trip{first, second}, true, nil
	}
	svc := newTripService(trips, nil)

	p, err := domain.NewListParams(nil, "", "", "", repo.TripSorts)
	require.NoError(t, err)

	got, page, err := svc.List(context.Background(), ownerID, repo.TripFilter{}, p)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, p.Limit, page.Limit)

	// The cursor points at the last returned row under the default sort.
	require.NotNil(t, page.NextCursor)
	c, err := domain.DecodeCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, second.ID, c.ID)
	assert.Equal(t, domain.SortTimeValue(second.StartedAt), c.SortValue)

	// Final page: no cursor.
	trips.list = func(_ context.Context, _ uuid.UUID, _ repo.TripFilter, _ domain.ListParams) ([]domain.Trip, bool, error) {
		return []domain.Trip{first}, false, nil
	}
	_, page, err = svc.List(context.Background(), ownerID, repo.TripFilter{}, p)
	require.NoError(t, err)
	assert.Nil(t, page.NextCursor)
}
