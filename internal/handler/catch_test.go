package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

func TestCreateCatch_Created(t *testing.T) {
	tripID := uuid.New()
	speciesID := uuid.New()
	lureID := uuid.New()
	caughtAt := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

	d := deps{catches: &mockCatchServicer{
		create: func(_ context.Context, _ uuid.UUID, c domain.Catch) (domain.Catch, error) {
			assert.Equal(t, tripID, c.TripID)
			assert.Equal(t, speciesID, c.SpeciesID)
			assert.True(t, c.CaughtAt.Equal(caughtAt))
			require.NotNil(t, c.LureID)
			assert.Equal(t, lureID, *c.LureID)
			require.NotNil(t, c.WeightGrams)
			assert.Equal(t, 1200, *c.WeightGrams)
			assert.Nil(t, c.GroundbaitID)
			c.ID = uuid.New()
			snapshot := "Wobbler"
			c.LureNameSnapshot = &snapshot
			return c, nil
		},
	}}

	body := `{"species_id":"` + speciesID.String() + `","caught_at":"2026-06-01T09:30:00Z","lure_id":"` + lureID.String() + `","weight_g":1200}`
	rec := serve(t, d, uuid.New(), http.MethodPost, "/trips/"+tripID.String()+"/catches/", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Catch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.LureNameSnapshot)
	assert.Equal(t, "Wobbler", *got.LureNameSnapshot)
}

func TestCreateCatch_UnknownFieldRejected(t *testing.T) {
	// Snapshot fields are server-owned. The strict decoder keeps them (and
	// any other unknown field) out of the request body.
	d := deps{catches: &mockCatchServicer{}}

	body := `{"species_id":"` + uuid.NewString() + `","caught_at":"2026-06-01T09:30:00Z","lure_name_snapshot":"Forged"}`
	rec := serve(t, d, uuid.New(), http.MethodPost, "/trips/"+uuid.NewString()+"/catches/", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed request body")
}

func TestUpdateCatch_AbsentFieldsStayUntouched(t *testing.T) {
	d := deps{catches: &mockCatchServicer{
		update: func(_ context.Context, _, _, _ uuid.UUID, patch domain.CatchPatch) (domain.Catch, error) {
			require.NotNil(t, patch.WeightGrams)
			require.NotNil(t, *patch.WeightGrams)
			assert.Equal(t, 900, **patch.WeightGrams)
			assert.Nil(t, patch.LureID)
			assert.Nil(t, patch.GroundbaitID)
			assert.Nil(t, patch.SpeciesID)
			assert.Nil(t, patch.PhotoPath)
			return domain.Catch{}, nil
		},
	}}

	rec := serve(t, d, uuid.New(), http.MethodPatch,
		"/trips/"+uuid.NewString()+"/catches/"+uuid.NewString(), `{"weight_g":900}`)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCatch_NullClearsReference(t *testing.T) {
	d := deps{catches: &mockCatchServicer{
		update: func(_ context.Context, _, _, _ uuid.UUID, patch domain.CatchPatch) (domain.Catch, error) {
			require.NotNil(t, patch.LureID)
			assert.Nil(t, *patch.LureID)
			assert.Nil(t, patch.WeightGrams)
			return domain.Catch{}, nil
		},
	}}

	rec := serve(t, d, uuid.New(), http.MethodPatch,
		"/trips/"+uuid.NewString()+"/catches/"+uuid.NewString(), `{"lure_id":null}`)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCatch_BadFieldValue(t *testing.T) {
	d := deps{catches: &mockCatchServicer{}}

	rec := serve(t, d, uuid.New(), http.MethodPatch,
		"/trips/"+uuid.NewString()+"/catches/"+uuid.NewString(), `{"weight_g":"heavy"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListCatches_SpeciesFilter(t *testing.T) {
	speciesID := uuid.New()
	d := deps{catches: &mockCatchServicer{
		list: func(_ context.Context, _, _ uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, domain.Page, error) {
			require.NotNil(t, f.SpeciesID)
			assert.Equal(t, speciesID, *f.SpeciesID)
			return nil, domain.NewPage(p.Limit, "", false), nil
		},
	}}

	rec := serve(t, d, uuid.New(), http.MethodGet,
		"/trips/"+uuid.NewString()+"/catches/?species_id="+speciesID.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListCatches_BadSpeciesID(t *testing.T) {
	d := deps{catches: &mockCatchServicer{}}

	rec := serve(t, d, uuid.New(), http.MethodGet,
		"/trips/"+uuid.NewString()+"/catches/?species_id=pike", "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "species_id must be a valid uuid")
}

func TestDeleteCatch_NoContent(t *testing.T) {
	d := deps{catches: &mockCatchServicer{
		delete: func(_ context.Context, _, _, _ uuid.UUID) error { return nil },
	}}

	rec := serve(t, d, uuid.New(), http.MethodDelete,
		"/trips/"+uuid.NewString()+"/catches/"+uuid.NewString(), "")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateCatch_DeletedLure(t *testing.T) {
	d := deps{catches: &mockCatchServicer{
		create: func(_ context.Context, _ uuid.UUID, _ domain.Catch) (domain.Catch, error) {
			return domain.Catch{}, domain.ErrEquipmentDeleted
		},
	}}

	body := `{"species_id":"` + uuid.NewString() + `","caught_at":"2026-06-01T09:30:00Z"}`
	rec := serve(t, d, uuid.New(), http.MethodPost, "/trips/"+uuid.NewString()+"/catches/", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"equipment_soft_deleted","message":"equipment has been deleted"}}`, rec.Body.String())
}
