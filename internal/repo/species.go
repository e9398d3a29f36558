package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// SpeciesRepo defines read access to the seeded species reference table.
type SpeciesRepo interface {
	// List returns all species ordered by name.
	List(ctx context.Context) ([]domain.Species, error)
}

// pgSpeciesRepo is the Postgres implementation of SpeciesRepo.
type pgSpeciesRepo struct {
	db db
}

// NewSpeciesRepo constructs a SpeciesRepo backed by the provided db connection.
func NewSpeciesRepo(db db) SpeciesRepo {
	return &pgSpeciesRepo{db: db}
}

func (r *pgSpeciesRepo) List(ctx context.Context) ([]domain.Species, error) {
	const q = `SELECT id, name FROM species ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.SpeciesRepo.List: %w", err)
	}
	defer rows.Close()

	species := []domain.Species{}
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SpeciesRepo.List: scan: %w", err)
		}
		species = append(species, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SpeciesRepo.List: rows: %w", err)
	}
	return species, nil
}

// scanSpecies maps a single database row into a domain.Species.
func scanSpecies(s scanner) (domain.Species, error) {
	var (
		sp domain.Species
		id pgtype.UUID
	)
	err := s.Scan(&id, &sp.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Species{}, domain.ErrNotFound
		}
		return domain.Species{}, err
	}
	sp.ID = uuid.UUID(id.Bytes)
	return sp, nil
}
