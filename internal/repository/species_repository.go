package repository

import (
	"context"
	"database/sql"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

type SpeciesRepo struct{ DB *sql.DB }

func NewSpeciesRepo(db *sql.DB) *SpeciesRepo { return &SpeciesRepo{DB: db} }

const speciesColumns = "id, common_name, scientific_name, family, genus, native_region, description, max_height, max_diameter, growth_rate, lifespan_years, leaf_type, sunlight, water_needs, carbon_sequestration, is_endangered, conservation_status, created_at, updated_at"

func scanSpecies(row rowScanner) (*model.Species, error) {
	var s model.Species
	err := row.Scan(&s.ID, &s.CommonName, &s.ScientificName, &s.Family, &s.Genus,
		&s.NativeRegion, &s.Description, &s.MaxHeight, &s.MaxDiameter, &s.GrowthRate,
		&s.LifespanYears, &s.LeafType, &s.Sunlight, &s.WaterNeeds,
		&s.CarbonSequestration, &s.IsEndangered, &s.ConservationStatus,
		&s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "species not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a species and fills in its ID.  Scientific name is unique.
func (r *SpeciesRepo) Create(ctx context.Context, s *model.Species) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO species (common_name, scientific_name, family, genus, native_region, description,
		   max_height, max_diameter, growth_rate, lifespan_years, leaf_type, sunlight, water_needs,
		   carbon_sequestration, is_endangered, conservation_status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.CommonName, s.ScientificName, s.Family, s.Genus, s.NativeRegion, s.Description,
		s.MaxHeight, s.MaxDiameter, s.GrowthRate, s.LifespanYears, s.LeafType, s.Sunlight,
		s.WaterNeeds, s.CarbonSequestration, s.IsEndangered, s.ConservationStatus)
	if err != nil {
		if isDuplicate(err) {
			return apperr.Wrap(err, apperr.Conflict, "species with this scientific name already exists")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// FindByID fetches one species.
func (r *SpeciesRepo) FindByID(ctx context.Context, id uint64) (*model.Species, error) {
	return scanSpecies(r.DB.QueryRowContext(ctx,
		"SELECT "+speciesColumns+" FROM species WHERE id=? LIMIT 1", id))
}

// List returns a page of species ordered by common name, plus the total.
func (r *SpeciesRepo) List(ctx context.Context, page, limit int) ([]model.Species, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM species").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+speciesColumns+" FROM species ORDER BY common_name ASC LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Species
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// Search matches q against common name, scientific name and family.
func (r *SpeciesRepo) Search(ctx context.Context, q string, limit int) ([]model.Species, error) {
	like := "%" + q + "%"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+speciesColumns+` FROM species
		 WHERE common_name LIKE ? OR scientific_name LIKE ? OR family LIKE ?
		 ORDER BY common_name ASC LIMIT ?`,
		like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Species
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a species.
func (r *SpeciesRepo) Update(ctx context.Context, s *model.Species) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE species SET common_name=?, scientific_name=?, family=?, genus=?, native_region=?,
		   description=?, max_height=?, max_diameter=?, growth_rate=?, lifespan_years=?, leaf_type=?,
		   sunlight=?, water_needs=?, carbon_sequestration=?, is_endangered=?, conservation_status=?
		 WHERE id=?`,
		s.CommonName, s.ScientificName, s.Family, s.Genus, s.NativeRegion, s.Description,
		s.MaxHeight, s.MaxDiameter, s.GrowthRate, s.LifespanYears, s.LeafType, s.Sunlight,
		s.WaterNeeds, s.CarbonSequestration, s.IsEndangered, s.ConservationStatus, s.ID)
	if err != nil && isDuplicate(err) {
		return apperr.Wrap(err, apperr.Conflict, "species with this scientific name already exists")
	}
	return err
}

// Delete removes a species.  A species still referenced by trees cannot be
// deleted and surfaces as Conflict.
func (r *SpeciesRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trees WHERE species_id=?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return apperr.New(apperr.Conflict, "species is referenced by existing trees")
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM species WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "species not found")
	}
	return nil
}
