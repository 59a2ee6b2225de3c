package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

type TreeRepo struct{ DB *sql.DB }

func NewTreeRepo(db *sql.DB) *TreeRepo { return &TreeRepo{DB: db} }

const treeColumns = "id, tree_code, species_id, latitude, longitude, address, city, state, country, planted_date, height, diameter, canopy_spread, status, health_score, tags, notes, created_by, last_inspection, next_inspection, created_at, updated_at"

func scanTree(row rowScanner) (*model.Tree, error) {
	var t model.Tree
	var tags string
	err := row.Scan(&t.ID, &t.TreeCode, &t.SpeciesID, &t.Latitude, &t.Longitude,
		&t.Address, &t.City, &t.State, &t.Country, &t.PlantedDate, &t.Height,
		&t.Diameter, &t.CanopySpread, &t.Status, &t.HealthScore, &tags, &t.Notes,
		&t.CreatedBy, &t.LastInspection, &t.NextInspection, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "tree not found")
	}
	if err != nil {
		return nil, err
	}
	t.Tags = splitTags(tags)
	return &t, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func joinTags(tags []string) string { return strings.Join(tags, ",") }

// Create inserts a tree, then derives its public code from the row id
// (TREE-000042) in a follow-up update.
func (r *TreeRepo) Create(ctx context.Context, t *model.Tree) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO trees (tree_code, species_id, latitude, longitude, address, city, state, country,
		   planted_date, height, diameter, canopy_spread, status, health_score, tags, notes, created_by)
		 VALUES ('',?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.SpeciesID, t.Latitude, t.Longitude, t.Address, t.City, t.State, t.Country,
		t.PlantedDate, t.Height, t.Diameter, t.CanopySpread, t.Status, t.HealthScore,
		joinTags(t.Tags), t.Notes, t.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.TreeCode = fmt.Sprintf("TREE-%06d", t.ID)
	_, err = r.DB.ExecContext(ctx, "UPDATE trees SET tree_code=? WHERE id=?", t.TreeCode, t.ID)
	return err
}

// FindByID fetches one tree.
func (r *TreeRepo) FindByID(ctx context.Context, id uint64) (*model.Tree, error) {
	return scanTree(r.DB.QueryRowContext(ctx,
		"SELECT "+treeColumns+" FROM trees WHERE id=? LIMIT 1", id))
}

// List returns a page of trees with optional status/species filters.
func (r *TreeRepo) List(ctx context.Context, status string, speciesID uint64, page, limit int) ([]model.Tree, int, error) {
	where := "1=1"
	args := []any{}
	if status != "" {
		where += " AND status=?"
		args = append(args, status)
	}
	if speciesID != 0 {
		where += " AND species_id=?"
		args = append(args, speciesID)
	}
	return r.pageQuery(ctx, where, "created_at DESC", args, page, limit)
}

// Search matches q against tree code, address and tags, with optional
// status filter and height range.
func (r *TreeRepo) Search(ctx context.Context, q, status string, minHeight, maxHeight float64, page, limit int) ([]model.Tree, int, error) {
	where := "1=1"
	args := []any{}
	if q != "" {
		like := "%" + q + "%"
		where += " AND (tree_code LIKE ? OR address LIKE ? OR tags LIKE ?)"
		args = append(args, like, like, like)
	}
	if status != "" {
		where += " AND status=?"
		args = append(args, status)
	}
	if minHeight > 0 {
		where += " AND height >= ?"
		args = append(args, minHeight)
	}
	if maxHeight > 0 {
		where += " AND height <= ?"
		args = append(args, maxHeight)
	}
	return r.pageQuery(ctx, where, "created_at DESC", args, page, limit)
}

func (r *TreeRepo) pageQuery(ctx context.Context, where, order string, args []any, page, limit int) ([]model.Tree, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trees WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+treeColumns+" FROM trees WHERE "+where+" ORDER BY "+order+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Tree
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// Nearby returns up to 50 trees within radius meters of the given point,
// closest first.  Distance is computed with the Haversine formula directly
// in SQL; with inventory-scale row counts this stays cheap without a
// spatial index.
func (r *TreeRepo) Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]model.Tree, error) {
	const haversine = `(6371000 * 2 * ASIN(SQRT(
		POW(SIN(RADIANS(latitude - ?) / 2), 2) +
		COS(RADIANS(?)) * COS(RADIANS(latitude)) *
		POW(SIN(RADIANS(longitude - ?) / 2), 2))))`
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+treeColumns+", "+haversine+" AS distance FROM trees HAVING distance <= ? ORDER BY distance ASC LIMIT 50",
		lat, lat, lng, radiusMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tree
	for rows.Next() {
		var t model.Tree
		var tags string
		var distance float64
		err := rows.Scan(&t.ID, &t.TreeCode, &t.SpeciesID, &t.Latitude, &t.Longitude,
			&t.Address, &t.City, &t.State, &t.Country, &t.PlantedDate, &t.Height,
			&t.Diameter, &t.CanopySpread, &t.Status, &t.HealthScore, &tags, &t.Notes,
			&t.CreatedBy, &t.LastInspection, &t.NextInspection, &t.CreatedAt, &t.UpdatedAt,
			&distance)
		if err != nil {
			return nil, err
		}
		t.Tags = splitTags(tags)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a tree.
func (r *TreeRepo) Update(ctx context.Context, t *model.Tree) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE trees SET species_id=?, latitude=?, longitude=?, address=?, city=?, state=?, country=?,
		   planted_date=?, height=?, diameter=?, canopy_spread=?, status=?, health_score=?, tags=?, notes=?
		 WHERE id=?`,
		t.SpeciesID, t.Latitude, t.Longitude, t.Address, t.City, t.State, t.Country,
		t.PlantedDate, t.Height, t.Diameter, t.CanopySpread, t.Status, t.HealthScore,
		joinTags(t.Tags), t.Notes, t.ID)
	return err
}

// UpdateTags replaces the tag list.
func (r *TreeRepo) UpdateTags(ctx context.Context, id uint64, tags []string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE trees SET tags=? WHERE id=?", joinTags(tags), id)
	return err
}

// ApplyInspection writes an inspection result back onto the tree row:
// current score/status, last inspection date and the optional follow-up.
func (r *TreeRepo) ApplyInspection(ctx context.Context, id uint64, score int, status string, inspected time.Time, next *time.Time) error {
	if next != nil {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE trees SET health_score=?, status=?, last_inspection=?, next_inspection=? WHERE id=?",
			score, status, inspected, next, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE trees SET health_score=?, status=?, last_inspection=? WHERE id=?",
		score, status, inspected, id)
	return err
}

// Delete removes a tree and its image records.  Health records keep their
// tree_id back-reference for the audit trail.
func (r *TreeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM trees WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "tree not found")
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM tree_images WHERE tree_id=?", id)
	return err
}

// AddImage attaches an image metadata record.
func (r *TreeRepo) AddImage(ctx context.Context, img *model.TreeImage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tree_images (image_id, tree_id, url, caption, uploaded_by) VALUES (?,?,?,?,?)",
		img.ImageID, img.TreeID, img.URL, img.Caption, img.UploadedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	img.ID = uint64(id)
	return nil
}

// ListImages returns a tree's image records, newest first.
func (r *TreeRepo) ListImages(ctx context.Context, treeID uint64) ([]model.TreeImage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, image_id, tree_id, url, caption, uploaded_by, uploaded_at FROM tree_images WHERE tree_id=? ORDER BY uploaded_at DESC",
		treeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TreeImage
	for rows.Next() {
		var img model.TreeImage
		if err := rows.Scan(&img.ID, &img.ImageID, &img.TreeID, &img.URL, &img.Caption,
			&img.UploadedBy, &img.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteImage detaches one image by its public uuid.
func (r *TreeRepo) DeleteImage(ctx context.Context, treeID uint64, imageID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tree_images WHERE tree_id=? AND image_id=?", treeID, imageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "image not found")
	}
	return nil
}

// TreeStatistics summarizes the inventory for the statistics endpoint.
type TreeStatistics struct {
	TotalTrees       int     `json:"total_trees"`
	HealthyTrees     int     `json:"healthy_trees"`
	DiseasedTrees    int     `json:"diseased_trees"`
	DeadTrees        int     `json:"dead_trees"`
	SpeciesCount     int     `json:"species_count"`
	HealthPercentage float64 `json:"health_percentage"`
}

// Statistics computes the inventory summary in a single grouped pass.
func (r *TreeRepo) Statistics(ctx context.Context) (*TreeStatistics, error) {
	var s TreeStatistics
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		   COALESCE(SUM(status='healthy'),0),
		   COALESCE(SUM(status='diseased'),0),
		   COALESCE(SUM(status='dead'),0),
		   COUNT(DISTINCT species_id)
		 FROM trees`).Scan(&s.TotalTrees, &s.HealthyTrees, &s.DiseasedTrees, &s.DeadTrees, &s.SpeciesCount)
	if err != nil {
		return nil, err
	}
	if s.TotalTrees > 0 {
		s.HealthPercentage = round2(float64(s.HealthyTrees) / float64(s.TotalTrees) * 100)
	}
	return &s, nil
}

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
