package repository

import (
	"context"
	"database/sql"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

type HealthRepo struct{ DB *sql.DB }

func NewHealthRepo(db *sql.DB) *HealthRepo { return &HealthRepo{DB: db} }

const healthColumns = "id, tree_id, inspection_date, status, health_score, symptoms, treatment, height, diameter, notes, recommendations, follow_up_required, follow_up_date, inspected_by, created_at, updated_at"

func scanHealthRecord(row rowScanner) (*model.HealthRecord, error) {
	var h model.HealthRecord
	var symptoms string
	err := row.Scan(&h.ID, &h.TreeID, &h.InspectionDate, &h.Status, &h.HealthScore,
		&symptoms, &h.Treatment, &h.Height, &h.Diameter, &h.Notes, &h.Recommendations,
		&h.FollowUpRequired, &h.FollowUpDate, &h.InspectedBy, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "health record not found")
	}
	if err != nil {
		return nil, err
	}
	h.Symptoms = splitTags(symptoms)
	return &h, nil
}

// Create inserts an inspection record and fills in its ID.
func (r *HealthRepo) Create(ctx context.Context, h *model.HealthRecord) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO health_records (tree_id, inspection_date, status, health_score, symptoms, treatment,
		   height, diameter, notes, recommendations, follow_up_required, follow_up_date, inspected_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.TreeID, h.InspectionDate, h.Status, h.HealthScore, joinTags(h.Symptoms), h.Treatment,
		h.Height, h.Diameter, h.Notes, h.Recommendations, h.FollowUpRequired, h.FollowUpDate, h.InspectedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// FindByID fetches one inspection record.
func (r *HealthRepo) FindByID(ctx context.Context, id uint64) (*model.HealthRecord, error) {
	return scanHealthRecord(r.DB.QueryRowContext(ctx,
		"SELECT "+healthColumns+" FROM health_records WHERE id=? LIMIT 1", id))
}

// List returns a page of records with an optional status filter, newest
// inspection first.
func (r *HealthRepo) List(ctx context.Context, status string, page, limit int) ([]model.HealthRecord, int, error) {
	where := "1=1"
	args := []any{}
	if status != "" {
		where += " AND status=?"
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM health_records WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+healthColumns+" FROM health_records WHERE "+where+" ORDER BY inspection_date DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.HealthRecord
	for rows.Next() {
		h, err := scanHealthRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *h)
	}
	return out, total, rows.Err()
}

// ListByTree returns all inspection records of one tree, newest first.
func (r *HealthRepo) ListByTree(ctx context.Context, treeID uint64) ([]model.HealthRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+healthColumns+" FROM health_records WHERE tree_id=? ORDER BY inspection_date DESC",
		treeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HealthRecord
	for rows.Next() {
		h, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a record.
func (r *HealthRepo) Update(ctx context.Context, h *model.HealthRecord) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE health_records SET inspection_date=?, status=?, health_score=?, symptoms=?, treatment=?,
		   height=?, diameter=?, notes=?, recommendations=?, follow_up_required=?, follow_up_date=?
		 WHERE id=?`,
		h.InspectionDate, h.Status, h.HealthScore, joinTags(h.Symptoms), h.Treatment,
		h.Height, h.Diameter, h.Notes, h.Recommendations, h.FollowUpRequired, h.FollowUpDate, h.ID)
	return err
}

// Delete removes a record.
func (r *HealthRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM health_records WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "health record not found")
	}
	return nil
}
