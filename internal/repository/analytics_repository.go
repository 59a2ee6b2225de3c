package repository

import (
	"context"
	"database/sql"
	"time"
)

// AnalyticsRepo runs the read-only reporting aggregations.  Everything here
// is a plain grouped query over the entity tables; no state is mutated.
type AnalyticsRepo struct{ DB *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// Overview summarizes the whole platform for the dashboard landing page.
type Overview struct {
	TotalTrees        int     `json:"total_trees"`
	TotalSpecies      int     `json:"total_species"`
	TotalUsers        int     `json:"total_users"`
	HealthyTrees      int     `json:"healthy_trees"`
	HealthPercentage  float64 `json:"health_percentage"`
	RecentInspections int     `json:"recent_inspections"`
}

// Overview counts trees, species, users, healthy trees and inspections in
// the last 30 days.
func (r *AnalyticsRepo) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	since := time.Now().UTC().AddDate(0, 0, -30)
	err := r.DB.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM trees),
		   (SELECT COUNT(*) FROM species),
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM trees WHERE status='healthy'),
		   (SELECT COUNT(*) FROM health_records WHERE inspection_date >= ?)`,
		since).Scan(&o.TotalTrees, &o.TotalSpecies, &o.TotalUsers, &o.HealthyTrees, &o.RecentInspections)
	if err != nil {
		return nil, err
	}
	if o.TotalTrees > 0 {
		o.HealthPercentage = round2(float64(o.HealthyTrees) / float64(o.TotalTrees) * 100)
	}
	return &o, nil
}

// MonthCount is one month's bucket in a growth series.
type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// TreeGrowth buckets tree registrations per month inside the optional date
// range.
func (r *AnalyticsRepo) TreeGrowth(ctx context.Context, start, end *time.Time) ([]MonthCount, error) {
	where, args := dateRange("created_at", start, end)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT YEAR(created_at), MONTH(created_at), COUNT(*) FROM trees
		 WHERE `+where+` GROUP BY YEAR(created_at), MONTH(created_at)
		 ORDER BY YEAR(created_at), MONTH(created_at)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthCount
	for rows.Next() {
		var m MonthCount
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// StatusCount is one status bucket of the distribution report.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// SpeciesCount is one species bucket of the distribution report.
type SpeciesCount struct {
	SpeciesID   uint64 `json:"species_id"`
	SpeciesName string `json:"species_name"`
	Count       int    `json:"count"`
}

// Distribution groups the inventory by status and by the ten most common
// species.
func (r *AnalyticsRepo) Distribution(ctx context.Context) ([]StatusCount, []SpeciesCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM trees GROUP BY status")
	if err != nil {
		return nil, nil, err
	}
	var byStatus []StatusCount
	for rows.Next() {
		var s StatusCount
		if err := rows.Scan(&s.Status, &s.Count); err != nil {
			rows.Close()
			return nil, nil, err
		}
		byStatus = append(byStatus, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = r.DB.QueryContext(ctx,
		`SELECT t.species_id, s.common_name, COUNT(*) AS cnt
		 FROM trees t JOIN species s ON s.id = t.species_id
		 GROUP BY t.species_id, s.common_name ORDER BY cnt DESC LIMIT 10`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var bySpecies []SpeciesCount
	for rows.Next() {
		var s SpeciesCount
		if err := rows.Scan(&s.SpeciesID, &s.SpeciesName, &s.Count); err != nil {
			return nil, nil, err
		}
		bySpecies = append(bySpecies, s)
	}
	return byStatus, bySpecies, rows.Err()
}

// HealthTrend is one month/status bucket with the average score.
type HealthTrend struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Status   string  `json:"status"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// HealthTrends buckets inspections per month and status with average
// health score, inside the optional date range.
func (r *AnalyticsRepo) HealthTrends(ctx context.Context, start, end *time.Time) ([]HealthTrend, error) {
	where, args := dateRange("inspection_date", start, end)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT YEAR(inspection_date), MONTH(inspection_date), status, COUNT(*), ROUND(AVG(health_score),2)
		 FROM health_records WHERE `+where+`
		 GROUP BY YEAR(inspection_date), MONTH(inspection_date), status
		 ORDER BY YEAR(inspection_date), MONTH(inspection_date)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HealthTrend
	for rows.Next() {
		var t HealthTrend
		if err := rows.Scan(&t.Year, &t.Month, &t.Status, &t.Count, &t.AvgScore); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PopularSpecies is one row of the popular-species report.
type PopularSpecies struct {
	SpeciesID        uint64  `json:"species_id"`
	CommonName       string  `json:"common_name"`
	ScientificName   string  `json:"scientific_name"`
	TreeCount        int     `json:"tree_count"`
	HealthyCount     int     `json:"healthy_count"`
	AvgHeight        float64 `json:"avg_height"`
	AvgDiameter      float64 `json:"avg_diameter"`
	HealthPercentage float64 `json:"health_percentage"`
}

// PopularSpeciesTop ranks species by tree count with health and size
// averages.
func (r *AnalyticsRepo) PopularSpeciesTop(ctx context.Context, limit int) ([]PopularSpecies, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.species_id, s.common_name, s.scientific_name,
		   COUNT(*) AS cnt,
		   COALESCE(SUM(t.status='healthy'),0),
		   ROUND(COALESCE(AVG(t.height),0),2),
		   ROUND(COALESCE(AVG(t.diameter),0),2)
		 FROM trees t JOIN species s ON s.id = t.species_id
		 GROUP BY t.species_id, s.common_name, s.scientific_name
		 ORDER BY cnt DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PopularSpecies
	for rows.Next() {
		var p PopularSpecies
		if err := rows.Scan(&p.SpeciesID, &p.CommonName, &p.ScientificName,
			&p.TreeCount, &p.HealthyCount, &p.AvgHeight, &p.AvgDiameter); err != nil {
			return nil, err
		}
		if p.TreeCount > 0 {
			p.HealthPercentage = round2(float64(p.HealthyCount) / float64(p.TreeCount) * 100)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserActivity is one contributor row of the activity report.
type UserActivity struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Count    int    `json:"count"`
}

// Activity ranks the top tree contributors and the top inspectors inside
// the optional date range.
func (r *AnalyticsRepo) Activity(ctx context.Context, start, end *time.Time) (contributors, inspectors []UserActivity, err error) {
	where, args := dateRange("t.created_at", start, end)
	contributors, err = r.activityQuery(ctx,
		`SELECT t.created_by, u.username, u.full_name, COUNT(*) AS cnt
		 FROM trees t JOIN users u ON u.id = t.created_by
		 WHERE `+where+` GROUP BY t.created_by, u.username, u.full_name
		 ORDER BY cnt DESC LIMIT 10`, args)
	if err != nil {
		return nil, nil, err
	}

	where, args = dateRange("h.inspection_date", start, end)
	inspectors, err = r.activityQuery(ctx,
		`SELECT h.inspected_by, u.username, u.full_name, COUNT(*) AS cnt
		 FROM health_records h JOIN users u ON u.id = h.inspected_by
		 WHERE `+where+` GROUP BY h.inspected_by, u.username, u.full_name
		 ORDER BY cnt DESC LIMIT 10`, args)
	if err != nil {
		return nil, nil, err
	}
	return contributors, inspectors, nil
}

func (r *AnalyticsRepo) activityQuery(ctx context.Context, query string, args []any) ([]UserActivity, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserActivity
	for rows.Next() {
		var a UserActivity
		if err := rows.Scan(&a.UserID, &a.Username, &a.FullName, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MonthlyReport covers one reporting period.
type MonthlyReport struct {
	PeriodStart          time.Time     `json:"period_start"`
	PeriodEnd            time.Time     `json:"period_end"`
	TreesAdded           int           `json:"trees_added"`
	InspectionsCompleted int           `json:"inspections_completed"`
	HealthStatus         []StatusCount `json:"health_status"`
}

// Monthly builds the report for one month, or the whole year when month is
// zero.
func (r *AnalyticsRepo) Monthly(ctx context.Context, year, month int) (*MonthlyReport, error) {
	now := time.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	if month > 0 {
		start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	rep := &MonthlyReport{PeriodStart: start, PeriodEnd: end}
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trees WHERE created_at >= ? AND created_at < ?",
		start, end).Scan(&rep.TreesAdded)
	if err != nil {
		return nil, err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM health_records WHERE inspection_date >= ? AND inspection_date < ?",
		start, end).Scan(&rep.InspectionsCompleted)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM trees GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s StatusCount
		if err := rows.Scan(&s.Status, &s.Count); err != nil {
			return nil, err
		}
		rep.HealthStatus = append(rep.HealthStatus, s)
	}
	return rep, rows.Err()
}

// dateRange builds an optional date window predicate for the given column.
func dateRange(col string, start, end *time.Time) (string, []any) {
	where := "1=1"
	args := []any{}
	if start != nil {
		where += " AND " + col + " >= ?"
		args = append(args, *start)
	}
	if end != nil {
		where += " AND " + col + " <= ?"
		args = append(args, *end)
	}
	return where, args
}
