package model

import "time"

// Health record status vocabulary.  A record's status may differ from the
// tree's: pest_infestation exists only at inspection granularity.
const (
	HealthHealthy  = "healthy"
	HealthDiseased = "diseased"
	HealthPests    = "pest_infestation"
	HealthDead     = "dead"
)

// ValidHealthStatus reports whether s is a recognised inspection status.
func ValidHealthStatus(s string) bool {
	return s == HealthHealthy || s == HealthDiseased || s == HealthPests || s == HealthDead
}

// HealthRecord mirrors the `health_records` table.  Each record documents a
// single inspection of a tree; creating one writes the score/status back to
// the tree row.  InspectedBy is a back-reference to the inspecting user.
type HealthRecord struct {
	ID               uint64     // health_records.id
	TreeID           uint64     // health_records.tree_id
	InspectionDate   time.Time  // health_records.inspection_date
	Status           string     // health_records.status
	HealthScore      int        // health_records.health_score 0..100
	Symptoms         []string   // health_records.symptoms (comma separated column)
	Treatment        string     // health_records.treatment
	Height           float64    // health_records.height (meters, optional measurement)
	Diameter         float64    // health_records.diameter (centimeters)
	Notes            string     // health_records.notes
	Recommendations  string     // health_records.recommendations
	FollowUpRequired bool       // health_records.follow_up_required
	FollowUpDate     *time.Time // health_records.follow_up_date (nullable)
	InspectedBy      uint64     // health_records.inspected_by
	CreatedAt        time.Time  // health_records.created_at
	UpdatedAt        time.Time  // health_records.updated_at
}
