package model

import "time"

// Tree status vocabulary.  Status tracks the latest known condition; the
// health-record workflow writes it back after every inspection.
const (
	TreeHealthy  = "healthy"
	TreeDiseased = "diseased"
	TreeDead     = "dead"
	TreeRemoved  = "removed"
)

// ValidTreeStatus reports whether s is a recognised tree status.
func ValidTreeStatus(s string) bool {
	return s == TreeHealthy || s == TreeDiseased || s == TreeDead || s == TreeRemoved
}

// Tree mirrors the `trees` table.  TreeCode is the human-facing identifier
// (TREE-000042) generated from the row id on insert.  CreatedBy is a
// back-reference to the registering user; the user does not own the record.
type Tree struct {
	ID             uint64     // trees.id
	TreeCode       string     // trees.tree_code (unique)
	SpeciesID      uint64     // trees.species_id
	Latitude       float64    // trees.latitude
	Longitude      float64    // trees.longitude
	Address        string     // trees.address
	City           string     // trees.city
	State          string     // trees.state
	Country        string     // trees.country
	PlantedDate    *time.Time // trees.planted_date (nullable)
	Height         float64    // trees.height (meters)
	Diameter       float64    // trees.diameter (centimeters)
	CanopySpread   float64    // trees.canopy_spread (meters)
	Status         string     // trees.status
	HealthScore    int        // trees.health_score 0..100
	Tags           []string   // trees.tags (comma separated column)
	Notes          string     // trees.notes
	CreatedBy      uint64     // trees.created_by
	LastInspection *time.Time // trees.last_inspection (nullable)
	NextInspection *time.Time // trees.next_inspection (nullable)
	CreatedAt      time.Time  // trees.created_at
	UpdatedAt      time.Time  // trees.updated_at
}

// AgeYears derives the tree's age in whole years from its planted date.
// Returns 0 when the planted date is unknown.
func (t Tree) AgeYears(now time.Time) int {
	if t.PlantedDate == nil {
		return 0
	}
	years := now.Year() - t.PlantedDate.Year()
	if years < 0 {
		return 0
	}
	return years
}

// TreeImage mirrors the `tree_images` table.  ImageID is a UUID assigned at
// attach time so clients can address images independently of row ids.  Only
// the URL and metadata are stored; image bytes live elsewhere.
type TreeImage struct {
	ID         uint64    // tree_images.id
	ImageID    string    // tree_images.image_id (uuid, unique)
	TreeID     uint64    // tree_images.tree_id
	URL        string    // tree_images.url
	Caption    string    // tree_images.caption
	UploadedBy uint64    // tree_images.uploaded_by
	UploadedAt time.Time // tree_images.uploaded_at
}
