package model

import "time"

// Growth rates, leaf types and water needs use fixed vocabularies; the
// handlers validate against these before anything reaches the repository.
const (
	GrowthSlow     = "slow"
	GrowthModerate = "moderate"
	GrowthFast     = "fast"
)

// Species mirrors the `species` table: taxonomy plus cultivation traits.
// Scientific name is globally unique.
type Species struct {
	ID                 uint64    // species.id
	CommonName         string    // species.common_name
	ScientificName     string    // species.scientific_name (unique)
	Family             string    // species.family
	Genus              string    // species.genus
	NativeRegion       string    // species.native_region
	Description        string    // species.description
	MaxHeight          float64   // species.max_height (meters)
	MaxDiameter        float64   // species.max_diameter (meters)
	GrowthRate         string    // species.growth_rate: slow|moderate|fast
	LifespanYears      int       // species.lifespan_years
	LeafType           string    // species.leaf_type: deciduous|evergreen|semi-evergreen
	Sunlight           string    // species.sunlight: full_sun|partial_shade|full_shade
	WaterNeeds         string    // species.water_needs: low|moderate|high
	CarbonSequestration float64  // species.carbon_sequestration (kg/year)
	IsEndangered       bool      // species.is_endangered
	ConservationStatus string    // species.conservation_status: LC|NT|VU|EN|CR|EW|EX
	CreatedAt          time.Time // species.created_at
	UpdatedAt          time.Time // species.updated_at
}
