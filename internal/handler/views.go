package handler

import (
	"time"

	"github.com/treenetra/treenetra/internal/model"
)

// View types shape the JSON the API returns.  The model structs mirror
// table rows and carry no tags; the mapping here decides what clients see.

type speciesView struct {
	ID                  uint64    `json:"id"`
	CommonName          string    `json:"common_name"`
	ScientificName      string    `json:"scientific_name"`
	Family              string    `json:"family,omitempty"`
	Genus               string    `json:"genus,omitempty"`
	NativeRegion        string    `json:"native_region,omitempty"`
	Description         string    `json:"description,omitempty"`
	MaxHeight           float64   `json:"max_height,omitempty"`
	MaxDiameter         float64   `json:"max_diameter,omitempty"`
	GrowthRate          string    `json:"growth_rate,omitempty"`
	LifespanYears       int       `json:"lifespan_years,omitempty"`
	LeafType            string    `json:"leaf_type,omitempty"`
	Sunlight            string    `json:"sunlight,omitempty"`
	WaterNeeds          string    `json:"water_needs,omitempty"`
	CarbonSequestration float64   `json:"carbon_sequestration,omitempty"`
	IsEndangered        bool      `json:"is_endangered"`
	ConservationStatus  string    `json:"conservation_status,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toSpeciesView(s model.Species) speciesView {
	return speciesView{
		ID:                  s.ID,
		CommonName:          s.CommonName,
		ScientificName:      s.ScientificName,
		Family:              s.Family,
		Genus:               s.Genus,
		NativeRegion:        s.NativeRegion,
		Description:         s.Description,
		MaxHeight:           s.MaxHeight,
		MaxDiameter:         s.MaxDiameter,
		GrowthRate:          s.GrowthRate,
		LifespanYears:       s.LifespanYears,
		LeafType:            s.LeafType,
		Sunlight:            s.Sunlight,
		WaterNeeds:          s.WaterNeeds,
		CarbonSequestration: s.CarbonSequestration,
		IsEndangered:        s.IsEndangered,
		ConservationStatus:  s.ConservationStatus,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func toSpeciesViews(in []model.Species) []speciesView {
	out := make([]speciesView, 0, len(in))
	for _, s := range in {
		out = append(out, toSpeciesView(s))
	}
	return out
}

type treeView struct {
	ID             uint64     `json:"id"`
	TreeCode       string     `json:"tree_code"`
	SpeciesID      uint64     `json:"species_id"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Address        string     `json:"address,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	Country        string     `json:"country,omitempty"`
	PlantedDate    *time.Time `json:"planted_date,omitempty"`
	AgeYears       int        `json:"age_years"`
	Height         float64    `json:"height,omitempty"`
	Diameter       float64    `json:"diameter,omitempty"`
	CanopySpread   float64    `json:"canopy_spread,omitempty"`
	Status         string     `json:"status"`
	HealthScore    int        `json:"health_score"`
	Tags           []string   `json:"tags,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      uint64     `json:"created_by"`
	LastInspection *time.Time `json:"last_inspection,omitempty"`
	NextInspection *time.Time `json:"next_inspection,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toTreeView(t model.Tree) treeView {
	return treeView{
		ID:             t.ID,
		TreeCode:       t.TreeCode,
		SpeciesID:      t.SpeciesID,
		Latitude:       t.Latitude,
		Longitude:      t.Longitude,
		Address:        t.Address,
		City:           t.City,
		State:          t.State,
		Country:        t.Country,
		PlantedDate:    t.PlantedDate,
		AgeYears:       t.AgeYears(time.Now().UTC()),
		Height:         t.Height,
		Diameter:       t.Diameter,
		CanopySpread:   t.CanopySpread,
		Status:         t.Status,
		HealthScore:    t.HealthScore,
		Tags:           t.Tags,
		Notes:          t.Notes,
		CreatedBy:      t.CreatedBy,
		LastInspection: t.LastInspection,
		NextInspection: t.NextInspection,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toTreeViews(in []model.Tree) []treeView {
	out := make([]treeView, 0, len(in))
	for _, t := range in {
		out = append(out, toTreeView(t))
	}
	return out
}

type treeImageView struct {
	ImageID    string    `json:"image_id"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption,omitempty"`
	UploadedBy uint64    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toTreeImageView(img model.TreeImage) treeImageView {
	return treeImageView{
		ImageID:    img.ImageID,
		URL:        img.URL,
		Caption:    img.Caption,
		UploadedBy: img.UploadedBy,
		UploadedAt: img.UploadedAt,
	}
}

func toTreeImageViews(in []model.TreeImage) []treeImageView {
	out := make([]treeImageView, 0, len(in))
	for _, img := range in {
		out = append(out, toTreeImageView(img))
	}
	return out
}

type healthRecordView struct {
	ID               uint64     `json:"id"`
	TreeID           uint64     `json:"tree_id"`
	InspectionDate   time.Time  `json:"inspection_date"`
	Status           string     `json:"status"`
	HealthScore      int        `json:"health_score"`
	Symptoms         []string   `json:"symptoms,omitempty"`
	Treatment        string     `json:"treatment,omitempty"`
	Height           float64    `json:"height,omitempty"`
	Diameter         float64    `json:"diameter,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Recommendations  string     `json:"recommendations,omitempty"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
	InspectedBy      uint64     `json:"inspected_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toHealthRecordView(h model.HealthRecord) healthRecordView {
	return healthRecordView{
		ID:               h.ID,
		TreeID:           h.TreeID,
		InspectionDate:   h.InspectionDate,
		Status:           h.Status,
		HealthScore:      h.HealthScore,
		Symptoms:         h.Symptoms,
		Treatment:        h.Treatment,
		Height:           h.Height,
		Diameter:         h.Diameter,
		Notes:            h.Notes,
		Recommendations:  h.Recommendations,
		FollowUpRequired: h.FollowUpRequired,
		FollowUpDate:     h.FollowUpDate,
		InspectedBy:      h.InspectedBy,
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
	}
}

func toHealthRecordViews(in []model.HealthRecord) []healthRecordView {
	out := make([]healthRecordView, 0, len(in))
	for _, h := range in {
		out = append(out, toHealthRecordView(h))
	}
	return out
}
