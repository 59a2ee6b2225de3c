package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/repository"
)

// SpeciesHandler exposes the species catalogue.  Reads are open to any
// authenticated user; writes are gated to admins by the router.
type SpeciesHandler struct {
	Species *repository.SpeciesRepo
}

func NewSpeciesHandler(s *repository.SpeciesRepo) *SpeciesHandler {
	return &SpeciesHandler{Species: s}
}

type speciesReq struct {
	CommonName          string  `json:"common_name"`
	ScientificName      string  `json:"scientific_name"`
	Family              string  `json:"family"`
	Genus               string  `json:"genus"`
	NativeRegion        string  `json:"native_region"`
	Description         string  `json:"description"`
	MaxHeight           float64 `json:"max_height"`
	MaxDiameter         float64 `json:"max_diameter"`
	GrowthRate          string  `json:"growth_rate"`
	LifespanYears       int     `json:"lifespan_years"`
	LeafType            string  `json:"leaf_type"`
	Sunlight            string  `json:"sunlight"`
	WaterNeeds          string  `json:"water_needs"`
	CarbonSequestration float64 `json:"carbon_sequestration"`
	IsEndangered        bool    `json:"is_endangered"`
	ConservationStatus  string  `json:"conservation_status"`
}

func (r *speciesReq) validate() error {
	r.CommonName = strings.TrimSpace(r.CommonName)
	r.ScientificName = strings.TrimSpace(r.ScientificName)
	var errs fieldErrs
	if r.CommonName == "" {
		errs.add("common_name", "required")
	}
	if r.ScientificName == "" {
		errs.add("scientific_name", "required")
	}
	if r.GrowthRate != "" && r.GrowthRate != model.GrowthSlow && r.GrowthRate != model.GrowthModerate && r.GrowthRate != model.GrowthFast {
		errs.add("growth_rate", "must be slow, moderate or fast")
	}
	if r.MaxHeight < 0 || r.MaxDiameter < 0 || r.LifespanYears < 0 {
		errs.add("measurements", "must not be negative")
	}
	return errs.Err()
}

func (r speciesReq) toModel(dst *model.Species) {
	dst.CommonName = r.CommonName
	dst.ScientificName = r.ScientificName
	dst.Family = r.Family
	dst.Genus = r.Genus
	dst.NativeRegion = r.NativeRegion
	dst.Description = r.Description
	dst.MaxHeight = r.MaxHeight
	dst.MaxDiameter = r.MaxDiameter
	dst.GrowthRate = r.GrowthRate
	dst.LifespanYears = r.LifespanYears
	dst.LeafType = r.LeafType
	dst.Sunlight = r.Sunlight
	dst.WaterNeeds = r.WaterNeeds
	dst.CarbonSequestration = r.CarbonSequestration
	dst.IsEndangered = r.IsEndangered
	dst.ConservationStatus = r.ConservationStatus
}

// Create adds a species to the catalogue (admin).
func (h *SpeciesHandler) Create(c echo.Context) error {
	var req speciesReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	var s model.Species
	req.toModel(&s)
	if err := h.Species.Create(ctx, &s); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(toSpeciesView(s)))
}

// List returns a paginated species catalogue.
func (h *SpeciesHandler) List(c echo.Context) error {
	page, limit := pagination(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := h.Species.List(ctx, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okList(toSpeciesViews(items), newMeta(page, limit, total)))
}

// Search matches common name, scientific name or family.
func (h *SpeciesHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return apperr.New(apperr.ValidationFailed, "query parameter q is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Species.Search(ctx, q, 20)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toSpeciesViews(items)))
}

// Get returns a single species.
func (h *SpeciesHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	s, err := h.Species.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toSpeciesView(*s)))
}

// Update replaces a species record (admin).
func (h *SpeciesHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req speciesReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	s, err := h.Species.FindByID(ctx, id)
	if err != nil {
		return err
	}
	req.toModel(s)
	if err := h.Species.Update(ctx, s); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toSpeciesView(*s)))
}

// Delete removes a species (admin).  Fails with Conflict while trees still
// reference it.
func (h *SpeciesHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Species.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("species deleted"))
}
