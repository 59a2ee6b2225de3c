package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/repository"
)

// TreeHandler exposes the tree inventory.  Registration and edits require
// the field-officer role or above; the router enforces that.
type TreeHandler struct {
	Trees   *repository.TreeRepo
	Species *repository.SpeciesRepo
}

func NewTreeHandler(t *repository.TreeRepo, s *repository.SpeciesRepo) *TreeHandler {
	return &TreeHandler{Trees: t, Species: s}
}

type treeReq struct {
	SpeciesID    uint64   `json:"species_id"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Country      string   `json:"country"`
	PlantedDate  string   `json:"planted_date"` // YYYY-MM-DD
	Height       float64  `json:"height"`
	Diameter     float64  `json:"diameter"`
	CanopySpread float64  `json:"canopy_spread"`
	Status       string   `json:"status"`
	HealthScore  *int     `json:"health_score"`
	Tags         []string `json:"tags"`
	Notes        string   `json:"notes"`
}

func (r *treeReq) validate() (planted *time.Time, err error) {
	var errs fieldErrs
	if r.SpeciesID == 0 {
		errs.add("species_id", "required")
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		errs.add("latitude", "must be between -90 and 90")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		errs.add("longitude", "must be between -180 and 180")
	}
	if r.Status != "" && !model.ValidTreeStatus(r.Status) {
		errs.add("status", "must be healthy, diseased, dead or removed")
	}
	if r.HealthScore != nil && (*r.HealthScore < 0 || *r.HealthScore > 100) {
		errs.add("health_score", "must be between 0 and 100")
	}
	if r.Height < 0 || r.Diameter < 0 || r.CanopySpread < 0 {
		errs.add("measurements", "must not be negative")
	}
	if s := strings.TrimSpace(r.PlantedDate); s != "" {
		t, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			errs.add("planted_date", "must be YYYY-MM-DD")
		} else {
			planted = &t
		}
	}
	return planted, errs.Err()
}

// Create registers a tree.  The species must exist; the repository assigns
// the TREE-%06d code.
func (h *TreeHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req treeReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	planted, err := req.validate()
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Species.FindByID(ctx, req.SpeciesID); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return apperr.New(apperr.ValidationFailed, "species does not exist")
		}
		return err
	}

	t := model.Tree{
		SpeciesID:    req.SpeciesID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Country:      strings.TrimSpace(req.Country),
		PlantedDate:  planted,
		Height:       req.Height,
		Diameter:     req.Diameter,
		CanopySpread: req.CanopySpread,
		Status:       req.Status,
		HealthScore:  100,
		Tags:         req.Tags,
		Notes:        req.Notes,
		CreatedBy:    uid,
	}
	if t.Status == "" {
		t.Status = model.TreeHealthy
	}
	if req.HealthScore != nil {
		t.HealthScore = *req.HealthScore
	}
	if err := h.Trees.Create(ctx, &t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(toTreeView(t)))
}

// List returns a paginated inventory, optionally filtered by status and
// species.
func (h *TreeHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidTreeStatus(status) {
		return apperr.New(apperr.ValidationFailed, "invalid status filter")
	}
	speciesID, _ := strconv.ParseUint(c.QueryParam("species_id"), 10, 64)

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := h.Trees.List(ctx, status, speciesID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okList(toTreeViews(items), newMeta(page, limit, total)))
}

// Search filters by free text (code, address, city) plus optional status
// and height bounds.
func (h *TreeHandler) Search(c echo.Context) error {
	page, limit := pagination(c)
	q := strings.TrimSpace(c.QueryParam("q"))
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidTreeStatus(status) {
		return apperr.New(apperr.ValidationFailed, "invalid status filter")
	}
	minH := queryFloat(c, "min_height", 0)
	maxH := queryFloat(c, "max_height", 0)

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := h.Trees.Search(ctx, q, status, minH, maxH, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okList(toTreeViews(items), newMeta(page, limit, total)))
}

// Nearby returns trees within a radius of a coordinate, nearest first.
func (h *TreeHandler) Nearby(c echo.Context) error {
	lat := queryFloat(c, "lat", 360)
	lng := queryFloat(c, "lng", 360)
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.New(apperr.ValidationFailed, "lat and lng are required")
	}
	radius := queryFloat(c, "radius", 500) // meters
	if radius <= 0 || radius > 50000 {
		return apperr.New(apperr.ValidationFailed, "radius must be between 1 and 50000 meters")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Trees.Nearby(ctx, lat, lng, radius)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toTreeViews(items)))
}

// Get returns a single tree with its inspection history summary fields.
func (h *TreeHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Trees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toTreeView(*t)))
}

// Update rewrites a tree's mutable fields.
func (h *TreeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req treeReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	planted, err := req.validate()
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Trees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if req.SpeciesID != t.SpeciesID {
		if _, err := h.Species.FindByID(ctx, req.SpeciesID); err != nil {
			if apperr.IsKind(err, apperr.NotFound) {
				return apperr.New(apperr.ValidationFailed, "species does not exist")
			}
			return err
		}
	}

	t.SpeciesID = req.SpeciesID
	t.Latitude = req.Latitude
	t.Longitude = req.Longitude
	t.Address = strings.TrimSpace(req.Address)
	t.City = strings.TrimSpace(req.City)
	t.State = strings.TrimSpace(req.State)
	t.Country = strings.TrimSpace(req.Country)
	t.PlantedDate = planted
	t.Height = req.Height
	t.Diameter = req.Diameter
	t.CanopySpread = req.CanopySpread
	if req.Status != "" {
		t.Status = req.Status
	}
	if req.HealthScore != nil {
		t.HealthScore = *req.HealthScore
	}
	t.Tags = req.Tags
	t.Notes = req.Notes

	if err := h.Trees.Update(ctx, t); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toTreeView(*t)))
}

// AddTags merges new tags into the tree's tag set, dropping duplicates.
func (h *TreeHandler) AddTags(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil || len(req.Tags) == 0 {
		return apperr.New(apperr.ValidationFailed, "tags are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Trees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	merged := mergeTags(t.Tags, req.Tags)
	if err := h.Trees.UpdateTags(ctx, id, merged); err != nil {
		return err
	}
	t.Tags = merged
	return c.JSON(http.StatusOK, ok(toTreeView(*t)))
}

// RemoveTag drops one tag from the tree.  Removing an absent tag is a
// no-op, matching the set semantics of AddTags.
func (h *TreeHandler) RemoveTag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		return apperr.New(apperr.ValidationFailed, "invalid tag")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Trees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	kept := t.Tags[:0:0]
	for _, existing := range t.Tags {
		if existing != tag {
			kept = append(kept, existing)
		}
	}
	if err := h.Trees.UpdateTags(ctx, id, kept); err != nil {
		return err
	}
	t.Tags = kept
	return c.JSON(http.StatusOK, ok(toTreeView(*t)))
}

// mergeTags appends additions to base, trimming blanks and duplicates
// while preserving order.
func mergeTags(base, additions []string) []string {
	seen := make(map[string]bool, len(base)+len(additions))
	out := make([]string, 0, len(base)+len(additions))
	for _, t := range append(append([]string{}, base...), additions...) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Delete removes a tree and its image records (admin).
func (h *TreeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Trees.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("tree deleted"))
}

// AddImage attaches image metadata to a tree.  Bytes live in external
// storage; only the URL is recorded here.
func (h *TreeHandler) AddImage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		URL     string `json:"url"`
		Caption string `json:"caption"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return apperr.New(apperr.ValidationFailed, "url is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Trees.FindByID(ctx, id); err != nil {
		return err
	}
	img := model.TreeImage{
		ImageID:    uuid.NewString(),
		TreeID:     id,
		URL:        req.URL,
		Caption:    strings.TrimSpace(req.Caption),
		UploadedBy: uid,
	}
	if err := h.Trees.AddImage(ctx, &img); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(toTreeImageView(img)))
}

// ListImages returns a tree's image metadata.
func (h *TreeHandler) ListImages(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Trees.FindByID(ctx, id); err != nil {
		return err
	}
	imgs, err := h.Trees.ListImages(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toTreeImageViews(imgs)))
}

// DeleteImage detaches one image by its UUID.
func (h *TreeHandler) DeleteImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID := strings.TrimSpace(c.Param("imageId"))
	if imageID == "" {
		return apperr.New(apperr.ValidationFailed, "invalid imageId")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Trees.DeleteImage(ctx, id, imageID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("image removed"))
}

// Statistics returns inventory-wide counts and averages.
func (h *TreeHandler) Statistics(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	stats, err := h.Trees.Statistics(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(stats))
}
