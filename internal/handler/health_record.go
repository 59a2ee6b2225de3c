package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/repository"
)

// HealthRecordHandler exposes the inspection log.  Creating or updating a
// record writes the score and status back to the tree row.
type HealthRecordHandler struct {
	Records *repository.HealthRepo
	Trees   *repository.TreeRepo
}

func NewHealthRecordHandler(r *repository.HealthRepo, t *repository.TreeRepo) *HealthRecordHandler {
	return &HealthRecordHandler{Records: r, Trees: t}
}

type healthRecordReq struct {
	TreeID           uint64   `json:"tree_id"`
	InspectionDate   string   `json:"inspection_date"` // YYYY-MM-DD, defaults to today
	Status           string   `json:"status"`
	HealthScore      int      `json:"health_score"`
	Symptoms         []string `json:"symptoms"`
	Treatment        string   `json:"treatment"`
	Height           float64  `json:"height"`
	Diameter         float64  `json:"diameter"`
	Notes            string   `json:"notes"`
	Recommendations  string   `json:"recommendations"`
	FollowUpRequired bool     `json:"follow_up_required"`
	FollowUpDate     string   `json:"follow_up_date"` // YYYY-MM-DD
}

func (r *healthRecordReq) validate(requireTree bool) (inspection time.Time, followUp *time.Time, err error) {
	var errs fieldErrs
	if requireTree && r.TreeID == 0 {
		errs.add("tree_id", "required")
	}
	if !model.ValidHealthStatus(r.Status) {
		errs.add("status", "must be healthy, diseased, pest_infestation or dead")
	}
	if r.HealthScore < 0 || r.HealthScore > 100 {
		errs.add("health_score", "must be between 0 and 100")
	}
	inspection = time.Now().UTC()
	if s := strings.TrimSpace(r.InspectionDate); s != "" {
		t, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			errs.add("inspection_date", "must be YYYY-MM-DD")
		} else {
			inspection = t
		}
	}
	if s := strings.TrimSpace(r.FollowUpDate); s != "" {
		t, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			errs.add("follow_up_date", "must be YYYY-MM-DD")
		} else {
			followUp = &t
		}
	}
	if r.FollowUpRequired && followUp == nil {
		errs.add("follow_up_date", "required when follow_up_required is set")
	}
	return inspection, followUp, errs.Err()
}

// statusForTree translates an inspection status to the tree vocabulary:
// a pest infestation marks the tree diseased.
func statusForTree(s string) string {
	if s == model.HealthPests {
		return model.TreeDiseased
	}
	return s
}

// Create logs an inspection and updates the tree's health summary.
func (h *HealthRecordHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req healthRecordReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	inspection, followUp, err := req.validate(true)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Trees.FindByID(ctx, req.TreeID); err != nil {
		return err
	}

	rec := model.HealthRecord{
		TreeID:           req.TreeID,
		InspectionDate:   inspection,
		Status:           req.Status,
		HealthScore:      req.HealthScore,
		Symptoms:         req.Symptoms,
		Treatment:        req.Treatment,
		Height:           req.Height,
		Diameter:         req.Diameter,
		Notes:            req.Notes,
		Recommendations:  req.Recommendations,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     followUp,
		InspectedBy:      uid,
	}
	if err := h.Records.Create(ctx, &rec); err != nil {
		return err
	}
	if err := h.Trees.ApplyInspection(ctx, rec.TreeID, rec.HealthScore, statusForTree(rec.Status), inspection, followUp); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(toHealthRecordView(rec)))
}

// List returns inspections, newest first, optionally filtered by status.
func (h *HealthRecordHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidHealthStatus(status) {
		return apperr.New(apperr.ValidationFailed, "invalid status filter")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := h.Records.List(ctx, status, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okList(toHealthRecordViews(items), newMeta(page, limit, total)))
}

// ListByTree returns a tree's full inspection history.
func (h *HealthRecordHandler) ListByTree(c echo.Context) error {
	treeID, err := pathID(c, "treeId")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Trees.FindByID(ctx, treeID); err != nil {
		return err
	}
	items, err := h.Records.ListByTree(ctx, treeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toHealthRecordViews(items)))
}

// Get returns one inspection record.
func (h *HealthRecordHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rec, err := h.Records.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toHealthRecordView(*rec)))
}

// Update rewrites an inspection record.  The tree summary is refreshed only
// when this is the tree's latest inspection.
func (h *HealthRecordHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req healthRecordReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	inspection, followUp, err := req.validate(false)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rec, err := h.Records.FindByID(ctx, id)
	if err != nil {
		return err
	}

	rec.InspectionDate = inspection
	rec.Status = req.Status
	rec.HealthScore = req.HealthScore
	rec.Symptoms = req.Symptoms
	rec.Treatment = req.Treatment
	rec.Height = req.Height
	rec.Diameter = req.Diameter
	rec.Notes = req.Notes
	rec.Recommendations = req.Recommendations
	rec.FollowUpRequired = req.FollowUpRequired
	rec.FollowUpDate = followUp

	if err := h.Records.Update(ctx, rec); err != nil {
		return err
	}

	tree, err := h.Trees.FindByID(ctx, rec.TreeID)
	if err != nil {
		return err
	}
	if tree.LastInspection == nil || !rec.InspectionDate.Before(*tree.LastInspection) {
		if err := h.Trees.ApplyInspection(ctx, rec.TreeID, rec.HealthScore, statusForTree(rec.Status), rec.InspectionDate, followUp); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, ok(toHealthRecordView(*rec)))
}

// Delete removes an inspection record (admin).  The tree row keeps its last
// written summary.
func (h *HealthRecordHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Records.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("health record deleted"))
}
