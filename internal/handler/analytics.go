package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/repository"
)

// AnalyticsHandler exposes the aggregate reports.  All endpoints are
// read-only and gated to admins and field officers by the router.
type AnalyticsHandler struct {
	Analytics *repository.AnalyticsRepo
	Trees     *repository.TreeRepo
}

func NewAnalyticsHandler(a *repository.AnalyticsRepo, t *repository.TreeRepo) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: a, Trees: t}
}

// Overview returns the dashboard headline numbers.
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Analytics.Overview(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(o))
}

// Growth buckets tree registrations per month, bounded by optional
// ?start and ?end dates.
func (h *AnalyticsHandler) Growth(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	buckets, err := h.Analytics.TreeGrowth(ctx, queryDate(c, "start"), queryDate(c, "end"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(buckets))
}

// Distribution groups the inventory by status and top species.
func (h *AnalyticsHandler) Distribution(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	byStatus, bySpecies, err := h.Analytics.Distribution(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(echo.Map{
		"by_status":  byStatus,
		"by_species": bySpecies,
	}))
}

// HealthTrends buckets inspections per month and status.
func (h *AnalyticsHandler) HealthTrends(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	trends, err := h.Analytics.HealthTrends(ctx, queryDate(c, "start"), queryDate(c, "end"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(trends))
}

// PopularSpecies ranks species by tree count.
func (h *AnalyticsHandler) PopularSpecies(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Analytics.PopularSpeciesTop(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(out))
}

// Activity ranks the top contributors and inspectors.
func (h *AnalyticsHandler) Activity(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	contributors, inspectors, err := h.Analytics.Activity(ctx, queryDate(c, "start"), queryDate(c, "end"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(echo.Map{
		"top_contributors": contributors,
		"top_inspectors":   inspectors,
	}))
}

// Monthly builds the report for ?year and ?month (month 0 means the whole
// year; year defaults to the current one).
func (h *AnalyticsHandler) Monthly(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, _ := strconv.Atoi(c.QueryParam("month"))
	if month < 0 || month > 12 {
		return apperr.New(apperr.ValidationFailed, "month must be between 1 and 12")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	report, err := h.Analytics.Monthly(ctx, year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(report))
}

// exportLimit bounds a single CSV export; larger inventories page through
// with ?page.
const exportLimit = 5000

// Export streams the tree inventory as CSV.
func (h *AnalyticsHandler) Export(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	status := strings.TrimSpace(c.QueryParam("status"))

	ctx, cancel := dbCtx(c)
	defer cancel()

	trees, _, err := h.Trees.List(ctx, status, 0, page, exportLimit)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="trees-%s.csv"`, time.Now().UTC().Format("2006-01-02")))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{
		"tree_code", "species_id", "latitude", "longitude", "city", "country",
		"planted_date", "height_m", "diameter_cm", "status", "health_score",
		"last_inspection",
	}); err != nil {
		return err
	}
	for _, t := range trees {
		planted, last := "", ""
		if t.PlantedDate != nil {
			planted = t.PlantedDate.Format("2006-01-02")
		}
		if t.LastInspection != nil {
			last = t.LastInspection.Format("2006-01-02")
		}
		rec := []string{
			t.TreeCode,
			strconv.FormatUint(t.SpeciesID, 10),
			strconv.FormatFloat(t.Latitude, 'f', 6, 64),
			strconv.FormatFloat(t.Longitude, 'f', 6, 64),
			t.City,
			t.Country,
			planted,
			strconv.FormatFloat(t.Height, 'f', 2, 64),
			strconv.FormatFloat(t.Diameter, 'f', 2, 64),
			t.Status,
			strconv.Itoa(t.HealthScore),
			last,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
