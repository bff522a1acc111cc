// Package server provides the HTTP tool surface over the indicator cache,
// the local catalog, and the remote Data360 client.
package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"databank/internal/catalog"
	"databank/internal/core"
	"databank/internal/data360"
	"databank/internal/indicator"
)

// DataSource is the remote API consumed by the handlers. *data360.Client
// satisfies it; tests substitute a stub.
type DataSource interface {
	Search(ctx context.Context, query string, top int) ([]data360.SearchResult, int64, error)
	Coverage(ctx context.Context, indicator string) (*data360.TemporalCoverage, error)
	Fetch(ctx context.Context, spec data360.FetchSpec) ([]core.SourceRecord, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	cache   *indicator.Cache
	source  DataSource
	catalog *catalog.Catalog
}

// NewHandler creates a handler. The cache's save-failure hook is wired to
// the operator-visible metrics counter here.
func NewHandler(cache *indicator.Cache, source DataSource, cat *catalog.Catalog) *Handler {
	if cache != nil {
		cache.OnSaveFailure = func(indicator.Key, error) {
			saveFailures.Inc()
		}
	}
	return &Handler{cache: cache, source: source, catalog: cat}
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// SearchIndicators handles GET /v1/indicators/search (local catalog).
func (h *Handler) SearchIndicators(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return handleError(c, core.NewInvalidRequestError("query parameter q is required", nil))
	}
	limit := intParam(c, "limit", 20)

	results := h.catalog.Search(query, limit)
	return c.JSON(http.StatusOK, map[string]any{
		"query":         query,
		"total_matches": len(results),
		"results":       results,
	})
}

// PopularIndicators handles GET /v1/indicators/popular.
func (h *Handler) PopularIndicators(c echo.Context) error {
	categories, byCategory := h.catalog.Popular()
	total := 0
	for _, inds := range byCategory {
		total += len(inds)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total_indicators":       total,
		"categories":             categories,
		"indicators_by_category": byCategory,
	})
}

// SearchDatasets handles GET /v1/datasets/search (remote search).
func (h *Handler) SearchDatasets(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return handleError(c, core.NewInvalidRequestError("query parameter q is required", nil))
	}
	top := intParam(c, "top", 20)

	results, total, err := h.source.Search(c.Request().Context(), query, top)
	if err != nil {
		return handleError(c, core.NewFetchError("dataset search failed", err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total_count": total,
		"results":     results,
	})
}

// DatasetCoverage handles GET /v1/datasets/:database/:indicator/coverage.
func (h *Handler) DatasetCoverage(c echo.Context) error {
	indicatorID := c.Param("indicator")

	cov, err := h.source.Coverage(c.Request().Context(), indicatorID)
	if err != nil {
		var svcErr *core.ServiceError
		if errors.As(err, &svcErr) {
			return handleError(c, svcErr)
		}
		return handleError(c, core.NewFetchError("coverage lookup failed", err))
	}
	return c.JSON(http.StatusOK, cov)
}

// dataQuery is the parsed and validated GET /v1/data request.
type dataQuery struct {
	key               indicator.Key
	displayName       string
	countries         []string
	years             []int
	limit             int
	sortOrder         string
	excludeAggregates bool
}

type dataSummary struct {
	Countries int   `json:"countries"`
	Years     []int `json:"years"`
}

type dataResponse struct {
	CacheHit       bool               `json:"cache_hit"`
	RecordCount    int                `json:"record_count"`
	TotalAvailable int                `json:"total_available"`
	Data           []core.Observation `json:"data"`
	Summary        dataSummary        `json:"summary"`
}

// GetData handles GET /v1/data: resolve through the cache, then apply the
// client-side post-processing the tool layer owns (aggregate exclusion,
// value sort, limit).
func (h *Handler) GetData(c echo.Context) error {
	q, err := parseDataQuery(c)
	if err != nil {
		return handleError(c, err)
	}

	req := core.FetchRequest{Countries: q.countries, Years: q.years}
	fetch := func(ctx context.Context) ([]core.SourceRecord, error) {
		start := time.Now()
		records, err := h.source.Fetch(ctx, data360.FetchSpec{
			Indicator: q.key.Indicator,
			Database:  q.key.Database,
			Countries: q.countries,
			YearFrom:  minInt(q.years),
			YearTo:    maxInt(q.years),
		})
		fetchDuration.Observe(time.Since(start).Seconds())
		return records, err
	}

	records, hit, err := h.cache.Resolve(c.Request().Context(), q.key, q.displayName, req, fetch)
	if err != nil {
		return handleError(c, err)
	}
	if hit {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}

	if q.excludeAggregates {
		filtered := records[:0]
		for _, r := range records {
			if !data360.IsAggregate(r.Country) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	sortByValue(records, q.sortOrder)

	total := len(records)
	display := records
	if q.limit > 0 && len(display) > q.limit {
		display = display[:q.limit]
	}

	return c.JSON(http.StatusOK, dataResponse{
		CacheHit:       hit,
		RecordCount:    len(display),
		TotalAvailable: total,
		Data:           display,
		Summary:        summarize(display),
	})
}

// CacheStats handles GET /v1/cache/stats.
func (h *Handler) CacheStats(c echo.Context) error {
	stats, err := h.cache.Stats(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func parseDataQuery(c echo.Context) (*dataQuery, error) {
	indicatorID := c.QueryParam("indicator")
	database := c.QueryParam("database")
	if indicatorID == "" || database == "" {
		return nil, core.NewInvalidRequestError("indicator and database parameters are required", nil)
	}

	years, err := parseYears(c.QueryParam("years"))
	if err != nil {
		return nil, err
	}

	sortOrder := c.QueryParam("sort")
	switch sortOrder {
	case "":
		sortOrder = "desc"
	case "asc", "desc", "none":
	default:
		return nil, core.NewInvalidRequestError("sort must be asc, desc, or none", nil)
	}

	return &dataQuery{
		key:               indicator.Key{Indicator: indicatorID, Database: database},
		displayName:       c.QueryParam("name"),
		countries:         splitCountries(c.QueryParam("countries")),
		years:             years,
		limit:             intParam(c, "limit", 20),
		sortOrder:         sortOrder,
		excludeAggregates: boolParam(c, "exclude_aggregates", true),
	}, nil
}

// parseYears accepts a comma-separated list of years, each either a single
// year or an inclusive range like 2015-2020.
func parseYears(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, core.NewInvalidRequestError("years parameter is required", nil)
	}

	var years []int
	seen := make(map[int]bool)
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if from, to, ok := strings.Cut(part, "-"); ok {
			lo, err1 := strconv.Atoi(strings.TrimSpace(from))
			hi, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil || hi < lo {
				return nil, core.NewInvalidRequestError("invalid year range: "+part, nil)
			}
			for y := lo; y <= hi; y++ {
				add(y)
			}
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, core.NewInvalidRequestError("invalid year: "+part, nil)
		}
		add(y)
	}
	return years, nil
}

func splitCountries(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var countries []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			countries = append(countries, part)
		}
	}
	return countries
}

// sortByValue orders records by observation value, records without a value
// last. Ordering is stable so equal values keep extraction order.
func sortByValue(records []core.Observation, order string) {
	if order == "none" {
		return
	}
	desc := order != "asc"
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Value, records[j].Value
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case desc:
			return *a > *b
		default:
			return *a < *b
		}
	})
}

func summarize(records []core.Observation) dataSummary {
	countries := make(map[string]bool)
	yearSet := make(map[int]bool)
	for _, r := range records {
		countries[r.Country] = true
		yearSet[r.Year] = true
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	return dataSummary{Countries: len(countries), Years: years}
}

func intParam(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolParam(c echo.Context, name string, fallback bool) bool {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func minInt(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxInt(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// handleError converts service errors to appropriate HTTP responses.
func handleError(c echo.Context, err error) error {
	var svcErr *core.ServiceError
	if errors.As(err, &svcErr) {
		return c.JSON(svcErr.HTTPStatusCode(), svcErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"kind":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
