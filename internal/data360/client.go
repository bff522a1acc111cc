// Package data360 is the HTTP client for the World Bank Data360 API:
// dataset search, temporal coverage metadata, and paginated data retrieval.
// Responses are parsed leniently because the upstream mixes value types
// (observation values arrive as numbers, numeric strings, or null).
package data360

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"databank/internal/core"
)

const (
	// DefaultBaseURL is the production Data360 API endpoint.
	DefaultBaseURL = "https://data360api.worldbank.org"

	searchPath   = "/data360/searchv2"
	dataPath     = "/data360/data"
	metadataPath = "/data360/metadata"

	// maxFetchRecords caps one paginated retrieval as a safety limit.
	maxFetchRecords = 10000

	// maxBodySize bounds a single response body read.
	maxBodySize = 32 * 1024 * 1024
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API endpoint (used by tests).
	BaseURL string

	// Timeout bounds each HTTP request (default 30s, matching upstream
	// guidance).
	Timeout time.Duration
}

// Client talks to the Data360 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a client with connection pooling tuned for a handful of
// hosts and per-request timeouts.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SearchResult is one dataset match from the search endpoint.
type SearchResult struct {
	Indicator string  `json:"indicator"`
	Name      string  `json:"name"`
	Database  string  `json:"database"`
	Score     float64 `json:"search_score"`
}

// Search queries the Data360 metadata index for datasets matching query.
// Returns the matches and the total result count reported by the API.
func (c *Client) Search(ctx context.Context, query string, top int) ([]SearchResult, int64, error) {
	if top <= 0 {
		top = 20
	}
	payload := map[string]any{
		"count":  true,
		"select": "series_description/idno, series_description/name, series_description/database_id",
		"search": query,
		"top":    top,
	}

	body, err := c.postJSON(ctx, searchPath, payload)
	if err != nil {
		return nil, 0, err
	}

	var results []SearchResult
	gjson.GetBytes(body, "value").ForEach(func(_, item gjson.Result) bool {
		series := item.Get("series_description")
		results = append(results, SearchResult{
			Indicator: series.Get("idno").String(),
			Name:      series.Get("name").String(),
			Database:  series.Get("database_id").String(),
			Score:     item.Get(`@search\.score`).Float(),
		})
		return true
	})

	total := gjson.GetBytes(body, `@odata\.count`).Int()
	return results, total, nil
}

// TemporalCoverage describes the years a dataset spans.
type TemporalCoverage struct {
	StartYear  int   `json:"start_year"`
	EndYear    int   `json:"end_year"`
	LatestYear int   `json:"latest_year"`
	Years      []int `json:"available_years"`
}

// Coverage looks up the available year range for an indicator.
func (c *Client) Coverage(ctx context.Context, indicator string) (*TemporalCoverage, error) {
	payload := map[string]any{
		"query": fmt.Sprintf("&$filter=series_description/idno eq '%s'", indicator),
	}

	body, err := c.postJSON(ctx, metadataPath, payload)
	if err != nil {
		return nil, err
	}

	period := gjson.GetBytes(body, "value.0.series_description.time_periods.0")
	if !period.Exists() {
		return nil, core.NewNotFoundError("no temporal metadata for " + indicator)
	}

	start := int(period.Get("start").Int())
	end := int(period.Get("end").Int())
	if start == 0 || end == 0 || end < start {
		return nil, fmt.Errorf("malformed time period for %s: start=%d end=%d", indicator, start, end)
	}

	cov := &TemporalCoverage{StartYear: start, EndYear: end, LatestYear: end}
	for y := start; y <= end; y++ {
		cov.Years = append(cov.Years, y)
	}
	return cov, nil
}

// FetchSpec parameterizes one data retrieval.
type FetchSpec struct {
	Indicator string
	Database  string
	Countries []string // empty = all countries
	YearFrom  int      // 0 = no lower bound
	YearTo    int      // 0 = no upper bound
}

// Fetch retrieves observations page by page until the server-reported count
// is reached, an empty page arrives, or the safety cap trips. Rows are
// returned raw; coverage decisions belong to the cache.
func (c *Client) Fetch(ctx context.Context, spec FetchSpec) ([]core.SourceRecord, error) {
	params := url.Values{}
	params.Set("DATABASE_ID", spec.Database)
	params.Set("INDICATOR", spec.Indicator)
	if spec.YearFrom > 0 {
		params.Set("timePeriodFrom", strconv.Itoa(spec.YearFrom))
	}
	if spec.YearTo > 0 {
		params.Set("timePeriodTo", strconv.Itoa(spec.YearTo))
	}
	if len(spec.Countries) > 0 {
		params.Set("REF_AREA", strings.Join(spec.Countries, ","))
	}

	var records []core.SourceRecord
	for len(records) < maxFetchRecords {
		params.Set("skip", strconv.Itoa(len(records)))

		body, err := c.getJSON(ctx, dataPath, params)
		if err != nil {
			return nil, err
		}

		page := gjson.GetBytes(body, "value")
		if !page.IsArray() || len(page.Array()) == 0 {
			break
		}

		page.ForEach(func(_, row gjson.Result) bool {
			records = append(records, core.SourceRecord{
				Country: row.Get("REF_AREA").String(),
				Year:    row.Get("TIME_PERIOD").String(),
				Value:   observationValue(row.Get("OBS_VALUE")),
			})
			return true
		})

		total := gjson.GetBytes(body, "count").Int()
		if int64(len(records)) >= total {
			break
		}
	}

	return records, nil
}

// observationValue converts an OBS_VALUE field to an optional float. The
// upstream encodes missing observations as null or empty string, and
// present ones as either a number or a numeric string.
func observationValue(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}

	limited := io.LimitReader(resp.Body, maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response body too large (exceeds %d bytes)", maxBodySize)
	}
	return body, nil
}
