// Package catalog provides instant, offline search over locally cached
// indicator metadata, plus a curated list of popular indicators. It is the
// fast alternative to hitting the remote search API for discovery.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Indicator is one locally known indicator series.
type Indicator struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
	Category    string `json:"category,omitempty"`
}

// SearchResult pairs an indicator with its relevance score for a query.
type SearchResult struct {
	Indicator
	RelevanceScore int `json:"relevance_score"`
}

// Catalog holds the loaded metadata. Immutable after Load; safe for
// concurrent readers.
type Catalog struct {
	indicators []Indicator
	popular    []Indicator
}

type metadataFile struct {
	Indicators []Indicator `json:"indicators"`
}

// Load reads the metadata and curated-popular JSON files. A missing file
// yields an empty section (logged, not fatal) so the service still starts
// without local metadata; a present but malformed file is an error.
func Load(metadataPath, popularPath string) (*Catalog, error) {
	c := &Catalog{}

	var err error
	c.indicators, err = loadIndicators(metadataPath, "indicator metadata")
	if err != nil {
		return nil, err
	}
	c.popular, err = loadIndicators(popularPath, "popular indicators")
	if err != nil {
		return nil, err
	}

	return c, nil
}

func loadIndicators(path, what string) ([]Indicator, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("catalog file missing, continuing without it", "what", what, "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s file: %w", what, err)
	}
	var file metadataFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s file: %w", what, err)
	}
	return file.Indicators, nil
}

// Len returns the number of indicators in the catalog.
func (c *Catalog) Len() int {
	return len(c.indicators)
}

// Relevance ladder for Search: more specific match locations score higher.
const (
	scoreExactCode    = 100
	scoreCodeContains = 90
	scoreNameWord     = 80
	scoreNameContains = 70
	scoreDescContains = 40
)

// Search ranks indicators against a case-insensitive query and returns up
// to limit results, best first. Code matches outrank name matches, which
// outrank description matches.
func (c *Catalog) Search(query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, ind := range c.indicators {
		score := relevance(ind, q)
		if score == 0 {
			continue
		}
		r := SearchResult{Indicator: ind, RelevanceScore: score}
		r.Description = truncate(r.Description, 200)
		r.Source = truncate(r.Source, 100)
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func relevance(ind Indicator, q string) int {
	code := strings.ToLower(ind.Code)
	name := strings.ToLower(ind.Name)
	desc := strings.ToLower(ind.Description)

	switch {
	case q == code:
		return scoreExactCode
	case strings.Contains(code, q):
		return scoreCodeContains
	case containsWord(name, q):
		return scoreNameWord
	case strings.Contains(name, q):
		return scoreNameContains
	case strings.Contains(desc, q):
		return scoreDescContains
	default:
		return 0
	}
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Popular returns the curated indicators grouped by category, with category
// names in sorted order for deterministic output.
func (c *Catalog) Popular() (categories []string, byCategory map[string][]Indicator) {
	byCategory = make(map[string][]Indicator)
	for _, ind := range c.popular {
		category := ind.Category
		if category == "" {
			category = "Other"
		}
		entry := ind
		entry.Description = truncate(entry.Description, 150)
		byCategory[category] = append(byCategory[category], entry)
	}
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories, byCategory
}
