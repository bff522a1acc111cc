package indicator

import (
	"sort"
	"time"
)

// Coverage states whether a cached year holds every country the source would
// return (Full) or only a query-scoped subset (Partial).
type Coverage string

const (
	// CoverageFull means the cache holds everything the source has for a year.
	CoverageFull Coverage = "FULL"
	// CoveragePartial means the cache holds a proper subset for a year.
	CoveragePartial Coverage = "PARTIAL"
)

// maxFetchHistory bounds the per-entry merge log; oldest events are evicted
// first when the cap is exceeded.
const maxFetchHistory = 10

// FetchEvent records one merge applied to an entry.
type FetchEvent struct {
	At        time.Time `json:"at"`
	Countries []string  `json:"countries,omitempty"`
	Years     []int     `json:"years"`
	Added     int       `json:"added"`
	Coverage  Coverage  `json:"coverage"`
}

// Entry is the accumulated time-series data for one indicator key.
//
// Countries, Years, and RecordCount are derived aggregates: they are
// recomputed from Data on every merge and never incrementally drifted.
// Data is country → year → value; a nil value is a cell the source
// confirmed as having no observation.
type Entry struct {
	Indicator    string                      `json:"indicator"`
	Database     string                      `json:"database"`
	DisplayName  string                      `json:"display_name,omitempty"`
	Countries    map[string]bool             `json:"countries"`
	Years        map[int]bool                `json:"years"`
	Coverage     map[int]Coverage            `json:"coverage"`
	LastUpdated  time.Time                   `json:"last_updated"`
	RecordCount  int                         `json:"record_count"`
	FetchHistory []FetchEvent                `json:"fetch_history,omitempty"`
	Data         map[string]map[int]*float64 `json:"data"`
}

// NewEntry creates an empty entry for a key. The display name may be a
// provisional hint and stays empty until known.
func NewEntry(key Key, displayName string) *Entry {
	return &Entry{
		Indicator:   key.Indicator,
		Database:    key.Database,
		DisplayName: displayName,
		Countries:   make(map[string]bool),
		Years:       make(map[int]bool),
		Coverage:    make(map[int]Coverage),
		Data:        make(map[string]map[int]*float64),
	}
}

// Key returns the entry's cache key.
func (e *Entry) Key() Key {
	return Key{Indicator: e.Indicator, Database: e.Database}
}

// CountryList returns the cached countries in lexicographic order. This is
// the documented iteration order for full-roster extraction.
func (e *Entry) CountryList() []string {
	countries := make([]string, 0, len(e.Countries))
	for c := range e.Countries {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}

// normalize replaces nil maps with empty ones after deserialization so merge
// and lookup code never has to nil-check.
func (e *Entry) normalize() {
	if e.Countries == nil {
		e.Countries = make(map[string]bool)
	}
	if e.Years == nil {
		e.Years = make(map[int]bool)
	}
	if e.Coverage == nil {
		e.Coverage = make(map[int]Coverage)
	}
	if e.Data == nil {
		e.Data = make(map[string]map[int]*float64)
	}
}
