// Package core provides shared types and typed errors for the indicator
// data service.
package core

// SourceRecord is one raw observation as returned by the remote data source.
// Year arrives as a string (the source encodes time periods as text) and
// Value may be nil, meaning the source reported the cell with no observation.
type SourceRecord struct {
	Country string   `json:"country"`
	Year    string   `json:"year"`
	Value   *float64 `json:"value"`
}

// Observation is one cached (country, year, value) cell projected out of an
// indicator entry. Value is nil for cells the source confirmed as empty.
type Observation struct {
	Country string   `json:"country"`
	Year    int      `json:"year"`
	Value   *float64 `json:"value"`
}

// FetchRequest describes the shape of one data query. An empty Countries
// slice means "all countries". Years must be non-empty.
type FetchRequest struct {
	Countries []string
	Years     []int
}

// HasCountryFilter reports whether the request names specific countries.
func (r FetchRequest) HasCountryFilter() bool {
	return len(r.Countries) > 0
}
