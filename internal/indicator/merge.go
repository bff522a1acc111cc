package indicator

import (
	"strconv"
	"time"

	"databank/internal/core"
)

// Merge applies one batch of fetched records to the entry and returns the
// number of cells written. The batch is applied whole; callers must not
// invoke Merge after a failed fetch.
//
// A Full-coverage fetch performs superset replacement: every requested year
// currently marked Partial has its cells dropped before the new records land,
// so stale partial cells cannot survive alongside the authoritative set.
// A year already Full is left untouched. Within and across merges the last
// writer wins per (country, year) cell.
//
// Records with a missing country or a missing/unparsable year are dropped
// silently; they never fail the batch. An empty batch is a legal merge: it
// still classifies coverage, appends history, and bumps LastUpdated.
func Merge(e *Entry, records []core.SourceRecord, countries []string, years []int, now time.Time) int {
	fetched := make(map[string]bool)
	for _, r := range records {
		if r.Country != "" {
			fetched[r.Country] = true
		}
	}

	coverage := ClassifyCoverage(len(fetched), len(countries) > 0)

	if coverage == CoverageFull {
		for _, y := range years {
			if e.Coverage[y] == CoveragePartial {
				for c, cells := range e.Data {
					delete(cells, y)
					if len(cells) == 0 {
						delete(e.Data, c)
					}
				}
			}
			e.Coverage[y] = CoverageFull
		}
	}

	added := 0
	for _, r := range records {
		if r.Country == "" {
			continue
		}
		year, err := strconv.Atoi(r.Year)
		if err != nil {
			continue
		}
		cells, ok := e.Data[r.Country]
		if !ok {
			cells = make(map[int]*float64)
			e.Data[r.Country] = cells
		}
		cells[year] = r.Value
		added++
	}

	rebuildAggregates(e)

	e.FetchHistory = append(e.FetchHistory, FetchEvent{
		At:        now,
		Countries: countries,
		Years:     years,
		Added:     added,
		Coverage:  coverage,
	})
	if n := len(e.FetchHistory); n > maxFetchHistory {
		e.FetchHistory = e.FetchHistory[n-maxFetchHistory:]
	}

	e.LastUpdated = now
	return added
}

// rebuildAggregates re-derives Countries, Years, and RecordCount from Data,
// and backfills a Partial coverage mark for any cached year that has none.
// Deriving instead of adjusting keeps the entry invariants immune to drift.
func rebuildAggregates(e *Entry) {
	countries := make(map[string]bool, len(e.Data))
	years := make(map[int]bool)
	count := 0

	for c, cells := range e.Data {
		if len(cells) == 0 {
			delete(e.Data, c)
			continue
		}
		countries[c] = true
		for y := range cells {
			years[y] = true
			count++
		}
	}

	e.Countries = countries
	e.Years = years
	e.RecordCount = count

	for y := range years {
		if _, ok := e.Coverage[y]; !ok {
			e.Coverage[y] = CoveragePartial
		}
	}
}
