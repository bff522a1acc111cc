package indicator

import (
	"databank/internal/core"
)

// Extract projects the entry's data into an ordered record list. Countries
// iterate in the caller-given order, and years within each country likewise,
// producing country-major, year-minor output. Cells absent from the cache
// are skipped silently. An empty countries slice selects the full cached
// roster in lexicographic order, keeping extraction deterministic.
func Extract(e *Entry, countries []string, years []int) []core.Observation {
	if len(countries) == 0 {
		countries = e.CountryList()
	}

	var records []core.Observation
	for _, c := range countries {
		cells, ok := e.Data[c]
		if !ok {
			continue
		}
		for _, y := range years {
			value, ok := cells[y]
			if !ok {
				continue
			}
			records = append(records, core.Observation{Country: c, Year: y, Value: value})
		}
	}
	return records
}
