package indicator

// FullCoverageThreshold is the number of distinct returned countries above
// which a filtered fetch is still treated as full coverage. Some indicators
// report fewer countries than the nominal full roster, so a broad filtered
// fetch can represent completeness. Policy constant, tunable independently
// of the merge logic.
const FullCoverageThreshold = 180

// ClassifyCoverage decides whether a completed fetch represents the source's
// full country universe for the requested years. A fetch with no country
// filter asked the source for everything and is Full unconditionally.
func ClassifyCoverage(distinctCountries int, hadCountryFilter bool) Coverage {
	if !hadCountryFilter {
		return CoverageFull
	}
	if distinctCountries > FullCoverageThreshold {
		return CoverageFull
	}
	return CoveragePartial
}

// MissingSpec describes what a cached entry cannot answer for a request.
type MissingSpec struct {
	Years      []int
	Countries  []string
	NeedsFetch bool
}

// FindMissing compares a request against the entry's cached coverage.
// An empty countries slice means the caller wants all countries, which a
// Partial year cannot satisfy even though the year itself is cached.
func FindMissing(e *Entry, countries []string, years []int) MissingSpec {
	var missing MissingSpec

	for _, y := range years {
		if !e.Years[y] {
			missing.Years = append(missing.Years, y)
			missing.NeedsFetch = true
			continue
		}
		if len(countries) == 0 && e.Coverage[y] != CoverageFull {
			missing.NeedsFetch = true
		}
	}

	for _, c := range countries {
		if !e.Countries[c] {
			missing.Countries = append(missing.Countries, c)
			missing.NeedsFetch = true
		}
	}

	return missing
}
