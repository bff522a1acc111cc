// Package indicator implements the per-indicator time-series cache: coverage
// classification, incremental merge of fetched records, extraction, and the
// resolve orchestration that ties them to a byte store and a fetch callback.
package indicator

import (
	"fmt"
	"strings"
)

// Key addresses one cache entry: an indicator within a source database.
type Key struct {
	Indicator string
	Database  string
}

// String formats the key for byte-store addressing. The component order is
// fixed for the lifetime of the store; changing it would orphan every
// persisted entry.
func (k Key) String() string {
	return k.Indicator + ":" + k.Database
}

// ParseKey splits a formatted key back into its components.
func ParseKey(s string) (Key, error) {
	indicator, database, ok := strings.Cut(s, ":")
	if !ok || indicator == "" || database == "" {
		return Key{}, fmt.Errorf("malformed entry key %q", s)
	}
	return Key{Indicator: indicator, Database: database}, nil
}
