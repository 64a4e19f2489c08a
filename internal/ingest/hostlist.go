package ingest

import (
	"strings"
	"unicode"

	"github.com/anstrom/recnotes/internal/hosts"
)

// HostList seeds the registry with domain-only records, one per non-empty
// line, keyed by the normalized line itself. An existing record under the
// same key is replaced, not merged.
func HostList(reg *hosts.Registry, lines []string) Stats {
	var stats Stats
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			stats.Skipped++
			continue
		}

		host := hosts.Normalize(line)
		reg.Put(&hosts.Record{
			Key:      host,
			Domains:  []string{host},
			Ports:    []string{},
			Services: []string{},
		})
		stats.Processed++
	}
	return stats
}
