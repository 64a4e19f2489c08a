package ingest

import (
	"strings"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
	"github.com/anstrom/recnotes/internal/logging"
)

// columnOrder says which map column holds the address.
type columnOrder struct {
	domain, ip int
}

var (
	domainFirst = columnOrder{domain: 0, ip: 1}
	ipFirst     = columnOrder{domain: 1, ip: 0}
)

// detectColumnOrder inspects the first field of the second row; the first
// row is often a header. Fewer than two rows keeps the domain,ip default.
func detectColumnOrder(lines []string) columnOrder {
	if len(lines) < 2 {
		return domainFirst
	}
	first := strings.TrimSpace(strings.Split(lines[1], ",")[0])
	if hosts.Classify(first).IsIP() {
		return ipFirst
	}
	return domainFirst
}

// HostMap attaches domains from a two-column host,ip (or ip,host) file to
// registry records by address. When scanIngested is true the scan results
// are authoritative and addresses missing from the registry are not created,
// since the scan found nothing open on them. Rows with fewer than two columns
// or an empty host or address are logged and skipped.
func HostMap(reg *hosts.Registry, lines []string, scanIngested bool) Stats {
	var stats Stats
	order := detectColumnOrder(lines)

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			stats.Skipped++
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			skipIncompletePair(i+1, line)
			stats.Skipped++
			continue
		}

		ip := strings.TrimSpace(fields[order.ip])
		domain := hosts.Normalize(strings.TrimSpace(fields[order.domain]))
		if ip == "" || domain == "" {
			skipIncompletePair(i+1, line)
			stats.Skipped++
			continue
		}

		switch {
		case reg.AppendDomain(ip, domain):
			stats.Processed++
		case !scanIngested:
			reg.Put(&hosts.Record{
				Key:      ip,
				Domains:  []string{domain},
				Ports:    []string{},
				Services: []string{},
			})
			stats.Processed++
		default:
			logging.Debug("Host map address has no scan record, skipping",
				"source", SourceHostMap, "line", i+1, "ip", ip)
			stats.Skipped++
		}
	}
	return stats
}

func skipIncompletePair(line int, entry string) {
	logging.WarnIngest("Missing full pair in host map, skipping", SourceHostMap,
		"code", errors.CodeMapFormat, "line", line, "entry", strings.TrimSpace(entry))
}
