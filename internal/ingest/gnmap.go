package ingest

import (
	"slices"
	"strings"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
)

const (
	// openMarker must appear in a line for it to be considered.
	openMarker = "/open/"
	// portsPrefixLen is len("Ports: ").
	portsPrefixLen = 7
	// portFields is the slash field count of a port descriptor:
	// port/state/proto/owner/service/rpc/version/
	portFields = 8
)

// Gnmap ingests grepable nmap output (-oG). Only lines containing "/open/"
// are considered. For each, the open ports and distinct services replace
// whatever the registry held for that address: the most recent scan line for
// a host fully replaces prior scan facts for that host. Domains already
// attached to the address are kept.
//
// A line whose structure or port descriptors do not match the grepable
// format aborts ingestion with a CodeScanFormat error.
func Gnmap(reg *hosts.Registry, lines []string) (Stats, error) {
	var stats Stats
	for i, line := range lines {
		lineNo := i + 1
		if !strings.Contains(strings.ToLower(line), openMarker) {
			stats.Skipped++
			continue
		}

		rec, err := parseGnmapLine(line, lineNo)
		if err != nil {
			return stats, err
		}
		if len(rec.Ports) == 0 {
			stats.Skipped++
			continue
		}

		storeScanRecord(reg, rec)
		stats.Processed++
	}
	return stats, nil
}

func parseGnmapLine(line string, lineNo int) (*hosts.Record, error) {
	sections := strings.Split(line, "\t")
	if len(sections) < 2 {
		return nil, errors.NewParseErrorAtLine(errors.CodeScanFormat,
			"Scan line has no tab-separated ports section", lineNo)
	}

	hostInfo := strings.Split(sections[0], " ")
	if len(hostInfo) < 3 {
		return nil, errors.NewParseErrorAtLine(errors.CodeScanFormat,
			"Scan line host section must be 'Host: <ip> (<rdns>)'", lineNo)
	}

	portsSection := sections[1]
	if len(portsSection) < portsPrefixLen {
		return nil, errors.NewParseErrorAtLine(errors.CodeScanFormat,
			"Scan line ports section is truncated", lineNo)
	}

	rec := &hosts.Record{
		Key:        hostInfo[1],
		ReverseDNS: hosts.ReverseDNS(hostInfo[2]),
		Ports:      []string{},
		Services:   []string{},
	}

	for _, descriptor := range strings.Split(portsSection[portsPrefixLen:], ", ") {
		fields := strings.Split(descriptor, "/")
		if len(fields) != portFields {
			return nil, errors.ErrPortDescriptor(lineNo, descriptor, len(fields))
		}

		port, state, service := fields[0], fields[1], fields[4]
		if !strings.EqualFold(state, "open") {
			continue
		}

		rec.Ports = append(rec.Ports, port)
		if service != "" && !slices.Contains(rec.Services, service) {
			rec.Services = append(rec.Services, service)
		}
	}

	return rec, nil
}

// storeScanRecord replaces the scan facts for rec.Key, carrying over any
// domains the key already had.
func storeScanRecord(reg *hosts.Registry, rec *hosts.Record) {
	rec.Domains = []string{}
	if existing, ok := reg.Get(rec.Key); ok {
		rec.Domains = append(rec.Domains, existing.Domains...)
	}
	reg.Put(rec)
}
