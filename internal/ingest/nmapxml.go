package ingest

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
)

// NmapXML ingests nmap XML output (-oX) with the same policy as Gnmap: hosts
// without open ports are skipped, and each host's open ports and services
// replace what the registry held for its address.
func NmapXML(reg *hosts.Registry, data []byte) (Stats, error) {
	var run nmap.Run
	if err := nmap.Parse(data, &run); err != nil {
		return Stats{}, errors.WrapParseError(errors.CodeScanFormat, "Invalid nmap XML document", err)
	}

	var stats Stats
	for i := range run.Hosts {
		rec := recordFromNmapHost(&run.Hosts[i])
		if rec == nil || len(rec.Ports) == 0 {
			stats.Skipped++
			continue
		}
		storeScanRecord(reg, rec)
		stats.Processed++
	}
	return stats, nil
}

func recordFromNmapHost(h *nmap.Host) *hosts.Record {
	addr := hostAddress(h)
	if addr == "" {
		return nil
	}

	rec := &hosts.Record{
		Key:        addr,
		ReverseDNS: reverseDNS(h),
		Ports:      []string{},
		Services:   []string{},
	}

	for j := range h.Ports {
		p := &h.Ports[j]
		if !strings.EqualFold(p.State.State, "open") {
			continue
		}
		rec.Ports = append(rec.Ports, strconv.Itoa(int(p.ID)))
		if name := p.Service.Name; name != "" && !slices.Contains(rec.Services, name) {
			rec.Services = append(rec.Services, name)
		}
	}
	return rec
}

// hostAddress prefers the IPv4 address; a host scanned over IPv6 falls back
// to its first address of any type.
func hostAddress(h *nmap.Host) string {
	for _, a := range h.Addresses {
		if a.AddrType == "ipv4" {
			return a.Addr
		}
	}
	for _, a := range h.Addresses {
		if a.AddrType != "mac" {
			return a.Addr
		}
	}
	return ""
}

// reverseDNS prefers the PTR name over user-supplied ones.
func reverseDNS(h *nmap.Host) string {
	for _, hn := range h.Hostnames {
		if strings.EqualFold(hn.Type, "PTR") {
			return hosts.ReverseDNS(hn.Name)
		}
	}
	if len(h.Hostnames) > 0 {
		return hosts.ReverseDNS(h.Hostnames[0].Name)
	}
	return hosts.EmptyReverseDNS
}
