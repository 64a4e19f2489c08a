package notes

import (
	"github.com/anstrom/recnotes/internal/hosts"
)

// FileNames returns the note file names for rec. A domain-keyed record gets
// "<key>.md". An address gets "<key> <rdns>.md" when it has no domains, or
// one "<domain> - (<key>) <rdns>.md" per domain; the rdns segment is dropped
// from the domain form when the name is unknown.
func FileNames(rec *hosts.Record) []string {
	if !rec.Class().IsIP() {
		return []string{rec.Key + ".md"}
	}

	rdns := rec.ReverseDNS
	if rdns == "" {
		rdns = hosts.EmptyReverseDNS
	}

	if len(rec.Domains) == 0 {
		return []string{rec.Key + " " + rdns + ".md"}
	}

	names := make([]string, 0, len(rec.Domains))
	for _, domain := range rec.Domains {
		if rdns == hosts.EmptyReverseDNS {
			names = append(names, domain+" - ("+rec.Key+").md")
		} else {
			names = append(names, domain+" - ("+rec.Key+") "+rdns+".md")
		}
	}
	return names
}
