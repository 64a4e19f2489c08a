// Package ingest reads the reconnaissance inputs recnotes understands (host
// lists, grepable and XML nmap output, host maps) into a hosts.Registry.
package ingest

import (
	"os"
	"strings"

	"github.com/anstrom/recnotes/internal/errors"
)

// Source names used in logs, errors and metric labels.
const (
	SourceHostList = "host-list"
	SourceGnmap    = "gnmap"
	SourceNmapXML  = "nmap-xml"
	SourceHostMap  = "host-map"
)

// Stats counts what an ingester did with its input.
type Stats struct {
	// Processed is the number of lines or hosts that changed the registry.
	Processed int
	// Skipped is the number of lines or hosts that were filtered or rejected.
	Skipped int
}

// ReadLines reads path and returns its lines without line terminators. A
// trailing newline does not produce an empty final line.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied input path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound(path, err)
		}
		return nil, errors.ErrFileUnreadable(path, err)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits text on \n, \r\n or \r.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
