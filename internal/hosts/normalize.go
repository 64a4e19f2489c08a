package hosts

import (
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`https?://`)

// Normalize turns a URL, bare domain or IP into a registry-friendly host
// string: lower-cased, without an http(s) scheme and without any path or
// query. Malformed input degrades to a lower-cased substring.
func Normalize(raw string) string {
	host := schemePrefix.ReplaceAllString(strings.ToLower(raw), "")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}
