// Package hosts holds the per-invocation host registry that the ingesters
// fill and the note emitter consumes, together with the address helpers both
// sides share.
package hosts

import "strings"

// EmptyReverseDNS is what a grepable scan prints when a host has no PTR name.
// It is kept verbatim in file names.
const EmptyReverseDNS = "()"

// ReverseDNS unwraps a scan's "(name)" token to "name". Empty input and the
// "()" placeholder both yield EmptyReverseDNS.
func ReverseDNS(token string) string {
	name := strings.TrimSuffix(strings.TrimPrefix(token, "("), ")")
	if name == "" {
		return EmptyReverseDNS
	}
	return name
}

// Record holds the merged facts known about one host.
type Record struct {
	// Key is the registry key: an IP literal or a bare host string.
	Key string
	// ReverseDNS is the PTR name without parentheses, "()" when the scan
	// found none, or empty when no scan mentioned the host.
	ReverseDNS string
	// Domains may contain duplicates when two sources name the same domain.
	Domains []string
	// Ports are numeric strings in scan order.
	Ports []string
	// Services are distinct names in scan order.
	Services []string
}

// Class classifies the record's key.
func (r *Record) Class() Key {
	return Classify(r.Key)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	return &Record{
		Key:        r.Key,
		ReverseDNS: r.ReverseDNS,
		Domains:    append([]string{}, r.Domains...),
		Ports:      append([]string{}, r.Ports...),
		Services:   append([]string{}, r.Services...),
	}
}

// Registry maps keys to records and remembers first-insertion order so
// emission is deterministic. It is not safe for concurrent use; ingestion
// runs one source at a time.
type Registry struct {
	records map[string]*Record
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Put stores rec under rec.Key, replacing any existing record wholesale.
// A replaced key keeps its original position.
func (r *Registry) Put(rec *Record) {
	if _, exists := r.records[rec.Key]; !exists {
		r.order = append(r.order, rec.Key)
	}
	r.records[rec.Key] = rec
}

// Get returns the record stored under key.
func (r *Registry) Get(key string) (*Record, bool) {
	rec, ok := r.records[key]
	return rec, ok
}

// Has reports whether key is present.
func (r *Registry) Has(key string) bool {
	_, ok := r.records[key]
	return ok
}

// AppendDomain appends domain to the record under key without deduplication.
// It returns false when key is absent.
func (r *Registry) AppendDomain(key, domain string) bool {
	rec, ok := r.records[key]
	if !ok {
		return false
	}
	rec.Domains = append(rec.Domains, domain)
	return true
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns the records in first-insertion order. The slice is new but
// the records are shared with the registry.
func (r *Registry) Records() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key])
	}
	return out
}
