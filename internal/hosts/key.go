package hosts

import "regexp"

// ipv4Literal matches the start of a dotted-quad. It is a prefix match, so
// "10.0.0.1:8080" still classifies as an address.
var ipv4Literal = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// KeyKind tells whether a registry key is an address or a domain-like name.
type KeyKind int

const (
	KindDomain KeyKind = iota
	KindIP
)

// String returns the kind name.
func (k KeyKind) String() string {
	if k == KindIP {
		return "ip"
	}
	return "domain"
}

// Key is a classified registry key.
type Key struct {
	Kind  KeyKind
	Value string
}

// Classify is the only place that decides whether a string is an IPv4
// literal. Map column detection and note naming both go through it.
func Classify(s string) Key {
	if ipv4Literal.MatchString(s) {
		return Key{Kind: KindIP, Value: s}
	}
	return Key{Kind: KindDomain, Value: s}
}

// IsIP reports whether the key is an address.
func (k Key) IsIP() bool {
	return k.Kind == KindIP
}

// String returns the raw key.
func (k Key) String() string {
	return k.Value
}
