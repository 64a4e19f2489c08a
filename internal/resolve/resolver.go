// Package resolve turns a list of host names into the host,ip map that parse
// consumes, looking up A records with bounded concurrency.
package resolve

//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/anstrom/recnotes/internal/errors"
)

// DefaultServer is used when no server is configured and /etc/resolv.conf
// cannot be read.
const DefaultServer = "1.1.1.1:53"

const resolvConf = "/etc/resolv.conf"

// Resolver looks up the IPv4 address of a host.
type Resolver interface {
	LookupA(ctx context.Context, host string) (string, error)
}

// DNSResolver queries a single DNS server for A records.
type DNSResolver struct {
	server string
	client *dns.Client
}

// NewDNSResolver creates a resolver for server (host:port). An empty server
// uses the first nameserver in /etc/resolv.conf.
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if server == "" {
		server = systemServer()
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// Server returns the server queried.
func (r *DNSResolver) Server() string {
	return r.server
}

func systemServer() string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return DefaultServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// LookupA returns the first A record for host, following any CNAME chain
// the server includes in its answer. An IPv4 literal is returned unchanged.
func (r *DNSResolver) LookupA(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return ip.String(), nil
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.WrapParseError(errors.CodeCanceled, "Lookup canceled", err).WithSource(host)
		}
		return "", errors.WrapParseError(errors.CodeResolveFailed, "DNS exchange failed", err).WithSource(host)
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", errors.NewParseError(errors.CodeResolveFailed,
			fmt.Sprintf("DNS server answered %s", rcodeName(in.Rcode))).WithSource(host)
	}

	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", errors.NewParseError(errors.CodeResolveFailed, "No A record in answer").WithSource(host)
}

func rcodeName(rcode int) string {
	if name, ok := dns.RcodeToString[rcode]; ok {
		return name
	}
	return "RCODE" + strconv.Itoa(rcode)
}

// CleanHosts right-trims each line and drops empty ones.
func CleanHosts(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if host := strings.TrimSpace(line); host != "" {
			out = append(out, host)
		}
	}
	return out
}
