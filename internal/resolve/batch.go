package resolve

import (
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anstrom/recnotes/internal/logging"
)

// Mapping pairs a host with its resolved address. IP is empty when the
// lookup failed.
type Mapping struct {
	Host string
	IP   string
}

// Resolved reports whether the lookup produced an address.
func (m Mapping) Resolved() bool {
	return m.IP != ""
}

// ResolveAll looks up every host with at most concurrency lookups in flight.
// Results keep the input order. A failed lookup is logged and yields an empty
// IP; only cancellation of ctx returns an error.
func ResolveAll(ctx context.Context, r Resolver, hosts []string, concurrency int) ([]Mapping, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Mapping, len(hosts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, host := range hosts {
		i, host := i, host
		results[i].Host = host
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			ip, err := r.LookupA(groupCtx, host)
			if err != nil {
				logging.Warn("Resolving host failed", "host", host, "error", err)
				return nil
			}
			logging.Debug("Resolved host", "host", host, "ip", ip)
			results[i].IP = ip
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// WriteMap writes one "host,ip" row per mapping, failed lookups included with
// an empty address.
func WriteMap(w io.Writer, mappings []Mapping) error {
	var b strings.Builder
	for _, m := range mappings {
		b.WriteString(m.Host)
		b.WriteByte(',')
		b.WriteString(m.IP)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteIPs writes each resolved address on its own line.
func WriteIPs(w io.Writer, mappings []Mapping) error {
	var b strings.Builder
	for _, m := range mappings {
		if m.Resolved() {
			b.WriteString(m.IP)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
