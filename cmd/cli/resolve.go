package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anstrom/recnotes/internal/config"
	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/ingest"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/metrics"
	"github.com/anstrom/recnotes/internal/resolve"
)

// resolveOptions holds the resolve command's inputs.
type resolveOptions struct {
	Input  string `validate:"required"`
	MapOut string `validate:"required"`
	IPsOut string `validate:"required"`
}

var resolveOpts resolveOptions

// resolveCmd represents the resolve command.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a host list into a host,ip map",
	Long: `Look up the A record of every host in the input file and write two files: a
host,ip map for parse -m (hosts that failed to resolve keep an empty address)
and a plain list of the resolved addresses for feeding a scanner.`,
	Example: `  recnotes resolve -i scope.txt -M hosts.csv -I ips.txt
  recnotes resolve -i scope.txt -M hosts.csv -I ips.txt --server 9.9.9.9:53 --concurrency 50`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metricsFileFlag(cmd.Flags(), cfg)
		r := resolve.NewDNSResolver(cfg.Resolve.Server, cfg.Resolve.Timeout)
		logging.Debug("Using DNS server", "server", r.Server())

		return runResolve(cmd.Context(), r, resolveOpts, cfg, metrics.NewRegistry(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	f := resolveCmd.Flags()
	f.StringVarP(&resolveOpts.Input, "input", "i", "", "host list, one host per line")
	f.StringVarP(&resolveOpts.MapOut, "map", "M", "", "output host,ip map")
	f.StringVarP(&resolveOpts.IPsOut, "ips", "I", "", "output list of resolved addresses")
	f.String("server", "", "DNS server as host:port (default from /etc/resolv.conf)")
	f.Duration("timeout", 0, "per-query timeout (default 5s)")
	f.Int("concurrency", 0, "concurrent lookups (default 10)")
	f.String("metrics-file", "", "write run metrics to this Prometheus textfile")

	bindFlag(resolveCmd, "resolve.server", "server")
	bindFlag(resolveCmd, "resolve.timeout", "timeout")
	bindFlag(resolveCmd, "resolve.concurrency", "concurrency")

	for _, name := range []string{"input", "map", "ips"} {
		if err := resolveCmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to mark %s required: %v\n", name, err)
		}
	}
}

func runResolve(ctx context.Context, r resolve.Resolver, opts resolveOptions, cfg *config.Config,
	m *metrics.Registry, out io.Writer) error {
	if err := config.Struct(&opts); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	lines, err := ingest.ReadLines(opts.Input)
	if err != nil {
		return err
	}
	hostList := resolve.CleanHosts(lines)

	mappings, err := resolve.ResolveAll(ctx, r, hostList, cfg.Resolve.Concurrency)
	if err != nil {
		return errors.WrapParseError(errors.CodeCanceled, "Resolution interrupted", err)
	}

	resolved := 0
	for _, mapping := range mappings {
		result := "failed"
		if mapping.Resolved() {
			result = "ok"
			resolved++
		}
		m.Counter(metrics.ResolvedHosts, metrics.Labels{"result": result})
	}

	if err := writeOutput(opts.MapOut, func(w io.Writer) error { return resolve.WriteMap(w, mappings) }); err != nil {
		return err
	}
	if err := writeOutput(opts.IPsOut, func(w io.Writer) error { return resolve.WriteIPs(w, mappings) }); err != nil {
		return err
	}

	if path := cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(m, path); err != nil {
			logging.Warn("Failed to write metrics textfile", "path", path, "error", err)
		}
	}

	logging.Info("Resolution complete", "hosts", len(mappings), "resolved", resolved)
	fmt.Fprintf(out, "[+] Resolved %d of %d hosts\n", resolved, len(mappings))
	fmt.Fprintf(out, "    map: %s\n    ips: %s\n", opts.MapOut, opts.IPsOut)
	return nil
}

func writeOutput(path string, write func(io.Writer) error) error {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return errors.WrapNoteError(errors.CodeFileWrite, "Failed to create output file", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.WrapNoteError(errors.CodeFileWrite, "Failed to write output file", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapNoteError(errors.CodeFileWrite, "Failed to write output file", path, err)
	}
	return nil
}
