package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/anstrom/recnotes/internal/config"
	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
	"github.com/anstrom/recnotes/internal/ingest"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/metrics"
	"github.com/anstrom/recnotes/internal/notes"
	"github.com/anstrom/recnotes/internal/vault"
)

// Answers to the host list and scan conflict.
const (
	conflictBoth  = "both"
	conflictScan  = "scan"
	conflictAbort = "abort"
)

// parseOptions holds the parse command's inputs.
type parseOptions struct {
	Folder     string `validate:"required"`
	Name       string `validate:"required"`
	Type       string `validate:"oneof=internal external"`
	HostList   string
	Gnmap      string
	NmapXML    string
	HostMap    string
	Summary    bool
	OnConflict string `validate:"omitempty,oneof=both scan abort"`
}

func (o *parseOptions) hasSource() bool {
	return o.HostList != "" || o.Gnmap != "" || o.NmapXML != "" || o.HostMap != ""
}

func (o *parseOptions) hasScan() bool {
	return o.Gnmap != "" || o.NmapXML != ""
}

var parseOpts parseOptions

// parseCmd represents the parse command.
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Create host notes from host lists and scan output",
	Long: `Parse a host list, nmap grepable (-oG) or XML (-oX) output and a host,ip map
into one note per host in the operation's Content folder. The operation folder
must have been created with init.

Sources are ingested in a fixed order: host list, grepable scan, XML scan, host
map. When a scan was ingested the map only adds domain names to scanned
addresses; without a scan every mapped address gets a note.`,
	Example: `  recnotes parse -f ~/notes/AssessmentNotes/Bluebird -n Bluebird -t external -g scan.gnmap -m hosts.csv
  recnotes parse -f ./Redwood -n Redwood -t internal -x scan.xml --summary
  recnotes parse -f ./Bluebird -n Bluebird -t external -l scope.txt`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metricsFileFlag(cmd.Flags(), cfg)

		p := &parser{
			fs:      afero.NewOsFs(),
			in:      cmd.InOrStdin(),
			out:     cmd.OutOrStdout(),
			cfg:     cfg,
			metrics: metrics.NewRegistry(),
			logger:  logging.Default(),
		}
		_, err = p.run(parseOpts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	f := parseCmd.Flags()
	f.StringVarP(&parseOpts.Folder, "folder", "f", "", "initialized operation folder")
	f.StringVarP(&parseOpts.Name, "name", "n", "", "operation codename")
	f.StringVarP(&parseOpts.Type, "type", "t", "", "operation type: internal or external")
	f.StringVarP(&parseOpts.HostList, "host-list", "l", "", "host list, one host per line")
	f.StringVarP(&parseOpts.Gnmap, "gnmap", "g", "", "nmap grepable output")
	f.StringVarP(&parseOpts.NmapXML, "xml", "x", "", "nmap XML output")
	f.StringVarP(&parseOpts.HostMap, "host-map", "m", "", "host,ip map, one pair per line")
	f.BoolVar(&parseOpts.Summary, "summary", false, "print the ingested hosts as a table")
	f.StringVar(&parseOpts.OnConflict, "on-conflict", "",
		"with both -l and a scan: both, scan or abort (asks when empty)")
	f.String("templates", "", "directory with Internal-Host.md and External-Host.md overrides")
	f.String("metrics-file", "", "write run metrics to this Prometheus textfile")

	bindFlag(parseCmd, "notes.template_dir", "templates")

	for _, name := range []string{"folder", "name", "type"} {
		if err := parseCmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to mark %s required: %v\n", name, err)
		}
	}
}

// parser runs one parse invocation.
type parser struct {
	fs      afero.Fs
	in      io.Reader
	out     io.Writer
	cfg     *config.Config
	metrics *metrics.Registry
	logger  *logging.Logger
}

func (p *parser) run(opts parseOptions) (*hosts.Registry, error) {
	opts.Type = strings.ToLower(strings.TrimSpace(opts.Type))
	if err := config.Struct(&opts); err != nil {
		return nil, err
	}
	hostType, err := notes.ParseHostType(opts.Type)
	if err != nil {
		return nil, err
	}

	if !vault.IsInitialized(p.fs, opts.Folder) {
		return nil, errors.NewNoteError(errors.CodeNotInitialized,
			"The folder does not appear to be initialized, run init first", opts.Folder)
	}
	if !opts.hasSource() {
		return nil, errors.NewConfigError(errors.CodeValidation,
			"supply at least one of -l/--host-list, -g/--gnmap, -x/--xml or -m/--host-map")
	}

	if err := p.resolveSourceConflicts(&opts); err != nil {
		return nil, err
	}

	reg := hosts.NewRegistry()
	if err := p.ingest(reg, &opts); err != nil {
		return reg, err
	}

	tmpl, err := p.loadTemplate(hostType)
	if err != nil {
		return reg, err
	}

	emitter := &notes.Emitter{
		Template:        tmpl,
		ProjectName:     opts.Name,
		Dir:             filepath.Join(opts.Folder, vault.ContentFolder),
		FS:              p.fs,
		Placeholder:     p.cfg.Notes.ProjectPlaceholder,
		OpenPortsMarker: p.cfg.Notes.OpenPortsMarker,
		ServicesMarker:  p.cfg.Notes.ServicesMarker,
		Metrics:         p.metrics,
		Logger:          p.logger,
	}
	res, err := emitter.Emit(reg)
	if err != nil {
		return reg, err
	}

	if opts.Summary {
		if err := writeSummary(p.out, reg); err != nil {
			p.logger.Warn("Failed to render summary", "error", err)
		}
	}
	if path := p.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(p.metrics, path); err != nil {
			p.logger.Warn("Failed to write metrics textfile", "path", path, "error", err)
		}
	}

	fmt.Fprintf(p.out, "[+] Wrote %d notes to %s", len(res.Written), emitter.Dir)
	if res.Failed > 0 {
		fmt.Fprintf(p.out, " (%d failed)", res.Failed)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "[+] If the vault is already open, DataView tables may need the vault re-opened.")
	return reg, nil
}

// resolveSourceConflicts drops sources that would produce duplicate notes: a
// host map supersedes a host list, and a host list next to a scan is decided
// by --on-conflict or by asking.
func (p *parser) resolveSourceConflicts(opts *parseOptions) error {
	if opts.HostList != "" && opts.HostMap != "" {
		fmt.Fprintln(p.out, "[*] Both a host list and a host map were supplied, using the host map.")
		opts.HostList = ""
	}
	if opts.HostList == "" || !opts.hasScan() {
		return nil
	}

	choice := opts.OnConflict
	if choice == "" {
		fmt.Fprint(p.out, "[!] Both a host list and scan output were supplied. Notes can be created for "+
			"(a) both, which may duplicate hosts; (b) the scan only, plus the map if supplied; or "+
			"(c) nothing, so the list can be merged into a host,ip map first. (a/b/c): ")
		switch strings.ToLower(readAnswer(p.in)) {
		case "b":
			choice = conflictScan
		case "c":
			choice = conflictAbort
		default:
			choice = conflictBoth
		}
	}

	switch choice {
	case conflictScan:
		opts.HostList = ""
	case conflictAbort:
		fmt.Fprintln(p.out, "Exiting.")
		return errAborted
	}
	return nil
}

// ingest runs each supplied source in order. A source that cannot be read
// is logged and skipped; a fatal error such as a malformed scan aborts the
// run.
func (p *parser) ingest(reg *hosts.Registry, opts *parseOptions) error {
	if opts.HostList != "" {
		lines, err := ingest.ReadLines(opts.HostList)
		if err != nil {
			if err := p.skipSource(ingest.SourceHostList, err); err != nil {
				return err
			}
		} else {
			p.record(ingest.SourceHostList, ingest.HostList(reg, lines))
		}
	}

	scanIngested := false
	if opts.Gnmap != "" {
		lines, err := ingest.ReadLines(opts.Gnmap)
		if err != nil {
			if err := p.skipSource(ingest.SourceGnmap, err); err != nil {
				return err
			}
		} else {
			stats, err := ingest.Gnmap(reg, lines)
			p.record(ingest.SourceGnmap, stats)
			if err != nil {
				return withSource(err, opts.Gnmap)
			}
			scanIngested = true
		}
	}

	if opts.NmapXML != "" {
		data, err := os.ReadFile(opts.NmapXML)
		if err != nil {
			if err := p.skipSource(ingest.SourceNmapXML, readError(opts.NmapXML, err)); err != nil {
				return err
			}
		} else {
			stats, err := ingest.NmapXML(reg, data)
			p.record(ingest.SourceNmapXML, stats)
			if err != nil {
				return withSource(err, opts.NmapXML)
			}
			scanIngested = true
		}
	}

	if opts.HostMap != "" {
		lines, err := ingest.ReadLines(opts.HostMap)
		if err != nil {
			if err := p.skipSource(ingest.SourceHostMap, err); err != nil {
				return err
			}
		} else {
			p.record(ingest.SourceHostMap, ingest.HostMap(reg, lines, scanIngested))
		}
	}

	p.logger.Info("Ingestion complete", "hosts", reg.Len(), "scan_ingested", scanIngested)
	return nil
}

// skipSource returns err when it is fatal. Otherwise the source is logged and
// skipped and nil is returned.
func (p *parser) skipSource(source string, err error) error {
	if errors.IsFatal(err) {
		return err
	}
	p.logger.ErrorIngest("Input file could not be read, skipping", source, err)
	return nil
}

func (p *parser) record(source string, stats ingest.Stats) {
	p.logger.InfoIngest("Source ingested", source, "processed", stats.Processed, "skipped", stats.Skipped)
	p.metrics.Add(metrics.IngestLinesTotal, float64(stats.Processed),
		metrics.Labels{"source": source, "result": "processed"})
	p.metrics.Add(metrics.IngestLinesTotal, float64(stats.Skipped),
		metrics.Labels{"source": source, "result": "skipped"})
}

// loadTemplate reads the host template from the configured override
// directory, or from the built-in set.
func (p *parser) loadTemplate(hostType notes.HostType) (notes.Template, error) {
	var fsys fs.FS = vault.Templates()
	if dir := p.cfg.Notes.TemplateDir; dir != "" {
		fsys = os.DirFS(dir)
	}
	return notes.LoadTemplate(fsys, hostType.TemplateName())
}

func readError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.ErrFileNotFound(path, err)
	}
	return errors.ErrFileUnreadable(path, err)
}

func withSource(err error, path string) error {
	var perr *errors.ParseError
	if errors.As(err, &perr) && perr.Source == "" {
		perr.Source = path
	}
	return err
}

// writeSummary prints the registry as a table.
func writeSummary(w io.Writer, reg *hosts.Registry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Host", "Reverse DNS", "Domains", "Ports", "Services")

	for _, rec := range reg.Records() {
		if err := table.Append([]string{
			rec.Key,
			rec.ReverseDNS,
			strings.Join(rec.Domains, ", "),
			strings.Join(rec.Ports, ", "),
			strings.Join(rec.Services, ", "),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
