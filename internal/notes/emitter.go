package notes

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/metrics"
)

const notePerm = 0644

// Emitter writes one note per record (or per record and domain) into Dir.
type Emitter struct {
	Template    Template
	ProjectName string
	Dir         string
	FS          afero.Fs

	// Placeholder and markers fall back to the Default* constants when empty.
	Placeholder     string
	OpenPortsMarker string
	ServicesMarker  string

	Metrics metrics.MetricsRegistry
	Logger  *logging.Logger
}

// Result lists what an Emit call produced.
type Result struct {
	Written []string
	Failed  int
}

// Render returns the note body for rec. Domain-keyed records only get the
// project name; address records also get their ports and services.
func (e *Emitter) Render(rec *hosts.Record) string {
	lines := ReplaceProjectName(e.Template.Lines(), e.placeholder(), e.ProjectName)

	if rec.Class().IsIP() {
		if len(rec.Ports) > 0 {
			lines = InjectFrontmatter(lines, rec.Ports, e.openPortsMarker())
		}
		if len(rec.Services) > 0 {
			lines = InjectFrontmatter(lines, rec.Services, e.servicesMarker())
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// Emit writes every record in registry order, overwriting existing files. A
// missing destination directory aborts before anything is written; a failed
// write is logged and counted and emission continues.
func (e *Emitter) Emit(reg *hosts.Registry) (Result, error) {
	fsys := e.fs()
	log := e.logger()

	if ok, err := afero.DirExists(fsys, e.Dir); err != nil || !ok {
		return Result{}, errors.WrapNoteError(errors.CodeNotInitialized,
			"Note destination directory does not exist", e.Dir, err)
	}

	if e.Metrics != nil {
		e.Metrics.Gauge(metrics.RegistryHosts, float64(reg.Len()), nil)
	}

	var res Result
	for _, rec := range reg.Records() {
		body := []byte(e.Render(rec))
		for _, name := range FileNames(rec) {
			path := filepath.Join(e.Dir, name)
			if err := afero.WriteFile(fsys, path, body, notePerm); err != nil {
				log.ErrorEmit("Failed to write note", err, "path", path, "host", rec.Key)
				res.Failed++
				e.count(metrics.NoteErrorsTotal)
				continue
			}
			log.Debug("Wrote note", "path", path, "host", rec.Key)
			res.Written = append(res.Written, path)
			e.count(metrics.NotesWrittenTotal)
		}
	}

	log.InfoEmit("Notes written", "written", len(res.Written), "failed", res.Failed, "dir", e.Dir)
	return res, nil
}

func (e *Emitter) count(name string) {
	if e.Metrics != nil {
		e.Metrics.Counter(name, nil)
	}
}

func (e *Emitter) fs() afero.Fs {
	if e.FS == nil {
		return afero.NewOsFs()
	}
	return e.FS
}

func (e *Emitter) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Default()
	}
	return e.Logger
}

func (e *Emitter) placeholder() string {
	return orDefault(e.Placeholder, DefaultPlaceholder)
}

func (e *Emitter) openPortsMarker() string {
	return orDefault(e.OpenPortsMarker, DefaultOpenPortsMarker)
}

func (e *Emitter) servicesMarker() string {
	return orDefault(e.ServicesMarker, DefaultServicesMarker)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
