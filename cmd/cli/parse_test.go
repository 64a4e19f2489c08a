package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/recnotes/internal/config"
	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/metrics"
	"github.com/anstrom/recnotes/internal/notes"
	"github.com/anstrom/recnotes/internal/vault"
)

const testGnmap = `# Nmap 7.94 scan initiated as: nmap -oG scan.gnmap 10.0.0.0/29
Host: 10.0.0.5 (host5.local)	Status: Up
Host: 10.0.0.5 (host5.local)	Ports: 80/open/tcp//http///, 443/open/tcp//https///
Host: 10.0.0.6 ()	Ports: 22/open/tcp//ssh///, 25/closed/tcp//smtp///
# Nmap done at Mon Jan  1 00:00:00 2024 -- 8 IP addresses (2 hosts up) scanned
`

type parseFixture struct {
	dir    string
	opDir  string
	parser *parser
	out    *bytes.Buffer
	stdin  *strings.Reader
}

func newParseFixture(t *testing.T, stdin string) *parseFixture {
	t.Helper()
	dir := t.TempDir()

	in := &vault.Initializer{
		FS:     afero.NewOsFs(),
		Assets: vault.Templates(),
		Logger: logging.NewWithWriter(logging.DefaultConfig(), io.Discard),
	}
	res, err := in.Init(vault.Options{Folder: dir, OpName: "Bluebird", HostType: notes.HostExternal})
	require.NoError(t, err)

	f := &parseFixture{dir: dir, opDir: res.Layout.OpPath, out: &bytes.Buffer{}, stdin: strings.NewReader(stdin)}
	f.parser = &parser{
		fs:      afero.NewOsFs(),
		in:      f.stdin,
		out:     f.out,
		cfg:     config.Default(),
		metrics: metrics.NewRegistry(),
		logger:  logging.NewWithWriter(logging.DefaultConfig(), io.Discard),
	}
	return f
}

func (f *parseFixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *parseFixture) opts() parseOptions {
	return parseOptions{Folder: f.opDir, Name: "Bluebird", Type: "external"}
}

func (f *parseFixture) note(name string) string {
	return filepath.Join(f.opDir, vault.ContentFolder, name)
}

func TestParseEndToEnd(t *testing.T) {
	f := newParseFixture(t, "")
	opts := f.opts()
	opts.Gnmap = f.write(t, "scan.gnmap", testGnmap)
	opts.HostMap = f.write(t, "hosts.csv", "domain,ip\na.example.com,10.0.0.5\nb.example.com,10.0.0.99\n")
	opts.Summary = true
	f.parser.cfg.Metrics.Textfile = filepath.Join(f.dir, "recnotes.prom")

	reg, err := f.parser.run(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	data, err := os.ReadFile(f.note("a.example.com - (10.0.0.5) host5.local.md"))
	require.NoError(t, err)
	note := string(data)
	assert.Contains(t, note, "op: Bluebird")
	assert.Contains(t, note, "openPorts:\n  - \"80\"\n  - \"443\"\n")
	assert.Contains(t, note, "services:\n  - \"http\"\n  - \"https\"\n")

	assert.FileExists(t, f.note("10.0.0.6 ().md"))
	assert.NoFileExists(t, f.note("b.example.com - (10.0.0.99).md"))

	assert.Contains(t, f.out.String(), "Wrote 2 notes")
	assert.Contains(t, f.out.String(), "a.example.com")

	prom, err := os.ReadFile(filepath.Join(f.dir, "recnotes.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "recnotes_notes_written_total 2")
	assert.Contains(t, string(prom), `recnotes_ingest_lines_total{result="processed",source="gnmap"} 2`)
}

func TestParseHostListOnly(t *testing.T) {
	f := newParseFixture(t, "")
	opts := f.opts()
	opts.HostList = f.write(t, "scope.txt", "https://App.example.com/login\napi.example.com\n")

	_, err := f.parser.run(opts)
	require.NoError(t, err)
	assert.FileExists(t, f.note("app.example.com.md"))
	assert.FileExists(t, f.note("api.example.com.md"))
}

func TestParseMapWithoutScan(t *testing.T) {
	f := newParseFixture(t, "")
	opts := f.opts()
	opts.Gnmap = filepath.Join(f.dir, "missing.gnmap")
	opts.HostMap = f.write(t, "hosts.csv", "a.example.com,10.0.0.5\n")

	reg, err := f.parser.run(opts)
	require.NoError(t, err, "a missing source only skips its phase")
	assert.Equal(t, 1, reg.Len())
	assert.FileExists(t, f.note("a.example.com - (10.0.0.5).md"))
}

func TestParseSourceConflicts(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		onConflict string
		wantErr    error
		wantList   bool
	}{
		{name: "prompt both", stdin: "a\n", wantList: true},
		{name: "prompt default is both", stdin: "\n", wantList: true},
		{name: "prompt scan only", stdin: "b\n"},
		{name: "prompt abort", stdin: "C\n", wantErr: errAborted},
		{name: "flag scan only", onConflict: conflictScan},
		{name: "flag both", onConflict: conflictBoth, wantList: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newParseFixture(t, tt.stdin)
			opts := f.opts()
			opts.HostList = f.write(t, "scope.txt", "scope.example.com\n")
			opts.Gnmap = f.write(t, "scan.gnmap", testGnmap)
			opts.OnConflict = tt.onConflict

			_, err := f.parser.run(opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			_, statErr := os.Stat(f.note("scope.example.com.md"))
			assert.Equal(t, tt.wantList, statErr == nil)
			assert.FileExists(t, f.note("10.0.0.5 host5.local.md"))
		})
	}
}

func TestParseListAndMapPrefersMap(t *testing.T) {
	f := newParseFixture(t, "")
	opts := f.opts()
	opts.HostList = f.write(t, "scope.txt", "scope.example.com\n")
	opts.HostMap = f.write(t, "hosts.csv", "a.example.com,10.0.0.5\n")

	_, err := f.parser.run(opts)
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "using the host map")
	assert.NoFileExists(t, f.note("scope.example.com.md"))
}

func TestParseErrors(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		f := newParseFixture(t, "")
		opts := f.opts()
		opts.Folder = f.dir
		opts.HostList = f.write(t, "scope.txt", "a.com\n")

		_, err := f.parser.run(opts)
		assert.True(t, errors.IsCode(err, errors.CodeNotInitialized))
	})

	t.Run("no source", func(t *testing.T) {
		f := newParseFixture(t, "")
		_, err := f.parser.run(f.opts())
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
	})

	t.Run("bad type", func(t *testing.T) {
		f := newParseFixture(t, "")
		opts := f.opts()
		opts.Type = "dmz"
		_, err := f.parser.run(opts)
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
	})

	t.Run("malformed port descriptor", func(t *testing.T) {
		f := newParseFixture(t, "")
		opts := f.opts()
		opts.Gnmap = f.write(t, "bad.gnmap", "Host: 10.0.0.5 ()\tPorts: 80/open/tcp//http//\n")

		_, err := f.parser.run(opts)
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
		assert.Contains(t, err.Error(), "bad.gnmap")
		assert.NoFileExists(t, f.note("10.0.0.5 ().md"))
	})

	t.Run("missing template", func(t *testing.T) {
		f := newParseFixture(t, "")
		f.parser.cfg.Notes.TemplateDir = t.TempDir()
		opts := f.opts()
		opts.HostList = f.write(t, "scope.txt", "a.com\n")

		_, err := f.parser.run(opts)
		assert.True(t, errors.IsCode(err, errors.CodeTemplateNotFound))
	})
}

func TestParseTemplateOverride(t *testing.T) {
	f := newParseFixture(t, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "External-Host.md"),
		[]byte("custom OpName\nopenPorts:\n"), 0644))
	f.parser.cfg.Notes.TemplateDir = dir

	opts := f.opts()
	opts.Gnmap = f.write(t, "scan.gnmap", testGnmap)

	_, err := f.parser.run(opts)
	require.NoError(t, err)

	data, err := os.ReadFile(f.note("10.0.0.6 ().md"))
	require.NoError(t, err)
	assert.Equal(t, "custom Bluebird\nopenPorts:\n  - \"22\"\n", string(data))
}

func TestParseTypeIgnoresCase(t *testing.T) {
	for _, typ := range []string{"External", "EXTERNAL", " external "} {
		t.Run(typ, func(t *testing.T) {
			f := newParseFixture(t, "")
			opts := f.opts()
			opts.Type = typ
			opts.HostList = f.write(t, "scope.txt", "a.example.com\n")

			_, err := f.parser.run(opts)
			require.NoError(t, err)
			assert.FileExists(t, f.note("a.example.com.md"))
		})
	}
}

func TestParseSkipSource(t *testing.T) {
	f := newParseFixture(t, "")

	missing := errors.ErrFileNotFound("scope.txt", os.ErrNotExist)
	assert.NoError(t, f.parser.skipSource("host-list", missing))

	unreadable := errors.ErrFileUnreadable("scope.txt", os.ErrPermission)
	assert.NoError(t, f.parser.skipSource("host-list", unreadable))

	malformed := errors.ErrPortDescriptor(2, "80/open", 2)
	assert.Same(t, malformed, f.parser.skipSource("gnmap", malformed))
}
