// Package vault scaffolds Obsidian vaults and operation folders: the folder
// layout, the stock notes and the template copies that parse later relies on.
package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/logging"
	"github.com/anstrom/recnotes/internal/notes"
)

// Folder names inside a vault or operation.
const (
	ReusableVaultName = "AssessmentNotes"
	TemplatesFolder   = "01-Templates"
	ContentFolder     = "Content"
	ImagesFolder      = "Images"
	ObsidianFolder    = ".obsidian"
	PatientZeroNote   = "Patient-Zero.md"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Layout holds the resolved paths for an init run.
type Layout struct {
	VaultPath    string
	OpPath       string
	TemplatePath string
}

// NewLayout resolves where the vault and operation live. A reusable new vault
// is named AssessmentNotes and holds one folder per operation; a single-use
// new vault is the operation folder itself; otherwise the operation is added
// as a folder inside an existing vault at folder.
func NewLayout(folder, opName string, newVault, reusable bool) Layout {
	var l Layout
	switch {
	case newVault && reusable:
		l.VaultPath = filepath.Join(folder, ReusableVaultName)
		l.OpPath = filepath.Join(l.VaultPath, opName)
	case newVault:
		l.VaultPath = filepath.Join(folder, opName)
		l.OpPath = l.VaultPath
	default:
		l.VaultPath = folder
		l.OpPath = filepath.Join(folder, opName)
	}
	l.TemplatePath = filepath.Join(l.VaultPath, TemplatesFolder)
	return l
}

// ContentPath is where parse writes host notes.
func (l Layout) ContentPath() string {
	return filepath.Join(l.OpPath, ContentFolder)
}

// Options configures Init.
type Options struct {
	Folder           string         `validate:"required"`
	OpName           string         `validate:"required,excludesall=/"`
	HostType         notes.HostType `validate:"oneof=internal external"`
	NewVault         bool
	Reusable         bool
	IncludeTemplates bool

	// Placeholder defaults to notes.DefaultPlaceholder.
	Placeholder string
}

// Result describes what Init created.
type Result struct {
	Layout  Layout
	Written []string
}

// Initializer creates vault scaffolding on a file system.
type Initializer struct {
	FS     afero.Fs
	Assets fs.FS
	Logger *logging.Logger
}

// NewInitializer returns an Initializer over the OS file system and the
// built-in templates.
func NewInitializer() *Initializer {
	return &Initializer{
		FS:     afero.NewOsFs(),
		Assets: Templates(),
		Logger: logging.Default().WithComponent("vault"),
	}
}

// OpExists reports whether the operation folder for opts is already present.
func (in *Initializer) OpExists(opts Options) bool {
	l := NewLayout(opts.Folder, opts.OpName, opts.NewVault, opts.Reusable)
	ok, _ := afero.Exists(in.FS, l.OpPath)
	return ok
}

// Init creates the vault or operation folder, its Content and Images
// folders, and the stock notes. Existing files are overwritten; an existing
// .obsidian folder is left alone.
func (in *Initializer) Init(opts Options) (*Result, error) {
	l := NewLayout(opts.Folder, opts.OpName, opts.NewVault, opts.Reusable)
	res := &Result{Layout: l}

	if opts.NewVault {
		if err := in.FS.MkdirAll(l.OpPath, dirPerm); err != nil {
			return nil, errors.WrapNoteError(errors.CodeDirectoryCreate, "Failed to create vault", l.OpPath, err)
		}
		if err := in.mkdir(l.TemplatePath); err != nil {
			return nil, err
		}
		in.copyTemplates(l.TemplatePath, res)
		in.copyObsidian(l.VaultPath, res)
	} else {
		if err := in.mkdirIn(l.OpPath); err != nil {
			return nil, err
		}
		if opts.IncludeTemplates {
			dir := filepath.Join(l.OpPath, TemplatesFolder)
			if err := in.mkdir(dir); err != nil {
				in.Logger.Warn("Copy the templates into the vault manually", "error", err)
			} else {
				in.copyTemplates(dir, res)
			}
		}
	}

	for _, dir := range []string{l.ContentPath(), filepath.Join(l.OpPath, ImagesFolder)} {
		if err := in.mkdir(dir); err != nil {
			return nil, err
		}
	}

	if err := in.writeStockFiles(l, opts, res); err != nil {
		return nil, err
	}
	return res, nil
}

// mkdir creates dir, succeeding when it already exists.
func (in *Initializer) mkdir(dir string) error {
	if err := in.FS.MkdirAll(dir, dirPerm); err != nil {
		return errors.WrapNoteError(errors.CodeDirectoryCreate, "Failed to create folder", dir, err)
	}
	return nil
}

// mkdirIn creates dir inside a parent that must already exist.
func (in *Initializer) mkdirIn(dir string) error {
	if ok, _ := afero.DirExists(in.FS, filepath.Dir(dir)); !ok {
		return errors.WrapNoteError(errors.CodeDirectoryCreate,
			"Vault folder does not exist", filepath.Dir(dir), os.ErrNotExist)
	}
	return in.mkdir(dir)
}

func (in *Initializer) copyTemplates(dir string, res *Result) {
	for _, name := range TemplateFiles {
		data, err := fs.ReadFile(in.Assets, name)
		if err != nil {
			in.Logger.Error("Failed to read template", "template", name, "error", err)
			continue
		}
		in.write(filepath.Join(dir, name), data, res)
	}
}

func (in *Initializer) copyObsidian(vaultPath string, res *Result) {
	dest := filepath.Join(vaultPath, ObsidianFolder)
	if ok, _ := afero.Exists(in.FS, dest); ok {
		in.Logger.Warn("The .obsidian folder already exists in this vault, skipping. "+
			"Settings such as the template folder location may be missing.", "path", dest)
		return
	}

	err := fs.WalkDir(in.Assets, obsidianDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(p, obsidianDir)))
		if d.IsDir() {
			return in.FS.MkdirAll(target, dirPerm)
		}
		data, err := fs.ReadFile(in.Assets, p)
		if err != nil {
			return err
		}
		in.write(target, data, res)
		return nil
	})
	if err != nil {
		in.Logger.Error("Failed to copy obsidian settings", "path", dest, "error", err)
	}
}

func (in *Initializer) writeStockFiles(l Layout, opts Options, res *Result) error {
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = notes.DefaultPlaceholder
	}

	files := append([]string(nil), StockFilesAll...)
	if opts.HostType == notes.HostInternal {
		files = append(files, StockFilesInternal...)
	}

	for _, name := range files {
		tmpl, err := notes.LoadTemplate(in.Assets, name)
		if err != nil {
			in.Logger.Error("Failed to load stock file", "file", name, "error", err)
			continue
		}
		body := notes.ReplaceProjectName(tmpl.Lines(), placeholder, opts.OpName)
		target := filepath.Join(l.OpPath, strings.ReplaceAll(name, "Op", opts.OpName))
		in.write(target, []byte(strings.Join(body, "\n")+"\n"), res)
	}

	if opts.HostType != notes.HostInternal {
		return nil
	}

	// Patient zero: the first host reached, by witting click or initial access.
	tmpl, err := notes.LoadTemplate(in.Assets, notes.HostInternal.TemplateName())
	if err != nil {
		return err
	}
	body := notes.ReplaceProjectName(tmpl.Lines(), placeholder, opts.OpName)
	in.write(filepath.Join(l.ContentPath(), PatientZeroNote), []byte(strings.Join(body, "\n")+"\n"), res)
	return nil
}

func (in *Initializer) write(target string, data []byte, res *Result) {
	if err := afero.WriteFile(in.FS, target, data, filePerm); err != nil {
		in.Logger.Error("Failed to write file", "path", target, "error", err)
		return
	}
	res.Written = append(res.Written, target)
}

// IsInitialized reports whether path looks like an initialized operation
// folder: it holds an entry whose name contains "tracker" and one whose name
// contains "content", compared case-insensitively.
func IsInitialized(fsys afero.Fs, dir string) bool {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return false
	}

	var tracker, content bool
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if strings.Contains(name, "tracker") {
			tracker = true
		}
		if strings.Contains(name, "content") {
			content = true
		}
	}
	return tracker && content
}
