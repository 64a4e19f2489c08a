package vault

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embedded embed.FS

// Names of the note templates copied into a vault's template folder.
var TemplateFiles = []string{"Finding.md", "External-Host.md", "Internal-Host.md", "Persona.md"}

// Stock files written into every operation folder, and the extra ones an
// internal operation gets. "Op" in a file name becomes the operation name.
var (
	StockFilesAll      = []string{"Op-Findings.md", "Op-Tracker.md"}
	StockFilesInternal = []string{"Op-Canvas.canvas", "Op-DomainInfo.md"}
)

const obsidianDir = "obsidian"

// Templates returns the built-in template set.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
