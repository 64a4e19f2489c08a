// Package notes renders host records into Markdown notes: it loads the host
// template, substitutes the operation name, injects ports and services into
// the YAML frontmatter and derives each note's file name.
package notes

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/anstrom/recnotes/internal/errors"
)

// Defaults for the tokens the stock templates carry.
const (
	DefaultPlaceholder     = "OpName"
	DefaultOpenPortsMarker = "openPorts"
	DefaultServicesMarker  = "services"
)

// HostType selects which host template an operation uses.
type HostType string

const (
	HostInternal HostType = "internal"
	HostExternal HostType = "external"
)

// ParseHostType accepts "internal" or "external" in any case.
func ParseHostType(s string) (HostType, error) {
	switch HostType(strings.ToLower(s)) {
	case HostInternal:
		return HostInternal, nil
	case HostExternal:
		return HostExternal, nil
	default:
		return "", errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("unknown host type %q, expected internal or external", s), "type", s)
	}
}

// TemplateName returns the template file used for this host type.
func (h HostType) TemplateName() string {
	if h == HostInternal {
		return "Internal-Host.md"
	}
	return "External-Host.md"
}

// Template is an immutable sequence of template lines. Every render starts
// from a copy, so one host's substitutions never leak into the next.
type Template struct {
	name  string
	lines []string
}

// NewTemplate splits text into a template.
func NewTemplate(name, text string) Template {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return Template{name: name, lines: strings.Split(text, "\n")}
}

// LoadTemplate reads name from fsys. A missing or unreadable template is a
// CodeTemplateNotFound error.
func LoadTemplate(fsys fs.FS, name string) (Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Template{}, errors.ErrTemplateNotFound(name, err)
	}
	return NewTemplate(name, string(data)), nil
}

// Name returns the template's file name.
func (t Template) Name() string {
	return t.name
}

// Lines returns a fresh copy of the template lines.
func (t Template) Lines() []string {
	return append([]string(nil), t.lines...)
}

// ReplaceProjectName returns a copy of lines with every placeholder token
// replaced by name.
func ReplaceProjectName(lines []string, placeholder, name string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.ReplaceAll(line, placeholder, name)
	}
	return out
}

// InjectFrontmatter returns a copy of lines with items inserted as quoted
// YAML sequence entries right after the first line containing marker. When
// no line contains marker the copy is unchanged.
func InjectFrontmatter(lines, items []string, marker string) []string {
	at := -1
	for i, line := range lines {
		if strings.Contains(line, marker) {
			at = i + 1
			break
		}
	}
	if at < 0 || len(items) == 0 {
		return append([]string(nil), lines...)
	}

	out := make([]string, 0, len(lines)+len(items))
	out = append(out, lines[:at]...)
	for _, item := range items {
		out = append(out, `  - "`+item+`"`)
	}
	return append(out, lines[at:]...)
}
