// Package templates scaffolds new feature modules that satisfy the module
// contract.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

//go:embed files/*.tmpl
var files embed.FS

var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Module describes a feature module to scaffold
type Module struct {
	// Name is the moduleName value
	Name string
	// RootType is the parameter type of init
	RootType string
	// Description becomes a leading doc comment when set
	Description string
	// Async makes init an async function
	Async bool
}

// Validate checks the module before rendering
func (m Module) Validate() error {
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("module name %q must match %s", m.Name, namePattern)
	}
	if strings.TrimSpace(m.RootType) == "" {
		return fmt.Errorf("root type is required")
	}
	if strings.Contains(m.Description, "*/") {
		return fmt.Errorf("description must not contain '*/'")
	}
	return nil
}

// Engine renders module scaffolds
type Engine struct {
	tmpl *template.Template
}

// NewEngine parses the embedded templates
func NewEngine() (*Engine, error) {
	tmpl, err := template.ParseFS(files, "files/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Engine{tmpl: tmpl}, nil
}

// Render returns the source of a new feature module
func (e *Engine) Render(m Module) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "module.ts.tmpl", m); err != nil {
		return "", fmt.Errorf("failed to render module %s: %w", m.Name, err)
	}
	return buf.String(), nil
}

// Create renders m into path, creating parent directories. An existing
// file is never overwritten.
func (e *Engine) Create(fs afero.Fs, path string, m Module) error {
	content, err := e.Render(m)
	if err != nil {
		return err
	}

	if exists, err := afero.Exists(fs, path); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("file %s already exists", path)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
