// Package codegen renders the TypeScript feature registry from the accepted
// module descriptors. The output is deterministic: entries are ordered by
// name and nothing time-dependent is emitted, so unchanged inputs produce
// byte-identical registries.
package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/integreat-cms/featurereg/internal/compiler/errors"
	"github.com/integreat-cms/featurereg/internal/registry"
)

// GeneratedMarker opens the header of every generated registry
const GeneratedMarker = "@generated by featurereg. DO NOT EDIT."

// Options controls the rendered registry
type Options struct {
	// RootType is the parameter type of FeatureInit
	RootType string
	// FeatureDir is shown in the usage documentation
	FeatureDir string
	// Attribute is the markup attribute the loader reads, shown in the
	// usage documentation
	Attribute string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		RootType:   "HTMLElement",
		FeatureDir: "feature",
		Attribute:  "data-js-module",
	}
}

// Generator renders registry source
type Generator struct {
	buf     *bytes.Buffer
	indent  int
	options Options
}

// NewGenerator creates a new registry generator. Empty options fall back to
// DefaultOptions.
func NewGenerator(options Options) *Generator {
	defaults := DefaultOptions()
	if options.RootType == "" {
		options.RootType = defaults.RootType
	}
	if options.FeatureDir == "" {
		options.FeatureDir = defaults.FeatureDir
	}
	if options.Attribute == "" {
		options.Attribute = defaults.Attribute
	}
	return &Generator{
		buf:     &bytes.Buffer{},
		options: options,
	}
}

// Generate renders the registry for descriptors. The input slice is not
// modified. Duplicate names or empty fields are rejected with GEN601 since
// they would produce a registry the loader cannot use.
func (g *Generator) Generate(descriptors []registry.Descriptor) (string, error) {
	g.reset()

	entries := make([]registry.Descriptor, len(descriptors))
	copy(entries, descriptors)
	registry.SortByName(entries)

	for i, entry := range entries {
		if entry.Name == "" || entry.ImportPath == "" {
			return "", errors.NewRenderFailed("rendering",
				fmt.Errorf("descriptor for %q has an empty name or import path", entry.SourcePath))
		}
		if i > 0 && entries[i-1].Name == entry.Name {
			return "", errors.NewRenderFailed("rendering",
				fmt.Errorf("module name %q appears more than once", entry.Name))
		}
	}

	g.writeHeader()
	g.writeLine("")
	g.writeTypes()
	g.writeLine("")
	g.writeRegistry(entries)

	return g.buf.String(), nil
}

func (g *Generator) writeHeader() {
	o := g.options
	g.writeLine("/**")
	g.writeLine(" * %s", GeneratedMarker)
	g.writeLine(" *")
	g.writeLine(" * This file maps feature module names to lazy loaders. It is rebuilt from")
	g.writeLine(" * the modules under %s by running `featurereg generate`.", o.FeatureDir)
	g.writeLine(" *")
	g.writeLine(" * A feature module must:")
	g.writeLine(" *   - export a string constant `moduleName` matching /^[a-z0-9-]+$/")
	g.writeLine(" *   - define `const init = (root: %s) => { ... }`", o.RootType)
	g.writeLine(" *   - export `init` as its default export")
	g.writeLine(" *")
	g.writeLine(" * Elements opt into a module with %s=\"<moduleName>\". The loader", o.Attribute)
	g.writeLine(" * calls init once per element; unknown names are skipped.")
	g.writeLine(" */")
}

func (g *Generator) writeTypes() {
	g.writeLine("export type FeatureInit = (root: %s) => void | Promise<void>;", g.options.RootType)
	g.writeLine("")
	g.writeLine("export type FeatureModule = { default: FeatureInit };")
}

func (g *Generator) writeRegistry(entries []registry.Descriptor) {
	const decl = "export const registry: Record<string, () => Promise<FeatureModule>> = "
	if len(entries) == 0 {
		g.writeLine("%s{};", decl)
		return
	}

	g.writeLine("%s{", decl)
	g.indent++
	for _, entry := range entries {
		g.writeLine("%s: () => import(%s),", quoteTS(entry.Name), quoteTS(entry.ImportPath))
	}
	g.indent--
	g.writeLine("};")
}

// reset clears the generator state
func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
}

// writeLine writes a formatted line with proper indentation
func (g *Generator) writeLine(format string, args ...interface{}) {
	if format == "" {
		g.buf.WriteString("\n")
		return
	}

	g.buf.WriteString(strings.Repeat("\t", g.indent))
	if len(args) > 0 {
		g.buf.WriteString(fmt.Sprintf(format, args...))
	} else {
		g.buf.WriteString(format)
	}
	g.buf.WriteString("\n")
}
