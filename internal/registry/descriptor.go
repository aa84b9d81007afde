// Package registry discovers feature modules on disk. It walks the feature
// directory in a deterministic order, validates every candidate file and
// collects descriptors for the modules that satisfy the author contract.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Descriptor describes one accepted feature module
type Descriptor struct {
	// Name is the declared module name
	Name string `json:"name" yaml:"name"`
	// SourcePath is the location of the defining file
	SourcePath string `json:"source_path" yaml:"source_path"`
	// ImportPath is the specifier used by the registry to load the module
	ImportPath string `json:"import_path" yaml:"import_path"`
}

// SortByName orders descriptors by module name
func SortByName(descriptors []Descriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
}

// ImportPath computes the import specifier for sourcePath as seen from the
// registry directory outputDir: relative, with ext stripped, forward slashes
// and a "./" prefix unless the path climbs out of outputDir.
func ImportPath(outputDir, sourcePath, ext string) (string, error) {
	if !strings.HasSuffix(sourcePath, ext) {
		return "", fmt.Errorf("%s does not have extension %s", sourcePath, ext)
	}

	rel, err := filepath.Rel(outputDir, strings.TrimSuffix(sourcePath, ext))
	if err != nil {
		return "", fmt.Errorf("relative path from %s to %s: %w", outputDir, sourcePath, err)
	}

	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}

// ResolveImport is the inverse of ImportPath: it resolves an import
// specifier from outputDir and appends ext.
func ResolveImport(outputDir, importPath, ext string) string {
	return filepath.Join(outputDir, filepath.FromSlash(importPath)) + ext
}
