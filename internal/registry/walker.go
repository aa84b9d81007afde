package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/integreat-cms/featurereg/internal/compiler/cache"
	"github.com/integreat-cms/featurereg/internal/compiler/contract"
	"github.com/integreat-cms/featurereg/internal/compiler/errors"
)

// DefaultExtension is the source extension of feature modules
const DefaultExtension = ".ts"

// declarationSuffix marks TypeScript declaration files, which never hold a
// feature module
const declarationSuffix = ".d.ts"

// WalkerOptions configures a Walker
type WalkerOptions struct {
	// Extension selects candidate files; defaults to DefaultExtension
	Extension string
	// OutputDir is the directory of the generated registry, used to compute
	// import paths
	OutputDir string
	// Cache, when set, reuses per-file analyses across walks
	Cache *cache.AnalysisCache
	// Logger receives per-file debug output; defaults to a no-op logger
	Logger *zap.Logger
}

// Rejection is a candidate file excluded from the registry
type Rejection struct {
	Path   string           `json:"path" yaml:"path"`
	Errors errors.ErrorList `json:"errors" yaml:"errors"`
}

// WalkResult is the outcome of one walk
type WalkResult struct {
	// Accepted descriptors, sorted by module name
	Accepted []Descriptor
	// Rejected files in walk order
	Rejected []Rejection
	// Visited lists every candidate file in walk order
	Visited []string
}

// Walker enumerates feature modules under a root directory
type Walker struct {
	fs        afero.Fs
	validator *contract.Validator
	hasher    *cache.FileHasher
	options   WalkerOptions
}

// NewWalker creates a walker reading from fs
func NewWalker(fs afero.Fs, validator *contract.Validator, options WalkerOptions) *Walker {
	if options.Extension == "" {
		options.Extension = DefaultExtension
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &Walker{
		fs:        fs,
		validator: validator,
		hasher:    cache.NewFileHasher(fs),
		options:   options,
	}
}

// Walk validates every candidate file under root. Entries of each directory
// are visited in lexicographic order, so the first path declaring a name
// claims it and later ones are rejected as duplicates. Accepted names are
// recorded in claims. A read failure aborts the walk with an IO501 error.
func (w *Walker) Walk(root string, claims *Claims) (*WalkResult, error) {
	result := &WalkResult{}
	if err := w.walkDir(root, claims, result); err != nil {
		return nil, err
	}

	if w.options.Cache != nil {
		keep := make(map[string]bool, len(result.Visited))
		for _, path := range result.Visited {
			keep[path] = true
		}
		w.options.Cache.Retain(keep)
	}

	SortByName(result.Accepted)
	return result, nil
}

func (w *Walker) walkDir(dir string, claims *Claims, result *WalkResult) error {
	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return errors.NewReadFailed(dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := w.walkDir(path, claims, result); err != nil {
				return err
			}
			continue
		}
		if !w.isCandidate(entry.Name()) {
			continue
		}

		result.Visited = append(result.Visited, path)
		if err := w.visitFile(path, claims, result); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) visitFile(path string, claims *Claims, result *WalkResult) error {
	content, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return errors.NewReadFailed(path, err)
	}
	source := string(content)

	outcome := w.validator.Finish(path, source, w.analyze(path, content), claims)
	if !outcome.Valid() {
		w.options.Logger.Debug("module rejected",
			zap.String("path", path),
			zap.Strings("codes", codeStrings(outcome.Errors)))
		result.Rejected = append(result.Rejected, Rejection{Path: path, Errors: outcome.Errors})
		return nil
	}

	importPath, err := ImportPath(w.options.OutputDir, path, w.options.Extension)
	if err != nil {
		return errors.NewReadFailed(path, err)
	}

	if err := claims.Claim(outcome.Name, path); err != nil {
		return fmt.Errorf("accepting %s: %w", path, err)
	}
	result.Accepted = append(result.Accepted, Descriptor{
		Name:       outcome.Name,
		SourcePath: path,
		ImportPath: importPath,
	})
	w.options.Logger.Debug("module accepted",
		zap.String("path", path),
		zap.String("name", outcome.Name))
	return nil
}

// analyze returns the per-file analysis (name, init signature and default
// export checks), from the cache when the content is unchanged
func (w *Walker) analyze(path string, content []byte) *contract.Analysis {
	if w.options.Cache == nil {
		return w.validator.Analyze(string(content))
	}

	hash := w.hasher.HashContent(content)
	if analysis, ok := w.options.Cache.Get(path, hash); ok {
		return analysis
	}
	analysis := w.validator.Analyze(string(content))
	w.options.Cache.Set(path, hash, analysis)
	return analysis
}

func (w *Walker) isCandidate(name string) bool {
	return strings.HasSuffix(name, w.options.Extension) && !strings.HasSuffix(name, declarationSuffix)
}

func codeStrings(list errors.ErrorList) []string {
	codes := list.Codes()
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = string(code)
	}
	return out
}
