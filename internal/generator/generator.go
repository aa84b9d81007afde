// Package generator runs one registry generation: it walks the feature
// directory, renders and formats the registry and replaces the file on disk.
// Invalid modules are reported but never fail a run; read, render, format and
// write failures do, and leave the previous registry untouched.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/integreat-cms/featurereg/internal/compiler/cache"
	"github.com/integreat-cms/featurereg/internal/compiler/codegen"
	"github.com/integreat-cms/featurereg/internal/compiler/contract"
	"github.com/integreat-cms/featurereg/internal/compiler/errors"
	"github.com/integreat-cms/featurereg/internal/format"
	"github.com/integreat-cms/featurereg/internal/registry"
)

// Options configures generation runs
type Options struct {
	// Fs is the filesystem to read modules from and write the registry to
	Fs afero.Fs
	// FeatureDir is the root of the feature modules
	FeatureDir string
	// OutputPath is the registry file
	OutputPath string
	// Extension of feature module sources
	Extension string
	// RootType is the parameter type init must declare
	RootType string
	// Attribute is the markup attribute documented in the registry header
	Attribute string
	// Format configures the formatter
	Format *format.Config
	// Check renders without writing and only reports staleness
	Check bool
	// Cache reuses per-file analyses across runs (watch mode)
	Cache *cache.AnalysisCache
	// Logger defaults to a no-op logger
	Logger *zap.Logger
}

// Report summarizes one run
type Report struct {
	RunID    string
	Accepted []registry.Descriptor
	Rejected []registry.Rejection
	// Output is the rendered, formatted registry
	Output string
	// Changed reports whether Output differs from the registry on disk
	Changed bool
	// Written reports whether the registry file was replaced
	Written  bool
	Diff     *format.DiffResult
	Duration time.Duration
}

// Runner performs generation runs with fixed options
type Runner struct {
	options   Options
	validator *contract.Validator
	formatter *format.Formatter
	logger    *zap.Logger
}

// New validates options and creates a runner
func New(options Options) (*Runner, error) {
	if options.FeatureDir == "" {
		return nil, fmt.Errorf("feature directory is not configured")
	}
	if options.OutputPath == "" {
		return nil, fmt.Errorf("output path is not configured")
	}
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}
	if options.Extension == "" {
		options.Extension = registry.DefaultExtension
	}
	if options.Format == nil {
		options.Format = format.DefaultConfig()
	}
	if err := options.Format.Validate(); err != nil {
		return nil, err
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	return &Runner{
		options:   options,
		validator: contract.NewValidator(options.RootType),
		formatter: format.New(options.Format),
		logger:    options.Logger,
	}, nil
}

// Run performs one generation run
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", report.RunID))
	opts := r.options

	logger.Debug("scanning feature modules", zap.String("dir", opts.FeatureDir))

	walker := registry.NewWalker(opts.Fs, r.validator, registry.WalkerOptions{
		Extension: opts.Extension,
		OutputDir: filepath.Dir(opts.OutputPath),
		Cache:     opts.Cache,
		Logger:    logger,
	})
	walked, err := walker.Walk(opts.FeatureDir, registry.NewClaims())
	if err != nil {
		return nil, err
	}
	report.Accepted = walked.Accepted
	report.Rejected = walked.Rejected

	gen := codegen.NewGenerator(codegen.Options{
		RootType:   r.validator.RootType(),
		FeatureDir: r.relativeFeatureDir(),
		Attribute:  opts.Attribute,
	})
	code, err := gen.Generate(walked.Accepted)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	output, err := r.formatter.Format(ctx, code)
	if err != nil {
		return nil, errors.NewRenderFailed("formatting", err)
	}
	report.Output = output

	existing, err := afero.ReadFile(opts.Fs, opts.OutputPath)
	if err != nil && !os.IsNotExist(err) {
		if opts.Check {
			return nil, errors.NewReadFailed(opts.OutputPath, err)
		}
		logger.Warn("cannot read previous registry", zap.Error(err))
	}
	report.Diff = format.Diff(string(existing), output)
	report.Changed = report.Diff.Changed

	if !opts.Check {
		if err := writeAtomic(opts.Fs, opts.OutputPath, output); err != nil {
			return nil, errors.NewWriteFailed(opts.OutputPath, err)
		}
		report.Written = true
	}

	report.Duration = time.Since(start)
	logger.Info("registry generated",
		zap.String("output", opts.OutputPath),
		zap.Int("accepted", len(report.Accepted)),
		zap.Int("rejected", len(report.Rejected)),
		zap.Bool("changed", report.Changed),
		zap.Bool("written", report.Written),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// relativeFeatureDir is the feature directory as shown in the registry
// header. Absolute paths would make the output machine-dependent.
func (r *Runner) relativeFeatureDir() string {
	rel, err := filepath.Rel(filepath.Dir(r.options.OutputPath), r.options.FeatureDir)
	if err != nil {
		return filepath.Base(r.options.FeatureDir)
	}
	return filepath.ToSlash(rel)
}

// writeAtomic replaces path with content through a temporary file in the
// same directory, so readers never observe a partial registry
func writeAtomic(fs afero.Fs, path, content string) error {
	dir := filepath.Dir(path)

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return cause
	}

	if _, err := tmp.WriteString(content); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		return cleanup(err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return cleanup(err)
	}
	return nil
}
