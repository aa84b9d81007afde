package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integreat-cms/featurereg/internal/cli/ui"
	"github.com/integreat-cms/featurereg/internal/loader"
	"github.com/integreat-cms/featurereg/internal/registry"
)

// ErrAuditFailed is returned by audit when markup declares modules that
// cannot be resolved
var ErrAuditFailed = errors.New("markup declares unresolved feature modules")

func newAuditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <html files...>",
		Short: "Check rendered markup against the registry",
		Long: `Scan rendered HTML for elements declaring feature modules and resolve
every declared name the way the page loader would. Names missing from the
registry are reported with suggestions.

Examples:
  featurereg audit build/pages/*.html
  curl -s localhost:8000/de/ | featurereg audit -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return runAudit(cmd, a, args)
		},
	}
	return cmd
}

func runAudit(cmd *cobra.Command, a *app, files []string) error {
	result, err := a.walk()
	if err != nil {
		return err
	}
	reg := a.loaderRegistry(result.Accepted)
	names := reg.Names()

	failed := false
	for _, file := range files {
		elements, err := a.scan(cmd, file)
		if err != nil {
			return err
		}

		l := loader.New(reg, loader.Options{
			Concurrency: a.config.Loader.Concurrency,
			Logger:      a.logger.With(zap.String("file", file)),
		})
		stats, err := l.Attach(cmd.Context(), elements)
		if err != nil {
			return err
		}

		for _, missing := range stats.Missing {
			where := file
			if el := declaring(elements, missing); el != nil {
				where = fmt.Sprintf("%s %s", file, el)
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.ModuleNotFoundError(missing, where, ui.FindSimilar(missing, names, nil), a.noColor))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d elements, %d initialized, %d missing, %d failed\n",
			file, len(elements), stats.Initialized, len(stats.Missing), stats.Failed)
		if len(stats.Missing) > 0 || stats.Failed > 0 {
			failed = true
		}
	}

	if failed {
		return ErrAuditFailed
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "every declared module resolves", a.noColor)
	return nil
}

func (a *app) scan(cmd *cobra.Command, file string) ([]*loader.Element, error) {
	if file == "-" {
		return loader.ScanMarkup(cmd.InOrStdin(), a.config.Loader.Attribute)
	}

	f, err := a.fs.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	elements, err := loader.ScanMarkup(f, a.config.Loader.Attribute)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", file, err)
	}
	return elements, nil
}

// loaderRegistry mirrors the generated registry: each thunk resolves its
// import specifier back to the module source, as the bundler would
func (a *app) loaderRegistry(descriptors []registry.Descriptor) loader.Registry {
	outputDir := filepath.Dir(a.config.OutputPath())
	reg := make(loader.Registry, len(descriptors))

	for _, d := range descriptors {
		importPath := d.ImportPath
		reg[d.Name] = func(ctx context.Context) (loader.Initializer, error) {
			source := registry.ResolveImport(outputDir, importPath, a.config.Extension)
			if _, err := a.fs.Stat(source); err != nil {
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("cannot resolve %s: %w", importPath, err)
				}
				return nil, err
			}
			return func(context.Context, *loader.Element) error { return nil }, nil
		}
	}
	return reg
}

func declaring(elements []*loader.Element, name string) *loader.Element {
	for _, el := range elements {
		for _, m := range el.Modules {
			if m == name {
				return el
			}
		}
	}
	return nil
}
