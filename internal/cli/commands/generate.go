package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integreat-cms/featurereg/internal/cli/ui"
	"github.com/integreat-cms/featurereg/internal/compiler/cache"
	"github.com/integreat-cms/featurereg/internal/generator"
	"github.com/integreat-cms/featurereg/internal/watch"
)

// ErrStale is returned by generate --check when the registry on disk is out
// of date
var ErrStale = errors.New("registry is out of date")

type generateFlags struct {
	check bool
	watch bool
}

func newGenerateCommand(a *app) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "g"},
		Short:   "Write the feature module registry",
		Long: `Scan the feature directory and write the registry.

Files that break the module contract are reported as warnings and left out
of the registry; they never fail the command. Read, format and write errors
do, and leave the previous registry untouched.

Examples:
  featurereg generate
  featurereg generate --check      # exit 1 if the registry is stale
  featurereg generate --watch      # regenerate on every change`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return runGenerate(cmd, a, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.check, "check", false, "Do not write; fail if the registry is out of date")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Regenerate whenever feature modules change")

	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, flags *generateFlags) error {
	if flags.check && flags.watch {
		return fmt.Errorf("--check and --watch cannot be combined")
	}

	var analyses *cache.AnalysisCache
	if flags.watch {
		analyses = cache.NewAnalysisCache()
	}

	cfg := a.config
	format := cfg.Format
	runner, err := generator.New(generator.Options{
		Fs:         a.fs,
		FeatureDir: cfg.FeaturePath(),
		OutputPath: cfg.OutputPath(),
		Extension:  cfg.Extension,
		RootType:   cfg.RootType,
		Attribute:  cfg.Loader.Attribute,
		Format:     &format,
		Check:      flags.check,
		Cache:      analyses,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	if !flags.watch {
		return generateOnce(cmd, a, runner, flags.check)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generateOnce(cmd, a, runner, false); err != nil {
		a.printError(cmd, err)
	}

	watcher, err := watch.NewFileWatcher(cfg.FeaturePath(), watch.Options{
		Extension: cfg.Extension,
		Ignore:    cfg.Watch.Ignore,
		Exclude:   []string{cfg.OutputPath()},
		Debounce:  cfg.Watch.Debounce,
		Logger:    a.logger,
	}, func(ctx context.Context, files []string) error {
		a.logger.Debug("regenerating", zap.Int("changed", len(files)))
		return generateWith(ctx, cmd, a, runner, false)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), ui.Info(fmt.Sprintf("watching %s (Ctrl+C to stop)", a.relPath(cfg.FeaturePath())), a.noColor))
	return watcher.Run(ctx)
}

func generateOnce(cmd *cobra.Command, a *app, runner *generator.Runner, check bool) error {
	return generateWith(cmd.Context(), cmd, a, runner, check)
}

func generateWith(ctx context.Context, cmd *cobra.Command, a *app, runner *generator.Runner, check bool) error {
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	ui.WriteRejections(cmd.ErrOrStderr(), report.Rejected, a.verbose, a.noColor)
	output := a.relPath(a.config.OutputPath())

	if check {
		if report.Changed {
			fmt.Fprint(cmd.OutOrStdout(), report.Diff.UnifiedDiff(output))
			fmt.Fprint(cmd.ErrOrStderr(), ui.StaleRegistryError(output, a.noColor))
			return ErrStale
		}
		ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s is up to date (%d modules)", output, len(report.Accepted)), a.noColor)
		return nil
	}

	ui.WriteSuccess(cmd.OutOrStdout(), ui.Summary(len(report.Accepted), len(report.Rejected), output, report.Written), a.noColor)
	if a.verbose && report.Changed {
		fmt.Fprintln(cmd.ErrOrStderr(), report.Diff.Stats())
	}
	return nil
}

// printError reports a failed run without ending watch mode
func (a *app) printError(cmd *cobra.Command, err error) {
	fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(ui.ErrorOptions{
		Level:   ui.ErrorLevelError,
		Context: "generation failed",
		Problem: err.Error(),
		NoColor: a.noColor,
	}))
}
