// Package commands implements the featurereg command line.
package commands

import (
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/integreat-cms/featurereg/internal/cli/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// app carries the state shared by all subcommands of one invocation
type app struct {
	fs      afero.Fs
	root    string
	verbose bool
	noColor bool

	config *config.Config
	logger *zap.Logger
}

// setup loads the configuration and builds the logger. It runs before every
// subcommand that touches the project.
func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		color.NoColor = true
	}
	a.logger = newLogger(cmd, a.verbose)

	var err error
	if a.root != "" {
		a.config, err = config.LoadFrom(a.root)
	} else {
		a.config, err = config.Load()
	}
	if err != nil {
		return err
	}

	a.logger.Debug("configuration loaded",
		zap.String("root", a.config.Root),
		zap.String("feature_dir", a.config.FeaturePath()),
		zap.String("output", a.config.OutputPath()))
	return nil
}

// newLogger writes console-encoded logs to the command's stderr: debug and
// up under --verbose, warnings and errors otherwise
func newLogger(cmd *cobra.Command, verbose bool) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	} else {
		encoderConfig.TimeKey = ""
		encoderConfig.CallerKey = ""
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(cmd.ErrOrStderr()),
		level,
	)
	return zap.New(core)
}

// NewRootCommand creates the root command. Running it without a subcommand
// generates the registry.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{fs: afero.NewOsFs()})
}

func newRootCommand(a *app) *cobra.Command {
	generate := &generateFlags{}

	rootCmd := &cobra.Command{
		Use:   "featurereg",
		Short: "Generate the feature module registry",
		Long: color.CyanString(`featurereg - feature module registry generator

Scans the feature directory for TypeScript modules that export a
moduleName and a default init(root) function, and writes a registry
mapping every module name to a lazy import. Pages declare modules with
data-js-module="<moduleName>" and the loader initializes them on demand.`),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return runGenerate(cmd, a, generate)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print debug logs and full diagnostics")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "Project root (default: nearest directory with featurereg.yml or package.json)")

	rootCmd.AddCommand(newGenerateCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newNewCommand(a))
	rootCmd.AddCommand(newAuditCommand(a))
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// relPath shortens path for display relative to the project root
func (a *app) relPath(path string) string {
	if a.config == nil {
		return path
	}
	if rel, err := filepath.Rel(a.config.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
