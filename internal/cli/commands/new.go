package commands

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/integreat-cms/featurereg/internal/cli/ui"
	"github.com/integreat-cms/featurereg/internal/compiler/contract"
	"github.com/integreat-cms/featurereg/internal/templates"
	ustrings "github.com/integreat-cms/featurereg/internal/util/strings"
)

// askOne is replaced in tests
var askOne = survey.AskOne

var namePattern = regexp.MustCompile(contract.NamePattern)

var subdirPattern = regexp.MustCompile(`^[a-z0-9_-]+(/[a-z0-9_-]+)*$`)

type newFlags struct {
	dir         string
	description string
	async       bool
	noPrompt    bool
}

func newNewCommand(a *app) *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Scaffold a new feature module",
		Long: `Create a feature module that satisfies the module contract.

The name is converted to kebab-case (TreeDrag becomes tree-drag) and must
not be used by another module. Without a name you are prompted for it.

Examples:
  featurereg new tree-drag
  featurereg new XliffUpload --dir xliff --async
  featurereg new`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return runNew(cmd, a, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "Subdirectory of the feature directory")
	cmd.Flags().StringVar(&flags.description, "description", "", "Doc comment for the module")
	cmd.Flags().BoolVar(&flags.async, "async", false, "Make init an async function")
	cmd.Flags().BoolVar(&flags.noPrompt, "no-prompt", false, "Fail instead of prompting for missing input")

	return cmd
}

func runNew(cmd *cobra.Command, a *app, args []string, flags *newFlags) error {
	infoColor := color.New(color.FgCyan)

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		if flags.noPrompt {
			return fmt.Errorf("module name required\n\nUsage: featurereg new <name>")
		}
		if err := promptModule(flags, &name); err != nil {
			return err
		}
	}

	name, err := moduleName(name)
	if err != nil {
		return err
	}
	dir := strings.Trim(filepath.ToSlash(flags.dir), "/")
	if dir != "" && !subdirPattern.MatchString(dir) {
		return fmt.Errorf("invalid directory %q: use lower-case path segments", flags.dir)
	}

	if exists, _ := afero.DirExists(a.fs, a.config.FeaturePath()); exists {
		result, err := a.walk()
		if err != nil {
			return err
		}
		for _, d := range result.Accepted {
			if d.Name == name {
				return fmt.Errorf("module name %q is already used by %s", name, a.relPath(d.SourcePath))
			}
		}
	}

	engine, err := templates.NewEngine()
	if err != nil {
		return err
	}
	path := filepath.Join(a.config.FeaturePath(), filepath.FromSlash(dir), name+a.config.Extension)
	err = engine.Create(a.fs, path, templates.Module{
		Name:        name,
		RootType:    a.config.RootType,
		Description: flags.description,
		Async:       flags.async,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ui.WriteSuccess(out, "Created "+a.relPath(path), a.noColor)
	if a.noColor {
		infoColor.DisableColor()
	}
	infoColor.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Add %s=\"%s\" to the root element in your template\n", a.config.Loader.Attribute, name)
	fmt.Fprintln(out, "  2. Run 'featurereg generate' to update the registry")
	return nil
}

// moduleName normalizes user input to a valid module name
func moduleName(input string) (string, error) {
	name := ustrings.ToKebabCase(strings.TrimSpace(input))
	if err := validateName(name); err != nil {
		return "", fmt.Errorf("invalid module name %q: %w", input, err)
	}
	return name, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must contain letters or digits")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must match %s", contract.NamePattern)
	}
	return nil
}

func promptModule(flags *newFlags, name *string) error {
	nameValidator := func(ans interface{}) error {
		s, _ := ans.(string)
		return validateName(ustrings.ToKebabCase(s))
	}
	if err := askOne(&survey.Input{
		Message: "Module name (kebab-case):",
		Help:    "Used as moduleName and in data-js-module attributes, e.g. tree-drag",
	}, name, survey.WithValidator(survey.Required), survey.WithValidator(nameValidator)); err != nil {
		return err
	}

	if flags.dir == "" {
		if err := askOne(&survey.Input{
			Message: "Subdirectory (optional):",
		}, &flags.dir); err != nil {
			return err
		}
	}

	return askOne(&survey.Confirm{
		Message: "Does init need to await anything?",
		Default: flags.async,
	}, &flags.async)
}
