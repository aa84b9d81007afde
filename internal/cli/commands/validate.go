package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/integreat-cms/featurereg/internal/cli/ui"
	"github.com/integreat-cms/featurereg/internal/compiler/contract"
	"github.com/integreat-cms/featurereg/internal/registry"
)

// ErrRejected is returned by validate when any candidate file is rejected
var ErrRejected = errors.New("feature modules rejected")

// validationReport is the machine-readable validate output
type validationReport struct {
	Accepted []registry.Descriptor `json:"accepted" yaml:"accepted"`
	Rejected []registry.Rejection  `json:"rejected" yaml:"rejected"`
}

func newValidateCommand(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every feature module against the module contract",
		Long: `Validate every candidate file in the feature directory without writing
the registry. Exits non-zero if any file is rejected, which makes it
suitable for CI.

Examples:
  featurereg validate
  featurereg validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (expected text, json or yaml)", outputFormat)
			}
			if err := a.setup(cmd); err != nil {
				return err
			}

			result, err := a.walk()
			if err != nil {
				return err
			}

			report := validationReport{Accepted: result.Accepted, Rejected: result.Rejected}
			if report.Accepted == nil {
				report.Accepted = []registry.Descriptor{}
			}
			if report.Rejected == nil {
				report.Rejected = []registry.Rejection{}
			}

			switch outputFormat {
			case "json":
				err = writeJSON(cmd.OutOrStdout(), report)
			case "yaml":
				err = yaml.NewEncoder(cmd.OutOrStdout()).Encode(report)
			default:
				a.writeValidationText(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}

			if len(report.Rejected) > 0 {
				return fmt.Errorf("%w: %d of %d", ErrRejected, len(report.Rejected), len(result.Visited))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func (a *app) writeValidationText(w io.Writer, report validationReport) {
	for _, rejection := range report.Rejected {
		for _, err := range rejection.Errors {
			fmt.Fprintln(w, err.Format())
		}
	}

	if len(report.Rejected) == 0 {
		ui.WriteSuccess(w, fmt.Sprintf("all %d feature modules are valid", len(report.Accepted)), a.noColor)
		return
	}
	fmt.Fprint(w, ui.Warning(fmt.Sprintf("%d valid, %d rejected", len(report.Accepted), len(report.Rejected)), a.noColor))
}

// walk validates the feature directory without generating anything
func (a *app) walk() (*registry.WalkResult, error) {
	walker := registry.NewWalker(a.fs, contract.NewValidator(a.config.RootType), registry.WalkerOptions{
		Extension: a.config.Extension,
		OutputDir: filepath.Dir(a.config.OutputPath()),
		Logger:    a.logger,
	})
	return walker.Walk(a.config.FeaturePath(), registry.NewClaims())
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
