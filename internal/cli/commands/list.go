package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/integreat-cms/featurereg/internal/cli/ui"
)

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the feature modules the registry would contain",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}

			result, err := a.walk()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Accepted)
			}

			if len(result.Accepted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Info("no feature modules found in "+a.relPath(a.config.FeaturePath()), a.noColor))
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"NAME", "IMPORT", "SOURCE"}, &ui.TableOptions{NoColor: a.noColor})
			for _, d := range result.Accepted {
				table.AddRow(d.Name, d.ImportPath, a.relPath(d.SourcePath))
			}
			table.Render()

			if n := len(result.Rejected); n > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(fmt.Sprintf("%d rejected file(s) not listed; run featurereg validate", n), a.noColor))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print descriptors as JSON")
	return cmd
}
