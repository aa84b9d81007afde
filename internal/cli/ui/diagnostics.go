package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/integreat-cms/featurereg/internal/compiler/errors"
	"github.com/integreat-cms/featurereg/internal/registry"
)

// WriteRejections prints one warning line per reason. With verbose set each
// reason is printed in full, with source context and quick fixes.
func WriteRejections(w io.Writer, rejections []registry.Rejection, verbose, noColor bool) {
	yellow := color.New(color.FgYellow)
	if noColor {
		yellow.DisableColor()
	}

	for _, rejection := range rejections {
		for _, err := range rejection.Errors {
			if verbose {
				yellow.Fprintln(w, err.Format())
				continue
			}
			yellow.Fprintf(w, "warning: %s\n", errors.FormatCompact(err))
		}
	}
}

// Summary describes the outcome of a generation run in one line
func Summary(accepted, rejected int, output string, written bool) string {
	verb := "would include"
	if written {
		verb = "wrote"
	}
	return fmt.Sprintf("%s %d %s to %s (%d rejected)",
		verb, accepted, plural(accepted, "module", "modules"), output, rejected)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
