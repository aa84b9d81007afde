package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// contextLines is the number of unchanged lines shown around each hunk
const contextLines = 3

// DiffResult represents the difference between the registry on disk and the
// freshly rendered one
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool

	a, b    []string
	matcher *difflib.SequenceMatcher
}

// Diff compares original and formatted code and returns the difference
func Diff(original, formatted string) *DiffResult {
	d := &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
	if d.Changed {
		d.a = splitLines(original)
		d.b = splitLines(formatted)
		d.matcher = difflib.NewMatcher(d.a, d.b)
	}
	return d
}

// String returns a human-readable diff with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	for _, group := range d.matcher.GetGroupedOpCodes(contextLines) {
		cyan.Fprintf(&buf, "%s\n", hunkHeader(group))
		for _, op := range group {
			if op.Tag == 'e' {
				for _, line := range d.a[op.I1:op.I2] {
					fmt.Fprintf(&buf, "  %s", line)
				}
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				for _, line := range d.a[op.I1:op.I2] {
					red.Fprintf(&buf, "- %s", line)
				}
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				for _, line := range d.b[op.J1:op.J2] {
					green.Fprintf(&buf, "+ %s", line)
				}
			}
		}
	}
	return buf.String()
}

// UnifiedDiff returns a unified diff format string
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        d.a,
		B:        d.b,
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  contextLines,
	})
	if err != nil {
		// writes go to an in-memory buffer
		return ""
	}
	return unified
}

// Stats returns statistics about the changes
func (d *DiffResult) Stats() string {
	if !d.Changed {
		return "No changes"
	}

	added, removed := 0, 0
	for _, op := range d.matcher.GetOpCodes() {
		switch op.Tag {
		case 'r':
			added += op.J2 - op.J1
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		}
	}
	return fmt.Sprintf("%d lines added, %d removed", added, removed)
}

// hunkHeader renders the @@ -a,b +c,d @@ line of a group of opcodes
func hunkHeader(group []difflib.OpCode) string {
	first, last := group[0], group[len(group)-1]
	return fmt.Sprintf("@@ -%s +%s @@",
		hunkRange(first.I1, last.I2), hunkRange(first.J1, last.J2))
}

// hunkRange formats a half-open line range the way unified diffs do
func hunkRange(start, stop int) string {
	switch length := stop - start; length {
	case 0:
		return fmt.Sprintf("%d,0", start)
	case 1:
		return fmt.Sprintf("%d", start+1)
	default:
		return fmt.Sprintf("%d,%d", start+1, length)
	}
}

// splitLines splits text into newline-terminated lines. A missing final
// newline is supplied so every line renders on its own row.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}
