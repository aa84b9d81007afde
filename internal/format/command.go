package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// runCommand pipes source through an external formatter. A non-zero exit,
// an unparsable command line or empty output for non-empty input is an
// error; the caller must not write anything in that case.
func runCommand(ctx context.Context, command, source string) (string, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return "", fmt.Errorf("invalid format command %q: %w", command, err)
	}
	if len(args) == 0 {
		return source, nil
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("format command %q failed: %w: %s", command, err, msg)
		}
		return "", fmt.Errorf("format command %q failed: %w", command, err)
	}

	if stdout.Len() == 0 && source != "" {
		return "", fmt.Errorf("format command %q produced no output", command)
	}
	return stdout.String(), nil
}
