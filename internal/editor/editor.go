// Package editor hands a file to the user's editor and waits for it to exit.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command returns the editor argv from $EDITOR, then $VISUAL, then vi. The
// variable may carry flags, as in "code --wait".
func Command() []string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if f := strings.Fields(os.Getenv(env)); len(f) > 0 {
			return f
		}
	}
	return []string{"vi"}
}

// Open runs the editor on path attached to the current terminal.
func Open(ctx context.Context, path string) error {
	argv := Command()
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q: %w", strings.Join(argv, " "), err)
	}
	return nil
}
