// Package build runs the optional post-sync site build. The engine only
// knows the hook signature; this package supplies the implementations.
package build

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/adalgu/notion-hugo-flow/internal/syncer"
)

// ExecHook returns a hook that runs command after a successful run. The
// token {dir} in any argument is replaced with the content directory, and
// the command inherits the content directory's parent as working directory
// so site generators find their config. Output goes to out.
func ExecHook(command []string, out io.Writer) syncer.BuildHook {
	return func(ctx context.Context, contentDir string) error {
		if len(command) == 0 {
			return nil
		}
		args := make([]string, len(command)-1)
		for i, a := range command[1:] {
			args[i] = strings.ReplaceAll(a, "{dir}", contentDir)
		}
		cmd := exec.CommandContext(ctx, command[0], args...)
		cmd.Stdout = out
		cmd.Stderr = out
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("build command %q: %w", command[0], err)
		}
		return nil
	}
}

// NopHook does nothing. Used when no build command is configured.
func NopHook() syncer.BuildHook {
	return func(context.Context, string) error { return nil }
}
