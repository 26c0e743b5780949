package reload

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxOutput bounds how much command output is kept in errors.
const maxOutput = 512

// ShellBuilder runs an asset build command through sh -c, for example
// "just build-tailwind". An empty command is a no-op.
type ShellBuilder struct {
	Command string
	Dir     string
	Timeout time.Duration
}

// Build runs the command and returns its error together with the tail of
// its combined output.
func (b ShellBuilder) Build(ctx context.Context) error {
	if strings.TrimSpace(b.Command) == "" {
		return nil
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", b.Command)
	cmd.Dir = b.Dir
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		out = bytes.TrimSpace(out)
		if len(out) > maxOutput {
			out = out[len(out)-maxOutput:]
		}
		return fmt.Errorf("asset command %q: %w: %s", b.Command, err, out)
	}
	return nil
}
