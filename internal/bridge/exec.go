package bridge

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// SUBPROCESS TRANSPORT
// =============================================================================

// runner executes an external prover binary. The context deadline kills
// the process itself through CommandContext, not just the wait.
type runner struct {
	bridge string
	binary string
	args   []string
}

// run feeds input on stdin and returns the combined output. A non-zero
// exit with output is not an error: provers report verdicts through
// their output text, and ParseResult interprets it.
func (r runner) run(ctx context.Context, input string, timeout time.Duration) (string, error) {
	ctx, cancel := r.bound(ctx, timeout)
	defer cancel()
	if _, err := exec.LookPath(r.binary); err != nil {
		return "", &Error{Bridge: r.bridge, Op: "lookup " + r.binary, Err: err}
	}
	cmd := exec.CommandContext(ctx, r.binary, r.args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	return r.finish(ctx, string(out), err)
}

// runFile writes input to a scratch file and passes its path as the
// last argument, for provers that only read files.
func (r runner) runFile(ctx context.Context, input, ext string, timeout time.Duration) (string, error) {
	ctx, cancel := r.bound(ctx, timeout)
	defer cancel()
	if _, err := exec.LookPath(r.binary); err != nil {
		return "", &Error{Bridge: r.bridge, Op: "lookup " + r.binary, Err: err}
	}
	dir, err := os.MkdirTemp("", "noesis-"+r.bridge+"-*")
	if err != nil {
		return "", &Error{Bridge: r.bridge, Op: "scratch dir", Err: err}
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "goal"+ext)
	if err := os.WriteFile(path, []byte(input), 0644); err != nil {
		return "", &Error{Bridge: r.bridge, Op: "write input", Err: err}
	}
	cmd := exec.CommandContext(ctx, r.binary, append(append([]string(nil), r.args...), path)...)
	out, err := cmd.CombinedOutput()
	return r.finish(ctx, string(out), err)
}

func (r runner) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (r runner) finish(ctx context.Context, out string, err error) (string, error) {
	if ctx.Err() != nil {
		return "", &Error{Bridge: r.bridge, Op: "invoke", Err: ctx.Err()}
	}
	var exit *exec.ExitError
	if err != nil && !errors.As(err, &exit) {
		return "", &Error{Bridge: r.bridge, Op: "invoke", Err: err}
	}
	return out, nil
}
