package shell

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner implements ports.Runner using os/exec. Probes are local and
// non-interactive; stdin is always closed.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run launches argv and blocks until it exits, capturing stdout and stderr.
func (r *Runner) Run(ctx context.Context, argv []string, opts ports.RunOptions) (ports.RunResult, error) {
	if len(argv) == 0 {
		return ports.RunResult{}, zerr.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // probing user-configured tools
	if len(opts.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), opts.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("probe: " + strings.Join(argv, " "))

	err := cmd.Run()
	result := ports.RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// Launch failure: the tool does not exist or is not runnable.
			return result, zerr.With(zerr.Wrap(err, "failed to launch command"),
				"command", argv[0])
		}
		result.ExitCode = exitErr.ExitCode()
		if !opts.AcceptAnyExit {
			werr := zerr.With(zerr.Wrap(err, "command failed"),
				"command", argv[0])
			return result, zerr.With(werr, "exit_code", result.ExitCode)
		}
	}

	return result, nil
}

// mergeEnv overlays overrides onto the base KEY=VALUE environment.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		k, _, ok := strings.Cut(entry, "=")
		if ok {
			if _, overridden := overrides[k]; overridden {
				continue
			}
		}
		out = append(out, entry)
	}
	for k, v := range overrides {
		out = append(out, k+"="+v)
	}
	return out
}
