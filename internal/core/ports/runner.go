// Package ports defines the core interfaces for the application.
package ports

import "context"

// RunOptions controls a single subprocess probe.
type RunOptions struct {
	// Env overrides individual environment variables for the child.
	Env map[string]string
	// AcceptAnyExit suppresses the non-zero-exit error; discovery probes
	// that scrape stderr regardless of exit status use this.
	AcceptAnyExit bool
}

// RunResult carries the captured output of a finished subprocess.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes local, non-interactive tool probes synchronously.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run launches argv and blocks until it exits. It returns an error on
	// launch failure or, unless AcceptAnyExit is set, on non-zero exit.
	Run(ctx context.Context, argv []string, opts RunOptions) (RunResult, error)
}
