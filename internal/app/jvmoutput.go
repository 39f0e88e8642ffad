package app

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// wroteLine matches the per-class diagnostics a JVM compiler emits in
// verbose mode. Three shapes occur in the wild: a file-object wrapper like
// RegularFileObject[path], a quoted path, and a bare path.
var wroteLine = regexp.MustCompile(`^\[wrote (?:(\w+)\[([^\]]*)\]|'([^']*)'|(.*))\]$`)

// FilterJVMOutput runs a JVM compiler invocation and distills its verbose
// diagnostics into a class list at outPath, one class file per line. Lines
// that are not class reports pass through to stderr unchanged. The
// compiler's exit status is propagated.
func (a *App) FilterJVMOutput(ctx context.Context, outPath string, argv []string) error {
	if len(argv) == 0 {
		return zerr.New("no compiler command given")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return zerr.Wrap(err, "failed to open compiler stderr")
	}
	if err := cmd.Start(); err != nil {
		return zerr.Wrap(err, "failed to start compiler")
	}

	var classes strings.Builder
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if class, ok := classFromLine(line); ok {
			classes.WriteString(class)
			classes.WriteByte('\n')
			continue
		}
		_, _ = os.Stderr.WriteString(line + "\n")
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()

	// The class list is written even on compiler failure so a rerun sees a
	// stale but parseable output.
	if err := os.WriteFile(outPath, []byte(classes.String()), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write class list")
	}
	if scanErr != nil {
		return zerr.Wrap(scanErr, "failed to read compiler output")
	}
	if waitErr != nil {
		return zerr.Wrap(waitErr, "compiler failed")
	}
	return nil
}

// classFromLine extracts the class file path from one verbose line, if it
// is a class report. Directory-style file objects carry the output root and
// the class path separated by a colon.
func classFromLine(line string) (string, bool) {
	m := wroteLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	switch {
	case m[2] != "":
		if root, rel, ok := strings.Cut(m[2], ":"); ok {
			return filepath.Join(root, rel), true
		}
		return m[2], true
	case m[3] != "":
		return m[3], true
	default:
		return m[4], true
	}
}
