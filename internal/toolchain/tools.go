package toolchain

import (
	"fmt"
	"strings"

	"go.trai.ch/mason/internal/adapters/shell"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// SplitFlagsVar shell-splits a flags environment variable, falling back to
// def when unset.
func SplitFlagsVar(env *Env, name, def string) ([]string, error) {
	words, err := shell.Split(env.Getvar(name, def))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "malformed flags variable"), "variable", name)
	}
	return words, nil
}

// LibraryPath builds the build-directory path of a library artifact named
// name, applying prefix and suffix to the file component only so that
// "sub/foo" becomes "sub/libfoo.a".
func LibraryPath(name, prefix, suffix string) domain.Path {
	dir, file := "", name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		dir, file = name[:i+1], name[i+1:]
	}
	return domain.NewPath(domain.RootBuildDir, dir+prefix+file+suffix)
}

// UniqueFragments deduplicates fragments preserving first-seen order.
func UniqueFragments(frags []domain.Fragment) []domain.Fragment {
	seen := make(map[string]bool, len(frags))
	out := make([]domain.Fragment, 0, len(frags))
	for _, f := range frags {
		key := fmt.Sprintf("%#v", f)
		if !seen[key] {
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}

// InstallPath resolves the installed location of an artifact: executables
// under bindir, everything else under libdir.
func InstallPath(a domain.FileArtifact, env *Env) string {
	root := domain.InstallLibDir
	if _, ok := a.(*domain.Executable); ok {
		root = domain.InstallBinDir
	}
	return domain.NewPath(root, a.ArtifactPath().Basename()).Resolve(env.BaseDirs)
}

// PatchElfCommand builds the argv that rewrites the rpath of an installed
// ELF binary in place. An empty rpath list removes the entry entirely.
func PatchElfCommand(path string, rpaths []string) []string {
	if len(rpaths) == 0 {
		return []string{"patchelf", "--remove-rpath", path}
	}
	return []string{"patchelf", "--set-rpath", strings.Join(rpaths, ":"), path}
}

// InstallNameToolCommand builds the argv that rewrites the install names of
// an installed Mach-O binary: its own id (empty to keep) and the old-to-new
// renames of the libraries it references. Returns nil when there is nothing
// to change.
func InstallNameToolCommand(path, id string, changes [][2]string) []string {
	argv := []string{"install_name_tool"}
	if id != "" {
		argv = append(argv, "-id", id)
	}
	for _, c := range changes {
		argv = append(argv, "-change", c[0], c[1])
	}
	if len(argv) == 1 {
		return nil
	}
	return append(argv, path)
}

// WriteFileRuleName identifies the build rule that materializes small
// generated files (jar manifests) from an edge variable.
const WriteFileRuleName = "writefile"

// WriteFileCommand is the command prefix of the writefile rule. Each word
// of the edge's text variable becomes one output line; a literal newline
// could never survive the build file itself.
func WriteFileCommand() []string {
	return []string{"printf", `%s\n`}
}
