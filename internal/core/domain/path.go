package domain

import (
	"path"
	"strings"
)

// Root anchors a Path to one of the well-known directories of a build.
type Root int

const (
	// RootAbsolute marks a path whose string is already absolute.
	RootAbsolute Root = iota
	// RootSrcDir is the source directory of the project.
	RootSrcDir
	// RootBuildDir is the build output directory.
	RootBuildDir
	// InstallPrefix is the installation prefix (e.g. /usr/local).
	InstallPrefix
	// InstallExecPrefix is the architecture-dependent installation prefix.
	InstallExecPrefix
	// InstallBinDir is the executable installation directory.
	InstallBinDir
	// InstallLibDir is the library installation directory.
	InstallLibDir
	// InstallIncludeDir is the header installation directory.
	InstallIncludeDir
)

var rootNames = map[Root]string{
	RootAbsolute:      "absolute",
	RootSrcDir:        "srcdir",
	RootBuildDir:      "builddir",
	InstallPrefix:     "prefix",
	InstallExecPrefix: "exec_prefix",
	InstallBinDir:     "bindir",
	InstallLibDir:     "libdir",
	InstallIncludeDir: "includedir",
}

// InstallRoots lists the install-root kinds in emission order.
var InstallRoots = []Root{
	InstallPrefix, InstallExecPrefix, InstallBinDir, InstallLibDir,
	InstallIncludeDir,
}

func (r Root) String() string { return rootNames[r] }

// IsInstall reports whether the root is one of the install-root kinds.
func (r Root) IsInstall() bool { return r >= InstallPrefix }

// Path is a root tag plus a slash-separated relative component. For
// RootAbsolute the component holds the full absolute path. Paths are
// comparable values; equality is by (root, component).
type Path struct {
	Root Root
	S    string
}

// Paths are fragments: the writer realizes them against its root-variable
// mapping before escaping.
func (Path) fragment() {}

// NewPath builds a clean path under the given root.
func NewPath(root Root, s string) Path {
	cleaned := path.Clean(s)
	if cleaned == "." {
		cleaned = ""
	}
	return Path{Root: root, S: cleaned}
}

// AbsPath wraps an absolute host path.
func AbsPath(s string) Path {
	return Path{Root: RootAbsolute, S: path.Clean(s)}
}

// Parent returns the path's parent directory under the same root.
func (p Path) Parent() Path {
	dir := path.Dir(p.S)
	if dir == "." {
		dir = ""
	}
	return Path{Root: p.Root, S: dir}
}

// Basename returns the final path component.
func (p Path) Basename() string {
	return path.Base(p.S)
}

// StripExt drops the extension from the final component, if any.
func (p Path) StripExt() Path {
	ext := path.Ext(p.S)
	return Path{Root: p.Root, S: strings.TrimSuffix(p.S, ext)}
}

// Append joins a further component onto the path.
func (p Path) Append(name string) Path {
	return Path{Root: p.Root, S: path.Join(p.S, name)}
}

// AddSuffix appends a raw suffix to the final component, e.g. a version
// suffix on a shared library name.
func (p Path) AddSuffix(suffix string) Path {
	return Path{Root: p.Root, S: p.S + suffix}
}

// RelPath computes the path relative to base, which must share the same
// root. A non-empty prefix (e.g. "$ORIGIN" or "@loader_path") is joined in
// front of the result.
func (p Path) RelPath(base Path, prefix string) (string, error) {
	if p.Root != base.Root {
		return "", Annotate(ErrPathMismatch,
			"path_root", p.Root.String(), "base_root", base.Root.String())
	}

	rel := relSlash(base.S, p.S)
	if prefix == "" {
		return rel, nil
	}
	if rel == "." {
		return prefix, nil
	}
	return prefix + "/" + rel, nil
}

// Resolve turns the path into a concrete host path string given a mapping
// from roots to base directories.
func (p Path) Resolve(bases map[Root]string) string {
	if p.Root == RootAbsolute {
		return p.S
	}
	base := bases[p.Root]
	if p.S == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + p.S
}

// relSlash is filepath.Rel for clean slash-separated paths.
func relSlash(base, target string) string {
	if base == target {
		return "."
	}

	baseParts := splitPath(base)
	targetParts := splitPath(target)

	common := 0
	for common < len(baseParts) && common < len(targetParts) &&
		baseParts[common] == targetParts[common] {
		common++
	}

	parts := make([]string, 0, len(baseParts)-common+len(targetParts)-common)
	for range baseParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitPath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}
