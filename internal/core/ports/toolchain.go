package ports

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/mason/internal/core/domain"
)

// LinkMode selects which linker role of a toolchain to use.
type LinkMode string

const (
	// LinkExecutable produces a program.
	LinkExecutable LinkMode = "executable"
	// LinkSharedLibrary produces a shared library.
	LinkSharedLibrary LinkMode = "shared_library"
	// LinkStaticLibrary produces a static archive.
	LinkStaticLibrary LinkMode = "static_library"
	// LinkRaw addresses the underlying linker directly, when discovered.
	LinkRaw LinkMode = "raw"
)

// LinkContext carries per-target metadata a linker may need when naming its
// output.
type LinkContext struct {
	Version    string
	SOVersion  string
	EntryPoint string
}

// Command is the shared shape of every build command: a rule name for the
// generated build file, the variable holding its invocation, and the
// invocation itself.
type Command interface {
	RuleName() string
	CommandVar() string
	Command() []string
}

// Compiler translates options into compile flags and names its outputs.
type Compiler interface {
	Command

	Flavor() string
	Lang() string
	AcceptsPCH() bool
	// GlobalFlags are the environment-seeded default flags.
	GlobalFlags() []string
	FlagsVar() string
	// Flags maps an ordered option list to an argument vector. Unknown
	// option variants are fatal.
	Flags(opts domain.OptionList) ([]domain.Fragment, error)
	// AlwaysFlags are prepended to every invocation of this compiler.
	AlwaysFlags() []string
	// DepsStyle names the dependency-file style for the build backend, or
	// "" when the compiler emits none.
	DepsStyle() string
	OutputFile(name string) domain.FileArtifact
}

// Linker translates options into link flags and library references.
type Linker interface {
	Command

	Flavor() string
	Lang() string
	CanLink(format string, langs []string) bool
	GlobalFlags() []string
	GlobalLibs() []string
	FlagsVar() string
	LibsVar() string
	// Flags translates everything but library references; output anchors
	// origin-relative rpaths and sonames.
	Flags(opts domain.OptionList, output domain.FileArtifact) ([]domain.Fragment, error)
	// LibFlags translates library references and library literals.
	LibFlags(opts domain.OptionList) ([]domain.Fragment, error)
	// AlwaysFlags are prepended to every invocation of this linker.
	AlwaysFlags() []string
	OutputFile(name string, ctx LinkContext) ([]domain.FileArtifact, error)
}

// PackageResolver locates headers, libraries or jars on the host.
type PackageResolver interface {
	// Resolve finds a package, falling back from external metadata queries
	// to filesystem probing. Failures carry the requested name.
	Resolve(ctx context.Context, name, constraint string, kind domain.PackageKind,
		headers, libNames []string) (*domain.Package, error)
}

// Toolchain wires the role objects of one (language, command) pair. Built
// once at configuration time and immutable afterwards.
type Toolchain interface {
	Flavor() string
	Family() string
	Brand() string
	Version() *semver.Version
	AutoLink() bool
	CanDualLink() bool
	Compiler() Compiler
	// PCHCompiler returns nil when the language has no header
	// precompilation support.
	PCHCompiler() Compiler
	// Linker fails with ErrUnknownLinkMode for unregistered modes.
	Linker(mode LinkMode) (Linker, error)
	Packages() PackageResolver
}

// PkgConfig is the external package-metadata query. Implementations return
// a fully formed package or fail; the caller decides how to degrade.
type PkgConfig interface {
	Resolve(ctx context.Context, name, format, constraint string,
		kind domain.PackageKind) (*domain.Package, error)
}
