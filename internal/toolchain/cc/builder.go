// Package cc implements the native toolchain family: C-style compiler
// drivers (gcc, clang and compatibles), their linker roles and their package
// resolution.
package cc

import (
	"context"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/mason/internal/adapters/shell"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
	"go.trai.ch/mason/internal/toolchain/ar"
	"go.trai.ch/mason/internal/toolchain/ld"
)

// Probe runs the compiler's version query and returns its output for brand
// identification. A failed probe degrades to empty output, which yields the
// "unknown" brand.
func Probe(ctx context.Context, env *toolchain.Env, command []string) string {
	res, err := env.Runner.Run(ctx, append(sliceCopy(command), "--version"), ports.RunOptions{})
	if err != nil {
		env.Logger.Warn("compiler version probe failed",
			"command", strings.Join(command, " "), "error", err)
		return ""
	}
	return res.Stdout
}

// Builder wires the role objects of one native (language, command) pair.
type Builder struct {
	env  *toolchain.Env
	lang toolchain.Language

	brand        string
	version      *semver.Version
	objectFormat string

	compiler    *Compiler
	pchCompiler *Compiler
	linkers     map[ports.LinkMode]ports.Linker
	rawLinker   *ld.Linker
	packages    *PackageResolver
}

// NewBuilder identifies the compiler from its version output, seeds default
// flags from the environment, discovers the underlying linker and builds
// every role object.
func NewBuilder(ctx context.Context, env *toolchain.Env, lang toolchain.Language,
	command []string, versionOutput string, pkgConfig ports.PkgConfig) (*Builder, error) {

	brand := "unknown"
	switch {
	case strings.Contains(versionOutput, "Free Software Foundation"):
		brand = "gcc"
	case strings.Contains(versionOutput, "clang"):
		brand = "clang"
	}

	cppflags, err := toolchain.SplitFlagsVar(env, "CPPFLAGS", "")
	if err != nil {
		return nil, err
	}
	langFlags, err := toolchain.SplitFlagsVar(env, lang.FlagsVar, "")
	if err != nil {
		return nil, err
	}
	ldflags, err := toolchain.SplitFlagsVar(env, "LDFLAGS", "")
	if err != nil {
		return nil, err
	}
	ldlibs, err := toolchain.SplitFlagsVar(env, "LDLIBS", "")
	if err != nil {
		return nil, err
	}

	b := &Builder{
		env:          env,
		lang:         lang,
		brand:        brand,
		version:      domain.DetectVersion(versionOutput),
		objectFormat: env.Target.ObjectFormat,
		linkers:      make(map[ports.LinkMode]ports.Linker),
	}

	b.rawLinker = b.discoverLinker(ctx, command, ldflags)
	if b.rawLinker != nil {
		b.linkers[ports.LinkRaw] = b.rawLinker
	}

	cmdVar := strings.ToLower(lang.CompilerVar)
	flagsVar := strings.ToLower(lang.FlagsVar)
	cflags := append(sliceCopy(cppflags), langFlags...)

	b.compiler = newCompiler(b, lang, command, cmdVar, flagsVar, cflags, false)
	if lang.Name == "c" || lang.Name == "c++" {
		b.pchCompiler = newCompiler(b, lang, command, cmdVar, flagsVar, cflags, true)
	}

	b.linkers[ports.LinkExecutable] =
		newLinker(b, lang, command, cmdVar, ports.LinkExecutable, ldflags, ldlibs)
	b.linkers[ports.LinkSharedLibrary] =
		newLinker(b, lang, command, cmdVar, ports.LinkSharedLibrary, ldflags, ldlibs)

	archiver, err := ar.NewLinker(env, b.objectFormat, lang.Name)
	if err != nil {
		return nil, err
	}
	b.linkers[ports.LinkStaticLibrary] = archiver

	b.packages = newPackageResolver(ctx, b, pkgConfig)
	return b, nil
}

// discoverLinker asks the compiler driver to forward --version to its
// linker and scrapes the invoked command from the verbose output. Probe
// failures are not fatal; the raw role is simply absent.
func (b *Builder) discoverLinker(ctx context.Context, command, ldflags []string) *ld.Linker {
	probe := append(append(sliceCopy(command), ldflags...), "-v", "-Wl,--version")
	res, err := b.env.Runner.Run(ctx, probe, ports.RunOptions{AcceptAnyExit: true})
	if err != nil {
		b.env.Logger.Debug("linker discovery failed",
			"command", strings.Join(command, " "), "error", err)
		return nil
	}

	var ldCommand []string
	for _, line := range strings.Split(res.Stderr, "\n") {
		if !strings.Contains(line, "--version") {
			continue
		}
		words, err := shell.Split(line)
		if err != nil || len(words) == 0 {
			continue
		}
		ldCommand = words[:1]
		// GCC invokes the real linker through collect2; keep scanning for
		// the inner invocation.
		if path.Base(ldCommand[0]) != "collect2" {
			break
		}
	}
	if ldCommand == nil {
		return nil
	}

	// The linker's own banner lands on stdout of the driver run.
	return ld.NewLinker(b.env, b.lang.Name, ldCommand, res.Stdout)
}

func (b *Builder) Flavor() string           { return "cc" }
func (b *Builder) Family() string           { return toolchain.FamilyNative }
func (b *Builder) Brand() string            { return b.brand }
func (b *Builder) Version() *semver.Version { return b.version }
func (b *Builder) AutoLink() bool           { return false }
func (b *Builder) CanDualLink() bool        { return true }

func (b *Builder) Compiler() ports.Compiler { return b.compiler }

func (b *Builder) PCHCompiler() ports.Compiler {
	if b.pchCompiler == nil {
		return nil
	}
	return b.pchCompiler
}

// Linker returns the role object for a link mode. The raw role exists only
// when linker discovery succeeded.
func (b *Builder) Linker(mode ports.LinkMode) (ports.Linker, error) {
	l, ok := b.linkers[mode]
	if !ok {
		return nil, domain.Annotate(domain.ErrUnknownLinkMode, "mode", string(mode))
	}
	return l, nil
}

func (b *Builder) Packages() ports.PackageResolver { return b.packages }

// rawLinkerBrand reports the discovered linker brand, or "" when discovery
// failed.
func (b *Builder) rawLinkerBrand() string {
	if b.rawLinker == nil {
		return ""
	}
	return b.rawLinker.Brand()
}

func sliceCopy(s []string) []string {
	return append([]string(nil), s...)
}
