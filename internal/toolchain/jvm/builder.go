// Package jvm implements the JVM toolchain family: javac/scalac style
// compilers, jar packaging and classpath-based package resolution.
package jvm

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// Probe runs the language runner's version query; the compiler's own
// output carries no vendor string (javac prints a bare "javac 17.0.2").
// The VM prints the banner on stderr and some exit non-zero, so any exit
// status is accepted. A failed probe degrades to empty output, which
// yields the "unknown" brand.
func Probe(ctx context.Context, env *toolchain.Env, lang toolchain.Language) string {
	command := env.RunnerCommand(lang)
	res, err := env.Runner.Run(ctx, append(append([]string(nil), command...), "-version"),
		ports.RunOptions{AcceptAnyExit: true})
	if err != nil {
		env.Logger.Warn("runner version probe failed",
			"command", strings.Join(command, " "), "error", err)
		return ""
	}
	if res.Stdout != "" {
		return res.Stdout
	}
	return res.Stderr
}

// Builder wires the role objects of one JVM (language, command) pair.
type Builder struct {
	env  *toolchain.Env
	lang toolchain.Language

	brand   string
	version *semver.Version

	compiler *Compiler
	jar      *JarMaker
	runner   *Runner
	packages *PackageResolver
}

// NewBuilder identifies the JVM vendor from the runner's version output
// and builds every role object.
func NewBuilder(ctx context.Context, env *toolchain.Env, lang toolchain.Language,
	command []string, versionOutput string) (*Builder, error) {

	brand := "unknown"
	lower := strings.ToLower(versionOutput)
	switch {
	case strings.Contains(lower, "openjdk"):
		brand = "openjdk"
	case strings.Contains(lower, "epfl"):
		brand = "epfl"
	case strings.Contains(lower, "java"):
		brand = "oracle"
	}

	flags, err := toolchain.SplitFlagsVar(env, lang.FlagsVar, "")
	if err != nil {
		return nil, err
	}

	b := &Builder{
		env:     env,
		lang:    lang,
		brand:   brand,
		version: domain.DetectVersion(versionOutput),
	}
	b.compiler = newCompiler(b, lang, command,
		strings.ToLower(lang.CompilerVar), strings.ToLower(lang.FlagsVar), flags)
	b.jar = newJarMaker(b, lang, strings.Fields(env.Getvar("JAR", "jar")))
	b.runner = newRunner(env, lang)
	b.packages = newPackageResolver(ctx, b)
	return b, nil
}

func (b *Builder) Flavor() string           { return "jvm" }
func (b *Builder) Family() string           { return toolchain.FamilyJVM }
func (b *Builder) Brand() string            { return b.brand }
func (b *Builder) Version() *semver.Version { return b.version }
func (b *Builder) AutoLink() bool           { return false }
func (b *Builder) CanDualLink() bool        { return false }

func (b *Builder) Compiler() ports.Compiler { return b.compiler }

// PCHCompiler is always nil; the JVM has no header precompilation.
func (b *Builder) PCHCompiler() ports.Compiler { return nil }

// Linker returns the jar packager for both executable and shared modes.
// Static archives do not exist on the JVM.
func (b *Builder) Linker(mode ports.LinkMode) (ports.Linker, error) {
	switch mode {
	case ports.LinkExecutable, ports.LinkSharedLibrary:
		return b.jar, nil
	case ports.LinkStaticLibrary:
		return nil, domain.Annotate(domain.ErrStaticLinkUnsupported, "family", toolchain.FamilyJVM)
	default:
		return nil, domain.Annotate(domain.ErrUnknownLinkMode, "mode", string(mode))
	}
}

func (b *Builder) Packages() ports.PackageResolver { return b.packages }

// Runner executes built jars; the generated run aliases use it.
func (b *Builder) Runner() *Runner { return b.runner }
