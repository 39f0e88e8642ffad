// Package toolchain models abstract build commands — compilers, linkers and
// archivers — and the environment they are configured from. Family-specific
// behavior lives in the cc, ar, ld and jvm subpackages; this package holds
// what they compose: the environment, the language table and the shared
// command shape.
package toolchain

import (
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

// Env is the immutable configuration a toolchain is built from: environment
// variables, the probe runner, platform descriptions and the concrete base
// directories used to resolve paths on the host.
type Env struct {
	Vars   map[string]string
	Runner ports.Runner
	Logger ports.Logger
	Host   domain.Platform
	Target domain.Platform

	// BaseDirs maps every path root to a concrete host directory. Install
	// roots are pre-flattened from Target.InstallDirs.
	BaseDirs map[domain.Root]string

	// Backend names the build-file dialect being generated.
	Backend string
}

// NewEnv builds an Env, flattening the target's chained install roots into
// absolute base directories.
func NewEnv(vars map[string]string, runner ports.Runner, logger ports.Logger,
	host, target domain.Platform, srcDir, buildDir string) *Env {

	bases := map[domain.Root]string{
		domain.RootSrcDir:   srcDir,
		domain.RootBuildDir: buildDir,
	}
	// Install roots may chain (exec_prefix is relative to prefix), so
	// resolve them in declaration order.
	for _, root := range domain.InstallRoots {
		if p, ok := target.InstallDirs[root]; ok {
			bases[root] = p.Resolve(bases)
		}
	}

	return &Env{
		Vars:     vars,
		Runner:   runner,
		Logger:   logger,
		Host:     host,
		Target:   target,
		BaseDirs: bases,
		Backend:  "ninja",
	}
}

// Getvar looks up an environment variable with a default.
func (e *Env) Getvar(name, def string) string {
	if v, ok := e.Vars[name]; ok {
		return v
	}
	return def
}

// Language describes one supported language: the environment variables
// naming its tools and flags, and the fallback commands.
type Language struct {
	Name        string
	Family      string
	CompilerVar string
	FlagsVar    string
	RunnerVar   string

	DefaultCommand string
	DefaultRunner  string
}

// FamilyNative marks languages compiled by C-family toolchains;
// FamilyJVM marks languages built by JVM toolchains.
const (
	FamilyNative = "native"
	FamilyJVM    = "jvm"
)

var knownLanguages = map[string]Language{
	"c": {
		Name: "c", Family: FamilyNative,
		CompilerVar: "CC", FlagsVar: "CFLAGS", DefaultCommand: "cc",
	},
	"c++": {
		Name: "c++", Family: FamilyNative,
		CompilerVar: "CXX", FlagsVar: "CXXFLAGS", DefaultCommand: "c++",
	},
	"f95": {
		Name: "f95", Family: FamilyNative,
		CompilerVar: "FC", FlagsVar: "FFLAGS", DefaultCommand: "gfortran",
	},
	"java": {
		Name: "java", Family: FamilyJVM,
		CompilerVar: "JAVAC", FlagsVar: "JAVAFLAGS",
		RunnerVar: "JAVACMD", DefaultCommand: "javac", DefaultRunner: "java",
	},
	"scala": {
		Name: "scala", Family: FamilyJVM,
		CompilerVar: "SCALAC", FlagsVar: "SCALAFLAGS",
		RunnerVar: "SCALACMD", DefaultCommand: "scalac", DefaultRunner: "scala",
	},
}

// LookupLanguage finds a known language by name.
func LookupLanguage(name string) (Language, error) {
	lang, ok := knownLanguages[name]
	if !ok {
		return Language{}, domain.ErrUnknownLanguage
	}
	return lang, nil
}

// CompilerCommand returns the language's compiler invocation, honoring the
// language's environment variable.
func (e *Env) CompilerCommand(lang Language) []string {
	return e.commandVar(lang.CompilerVar, lang.DefaultCommand)
}

// RunnerCommand returns the language's runner invocation, for families that
// have one.
func (e *Env) RunnerCommand(lang Language) []string {
	return e.commandVar(lang.RunnerVar, lang.DefaultRunner)
}

func (e *Env) commandVar(envVar, def string) []string {
	raw := e.Getvar(envVar, def)
	if raw == def {
		return []string{def}
	}
	// User-provided commands may carry arguments ("ccache gcc").
	words := strings.Fields(raw)
	if len(words) == 0 {
		return []string{def}
	}
	return words
}

// BuildCommand is the composition helper shared by every role object: rule
// name, command variable, invocation, and environment-seeded default flags
// and libs. It provides the ports.Command surface so family packages only
// implement translation.
type BuildCommand struct {
	rule        string
	cmdVar      string
	cmd         []string
	flagsVar    string
	globalFlags []string
	libsVar     string
	globalLibs  []string
}

// NewBuildCommand creates the shared command shape.
func NewBuildCommand(rule, cmdVar string, cmd []string) BuildCommand {
	return BuildCommand{rule: rule, cmdVar: cmdVar, cmd: cmd}
}

// WithFlags seeds the flags variable name and default flags.
func (c BuildCommand) WithFlags(name string, flags []string) BuildCommand {
	c.flagsVar = name
	c.globalFlags = flags
	return c
}

// WithLibs seeds the libs variable name and default libs.
func (c BuildCommand) WithLibs(name string, libs []string) BuildCommand {
	c.libsVar = name
	c.globalLibs = libs
	return c
}

func (c BuildCommand) RuleName() string      { return c.rule }
func (c BuildCommand) CommandVar() string    { return c.cmdVar }
func (c BuildCommand) Command() []string     { return c.cmd }
func (c BuildCommand) FlagsVar() string      { return c.flagsVar }
func (c BuildCommand) GlobalFlags() []string { return c.globalFlags }
func (c BuildCommand) LibsVar() string       { return c.libsVar }
func (c BuildCommand) GlobalLibs() []string  { return c.globalLibs }

// UniquePaths deduplicates paths preserving first-seen order.
func UniquePaths(paths []domain.Path) []domain.Path {
	seen := make(map[domain.Path]bool, len(paths))
	out := make([]domain.Path, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// UniqueStrings deduplicates strings preserving first-seen order.
func UniqueStrings(strs []string) []string {
	seen := make(map[string]bool, len(strs))
	out := make([]string, 0, len(strs))
	for _, s := range strs {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
