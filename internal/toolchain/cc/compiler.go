package cc

import (
	"fmt"
	"slices"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/toolchain"
)

// Compiler compiles one translation unit per invocation. The same type
// serves as the precompiled-header compiler with pch set.
type Compiler struct {
	toolchain.BuildCommand

	builder *Builder
	lang    toolchain.Language
	pch     bool
}

func newCompiler(b *Builder, lang toolchain.Language, command []string,
	cmdVar, flagsVar string, cflags []string, pch bool) *Compiler {

	rule := cmdVar
	if pch {
		rule = cmdVar + "_pch"
	}
	return &Compiler{
		BuildCommand: toolchain.NewBuildCommand(rule, cmdVar, command).
			WithFlags(flagsVar, cflags),
		builder: b,
		lang:    lang,
		pch:     pch,
	}
}

func (c *Compiler) Flavor() string { return "cc" }
func (c *Compiler) Lang() string   { return c.lang.Name }

// AcceptsPCH reports whether compile steps may consume a precompiled
// header. The header compiler itself does not.
func (c *Compiler) AcceptsPCH() bool { return !c.pch }

// DepsStyle names the Makefile-style dependency output of the driver.
func (c *Compiler) DepsStyle() string { return "gcc" }

// AlwaysFlags pins the source language and, for backends that consume the
// output through a pipe, forces colored diagnostics back on.
func (c *Compiler) AlwaysFlags() []string {
	langName := c.lang.Name
	if c.pch {
		langName += "-header"
	}
	flags := []string{"-x", langName}

	if c.builder.env.Backend == "ninja" {
		switch {
		case c.builder.brand == "clang":
			flags = append(flags, "-fcolor-diagnostics")
		case c.builder.brand == "gcc" &&
			domain.VersionInRange(c.builder.version, ">= 4.9.0"):
			flags = append(flags, "-fdiagnostics-color")
		}
	}
	return flags
}

// Flags translates compile-side options in order.
func (c *Compiler) Flags(opts domain.OptionList) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.IncludeDir:
			flags = append(flags, c.includeDirFlags(o.Dir)...)
		case domain.Define:
			if o.Value == "" {
				flags = append(flags, domain.Literal("-D"+o.Name))
			} else {
				flags = append(flags, domain.Literal("-D"+o.Name+"="+o.Value))
			}
		case domain.Std:
			flags = append(flags, domain.Literal("-std="+o.Value))
		case domain.Pthread:
			flags = append(flags, domain.Literal("-pthread"))
		case domain.PIC:
			flags = append(flags, domain.Literal("-fPIC"))
		case domain.UsePCH:
			flags = append(flags, domain.Literal("-include"), o.Header.Path.StripExt())
		case domain.Raw:
			flags = append(flags, domain.Literal(o.Value))
		default:
			return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", opt))
		}
	}
	return flags, nil
}

// includeDirFlags picks -isystem for system directories, except for the
// compiler's default directories: re-adding /usr/include via -isystem
// changes its search position and breaks #include_next in libstdc++'s
// stdlib.h wrapper on GCC 6.
func (c *Compiler) includeDirFlags(dir domain.HeaderDirectory) []domain.Fragment {
	resolved := dir.Path.Resolve(c.builder.env.BaseDirs)
	isDefault := slices.Contains(c.builder.env.Host.IncludeDirs, resolved)

	if dir.System && !isDefault {
		return []domain.Fragment{domain.Literal("-isystem"), dir.Path}
	}
	return []domain.Fragment{domain.Composite{domain.Literal("-I"), dir.Path}}
}

// OutputFile names the object (or precompiled header) for a source file.
func (c *Compiler) OutputFile(name string) domain.FileArtifact {
	if c.pch {
		ext := ".pch"
		if c.builder.brand == "gcc" {
			ext = ".gch"
		}
		return &domain.PrecompiledHeader{
			Path: domain.NewPath(domain.RootBuildDir, name+ext),
			Lang: c.lang.Name,
		}
	}
	return &domain.ObjectFile{
		Path:   domain.NewPath(domain.RootBuildDir, name+".o"),
		Format: c.builder.objectFormat,
		Lang:   c.lang.Name,
	}
}
