// Package ar implements the static-library linker role backed by the system
// archiver.
package ar

import (
	"fmt"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// Linker archives object files into a static library. The archiver takes no
// library references and no search paths; nearly every option is rejected.
type Linker struct {
	toolchain.BuildCommand

	env    *toolchain.Env
	lang   string
	format string
}

// NewLinker configures the archiver from the AR and ARFLAGS environment
// variables.
func NewLinker(env *toolchain.Env, format, lang string) (*Linker, error) {
	command := env.Getvar("AR", "ar")
	flags, err := toolchain.SplitFlagsVar(env, "ARFLAGS", "cr")
	if err != nil {
		return nil, err
	}

	cmd := toolchain.NewBuildCommand("ar", "ar", strings.Fields(command)).
		WithFlags("arflags", flags)
	return &Linker{BuildCommand: cmd, env: env, lang: lang, format: format}, nil
}

func (l *Linker) Flavor() string { return "ar" }
func (l *Linker) Lang() string   { return l.lang }

// CanLink accepts any object of the toolchain's format; archives do not care
// about source language.
func (l *Linker) CanLink(format string, langs []string) bool {
	return format == l.format
}

func (l *Linker) AlwaysFlags() []string { return nil }

// Flags accepts only raw passthrough options.
func (l *Linker) Flags(opts domain.OptionList, output domain.FileArtifact) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.Raw:
			flags = append(flags, domain.Literal(o.Value))
		case domain.PIC, domain.Pthread:
			// Compile-side options that also appear on link option lists;
			// irrelevant to archiving.
		default:
			return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", opt))
		}
	}
	return flags, nil
}

// LibFlags returns nothing; archives never reference other libraries.
func (l *Linker) LibFlags(opts domain.OptionList) ([]domain.Fragment, error) {
	return nil, nil
}

// OutputFile names the archive lib<name>.a, honoring directory components in
// name.
func (l *Linker) OutputFile(name string, ctx ports.LinkContext) ([]domain.FileArtifact, error) {
	path := toolchain.LibraryPath(name, "lib", ".a")
	return []domain.FileArtifact{
		&domain.StaticLibrary{Path: path, Format: l.format, Lang: l.lang},
	}, nil
}
