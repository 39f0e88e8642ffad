// Package ld wraps the underlying system linker discovered behind a C-family
// compiler driver. It never translates build options; its job is identifying
// the linker brand and scraping its library search path.
package ld

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

var searchDirRE = regexp.MustCompile(`SEARCH_DIR\("(=?)([^"]*)"\)`)

// Linker is the raw linker role of a native toolchain.
type Linker struct {
	toolchain.BuildCommand

	env     *toolchain.Env
	lang    string
	brand   string
	version *semver.Version
}

// NewLinker identifies the linker from the output of its --version probe.
// Unrecognized output yields the "unknown" brand and a nil version.
func NewLinker(env *toolchain.Env, lang string, command []string, versionOutput string) *Linker {
	brand := "unknown"
	var version *semver.Version
	switch {
	case strings.Contains(versionOutput, "GNU gold"):
		brand = "gold"
		version = domain.DetectVersion(versionOutput)
	case strings.Contains(versionOutput, "GNU ld"):
		brand = "bfd"
		version = domain.DetectVersion(versionOutput)
	case strings.Contains(versionOutput, "LLD"):
		brand = "lld"
		version = domain.DetectVersion(versionOutput)
	}

	return &Linker{
		BuildCommand: toolchain.NewBuildCommand("ld", "ld", command),
		env:          env,
		lang:         lang,
		brand:        brand,
		version:      version,
	}
}

func (l *Linker) Flavor() string           { return "ld" }
func (l *Linker) Lang() string             { return l.lang }
func (l *Linker) Brand() string            { return l.brand }
func (l *Linker) Version() *semver.Version { return l.version }

// CanLink always reports false; the raw linker is never addressed by build
// steps directly.
func (l *Linker) CanLink(format string, langs []string) bool { return false }

func (l *Linker) AlwaysFlags() []string { return nil }

// Flags passes raw strings through and rejects everything else.
func (l *Linker) Flags(opts domain.OptionList, output domain.FileArtifact) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.Raw:
			flags = append(flags, domain.Literal(o.Value))
		default:
			return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", opt))
		}
	}
	return flags, nil
}

// LibFlags passes library literals through and ignores everything else.
func (l *Linker) LibFlags(opts domain.OptionList) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	for _, opt := range opts {
		if o, ok := opt.(domain.LibLiteral); ok {
			flags = append(flags, domain.Literal(o.Value))
		}
	}
	return flags, nil
}

// OutputFile fails; raw link outputs are not modeled.
func (l *Linker) OutputFile(name string, ctx ports.LinkContext) ([]domain.FileArtifact, error) {
	return nil, domain.Annotate(domain.ErrUnknownLinkMode, "mode", string(ports.LinkRaw))
}

// SearchDirs scrapes the linker's built-in library directories from its
// --verbose output. Directories marked with '=' are rooted at sysroot.
// Probe failures degrade to an empty list.
func (l *Linker) SearchDirs(ctx context.Context, sysroot string) []string {
	res, err := l.env.Runner.Run(ctx, append(l.Command(), "--verbose"),
		ports.RunOptions{AcceptAnyExit: true})
	if err != nil {
		l.env.Logger.Debug("linker search-dir probe failed",
			"command", strings.Join(l.Command(), " "), "error", err)
		return nil
	}

	var dirs []string
	for _, m := range searchDirRE.FindAllStringSubmatch(res.Stdout, -1) {
		dir := m[2]
		if m[1] == "=" {
			dir = filepath.Join(sysroot, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
