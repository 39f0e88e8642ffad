package jvm

import (
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// JarMaker packages class files into jars. It serves as the linker for both
// executable and shared-library modes; the difference is confined to the
// generated manifest.
type JarMaker struct {
	toolchain.BuildCommand

	builder *Builder
	lang    toolchain.Language
}

func newJarMaker(b *Builder, lang toolchain.Language, command []string) *JarMaker {
	return &JarMaker{
		BuildCommand: toolchain.NewBuildCommand("jar", "jar", command),
		builder:      b,
		lang:         lang,
	}
}

func (j *JarMaker) Flavor() string { return "jar" }
func (j *JarMaker) Lang() string   { return j.lang.Name }

func (j *JarMaker) CanLink(format string, langs []string) bool {
	return format == domain.FormatJVM
}

// AlwaysFlags: create, from file list, with manifest. The invocation shape
// is fixed: jar cfm <output> <manifest> <inputs>.
func (j *JarMaker) AlwaysFlags() []string { return []string{"cfm"} }

// Flags returns nothing; every option a jar target carries is realized in
// the manifest or at compile time.
func (j *JarMaker) Flags(opts domain.OptionList, output domain.FileArtifact) ([]domain.Fragment, error) {
	return nil, nil
}

// LibFlags returns nothing; dependency jars enter through the manifest's
// Class-Path.
func (j *JarMaker) LibFlags(opts domain.OptionList) ([]domain.Fragment, error) {
	return nil, nil
}

// OutputFile names the jar. An entry point upgrades it to a library that
// can also be executed.
func (j *JarMaker) OutputFile(name string, ctx ports.LinkContext) ([]domain.FileArtifact, error) {
	lib := domain.Library{
		Path:   domain.NewPath(domain.RootBuildDir, name+".jar"),
		Format: domain.FormatJVM,
		Lang:   j.lang.Name,
	}
	if ctx.EntryPoint != "" {
		return []domain.FileArtifact{&domain.ExecutableLibrary{Library: lib}}, nil
	}
	return []domain.FileArtifact{&lib}, nil
}

// Manifest builds the manifest artifact for a jar and its content lines:
// dependency jars as a Class-Path relative to the jar's own directory, and
// the Main-Class entry point when present.
func (j *JarMaker) Manifest(name string, opts domain.OptionList,
	ctx ports.LinkContext) (domain.ManifestFile, []string, error) {

	jarDir := domain.NewPath(domain.RootBuildDir, name).Parent()

	var entries []string
	for _, lib := range opts.Libs() {
		artifact, ok := lib.(domain.FileArtifact)
		if !ok {
			continue
		}
		p := artifact.ArtifactPath()
		if p.Root == jarDir.Root {
			rel, err := p.RelPath(jarDir, "")
			if err != nil {
				return domain.ManifestFile{}, nil, err
			}
			entries = append(entries, rel)
		} else {
			entries = append(entries, p.Resolve(j.builder.env.BaseDirs))
		}
	}

	var lines []string
	if len(entries) > 0 {
		lines = append(lines, "Class-Path: "+strings.Join(entries, " "))
	}
	if ctx.EntryPoint != "" {
		lines = append(lines, "Main-Class: "+ctx.EntryPoint)
	}

	manifest := domain.ManifestFile{
		Path: domain.NewPath(domain.RootBuildDir, name+"-manifest.txt"),
	}
	return manifest, lines, nil
}
