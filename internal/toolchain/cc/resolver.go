package cc

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// PackageResolver locates native packages: through pkg-config metadata when
// available, otherwise by probing the toolchain's header and library search
// directories.
type PackageResolver struct {
	builder   *Builder
	pkgConfig ports.PkgConfig

	includeDirs []string
	libDirs     []string
}

func newPackageResolver(ctx context.Context, b *Builder, pkgConfig ports.PkgConfig) *PackageResolver {
	env := b.env

	cpath := filepath.SplitList(env.Getvar("CPATH", ""))
	includeDirs := existingDirs(toolchain.UniqueStrings(
		append(cpath, env.Host.IncludeDirs...)))

	exeLinker := b.linkers[ports.LinkExecutable].(*Linker)
	libDirs := exeLinker.SearchDirs(ctx)
	if b.rawLinker != nil {
		libDirs = append(libDirs, b.rawLinker.SearchDirs(ctx, exeLinker.Sysroot(ctx))...)
	}
	libDirs = append(libDirs, env.Host.LibDirs...)

	return &PackageResolver{
		builder:     b,
		pkgConfig:   pkgConfig,
		includeDirs: includeDirs,
		libDirs:     existingDirs(toolchain.UniqueStrings(libDirs)),
	}
}

// Resolve finds a package. libNames nil means "derive the library name from
// the package name"; an explicit empty list means header-only.
func (r *PackageResolver) Resolve(ctx context.Context, name, constraint string,
	kind domain.PackageKind, headers, libNames []string) (*domain.Package, error) {

	if r.pkgConfig != nil {
		pkg, err := r.pkgConfig.Resolve(ctx, name, r.builder.objectFormat, constraint, kind)
		if err == nil {
			return pkg, nil
		}
		r.builder.env.Logger.Debug("pkg-config lookup failed, probing filesystem",
			"package", name, "error", err)
	}

	// Filesystem hits carry no version metadata to check a constraint
	// against.
	if constraint != "" {
		return nil, domain.Annotate(domain.ErrPackageResolution,
			"package", name, "constraint", constraint)
	}

	var compile, link domain.OptionList
	for _, h := range headers {
		dir, err := r.header(h)
		if err != nil {
			return nil, err
		}
		compile.Append(domain.IncludeDir{Dir: dir})
	}

	libs := libNames
	if libs == nil {
		libs = []string{r.builder.env.Target.TransformPackage(name)}
	}
	for _, libName := range libs {
		if libName == "pthread" {
			compile.Append(domain.Pthread{})
			link.Append(domain.Pthread{})
			continue
		}
		lib, err := r.library(libName, kind)
		if err != nil {
			return nil, err
		}
		link.Append(domain.LinkLib{Library: lib})
	}

	return &domain.Package{
		Name:    name,
		Format:  r.builder.objectFormat,
		Compile: compile,
		Link:    link,
	}, nil
}

// header finds the directory providing a header file.
func (r *PackageResolver) header(name string) (domain.HeaderDirectory, error) {
	for _, dir := range r.includeDirs {
		if fileExists(filepath.Join(dir, filepath.FromSlash(name))) {
			return domain.HeaderDirectory{Path: domain.AbsPath(dir), System: true}, nil
		}
	}
	return domain.HeaderDirectory{}, domain.Annotate(domain.ErrPackageResolution, "header", name)
}

// library finds a library file by name, preferring shared over static when
// both kinds are acceptable, with a bare .lib fallback on import-library
// platforms.
func (r *PackageResolver) library(name string, kind domain.PackageKind) (domain.Linkable, error) {
	target := r.builder.env.Target
	lang := r.builder.lang.Name
	format := r.builder.objectFormat

	sharedName := "lib" + name + target.SharedLibraryExt
	if target.HasImportLibrary {
		sharedName += ".a"
	}
	staticName := "lib" + name + ".a"

	for _, dir := range r.libDirs {
		if kind&domain.KindShared != 0 && fileExists(filepath.Join(dir, sharedName)) {
			p := domain.AbsPath(dir + "/" + sharedName)
			if target.HasImportLibrary {
				return &domain.ImportLibrary{Path: p, Format: format}, nil
			}
			return &domain.SharedLibrary{Path: p, Format: format, Lang: lang}, nil
		}
		if kind&domain.KindStatic != 0 && fileExists(filepath.Join(dir, staticName)) {
			return &domain.StaticLibrary{
				Path: domain.AbsPath(dir + "/" + staticName), Format: format, Lang: lang,
			}, nil
		}
	}

	if target.HasImportLibrary {
		libName := name + ".lib"
		for _, dir := range r.libDirs {
			if fileExists(filepath.Join(dir, libName)) {
				return &domain.Library{
					Path: domain.AbsPath(dir + "/" + libName), Format: format, Lang: lang,
				}, nil
			}
		}
	}

	return nil, domain.Annotate(domain.ErrPackageResolution, "library", name)
}

func existingDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
