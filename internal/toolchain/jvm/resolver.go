package jvm

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

// PackageResolver finds dependency jars on the VM's own search path,
// discovered by dumping the launcher's settings.
type PackageResolver struct {
	builder *Builder
	dirs    []string
}

func newPackageResolver(ctx context.Context, b *Builder) *PackageResolver {
	return &PackageResolver{builder: b, dirs: probeClassDirs(ctx, b)}
}

// probeClassDirs scrapes classpath-like directories from the launcher's
// settings dump. The dump lands on stderr and the probe exits non-zero on
// some VMs; failures degrade to an empty search path.
func probeClassDirs(ctx context.Context, b *Builder) []string {
	argv := append(append([]string(nil), b.runner.Command()...),
		"-XshowSettings:properties", "-version")
	res, err := b.env.Runner.Run(ctx, argv, ports.RunOptions{AcceptAnyExit: true})
	if err != nil {
		b.env.Logger.Debug("vm settings probe failed", "error", err)
		return nil
	}

	props := parseProperties(res.Stderr)
	var dirs []string
	for _, key := range []string{"java.class.path", "java.ext.dirs"} {
		for _, value := range props[key] {
			dirs = append(dirs, filepath.SplitList(value)...)
		}
	}
	return dirs
}

// parseProperties reads the "key = value" body of -XshowSettings output.
// Multi-valued properties continue on further indented lines.
func parseProperties(s string) map[string][]string {
	props := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if key, value, ok := strings.Cut(trimmed, " = "); ok {
			current = strings.TrimSpace(key)
			props[current] = append(props[current], strings.TrimSpace(value))
		} else if current != "" && strings.HasPrefix(line, "    ") {
			props[current] = append(props[current], trimmed)
		}
	}
	return props
}

// Resolve finds dependency jars by name. Headers are meaningless here and
// ignored; the kind distinction does not exist on the JVM.
func (r *PackageResolver) Resolve(ctx context.Context, name, constraint string,
	kind domain.PackageKind, headers, libNames []string) (*domain.Package, error) {

	// Jars on the VM search path carry no queryable version metadata.
	if constraint != "" {
		return nil, domain.Annotate(domain.ErrPackageResolution,
			"package", name, "constraint", constraint)
	}

	names := libNames
	if names == nil {
		names = []string{name}
	}

	var compile, link domain.OptionList
	for _, jarName := range names {
		jar, err := r.findJar(jarName)
		if err != nil {
			return nil, err
		}
		// The same jar feeds the compile classpath and the manifest
		// Class-Path.
		compile.Append(domain.LinkLib{Library: jar})
		link.Append(domain.LinkLib{Library: jar})
	}

	return &domain.Package{
		Name:    name,
		Format:  domain.FormatJVM,
		Compile: compile,
		Link:    link,
	}, nil
}

func (r *PackageResolver) findJar(name string) (*domain.Library, error) {
	fileName := name + ".jar"
	for _, dir := range r.dirs {
		full := filepath.Join(dir, fileName)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return &domain.Library{
				Path:   domain.AbsPath(filepath.ToSlash(full)),
				Format: domain.FormatJVM,
				Lang:   r.builder.lang.Name,
			}, nil
		}
	}
	return nil, domain.Annotate(domain.ErrPackageResolution, "library", name)
}
