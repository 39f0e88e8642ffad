// Package config provides the project-file loader for mason.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileName is the project file mason looks for in the source directory.
const FileName = "mason.yaml"

// Loader reads and validates a mason.yaml project file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the project file from the source directory and returns the
// validated project model. Targets are ordered by name for determinism.
func (l *Loader) Load(srcDir string) (*domain.Project, error) {
	configPath := filepath.Join(srcDir, FileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()),
			"path", configPath)
	}

	var file Masonfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()),
			"path", configPath)
	}

	project := &domain.Project{
		Name:     file.Project,
		Language: file.Language,
	}
	if project.Language == "" {
		project.Language = "c++"
	}

	names := make([]string, 0, len(file.Targets))
	for name := range file.Targets {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		target, err := buildTarget(name, file.Targets[name])
		if err != nil {
			return nil, err
		}
		project.Targets = append(project.Targets, target)
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}
	return project, nil
}

func buildTarget(name string, dto *TargetDTO) (domain.Target, error) {
	target := domain.Target{
		Name:           name,
		Type:           domain.TargetType(dto.Type),
		Sources:        dto.Sources,
		Links:          dto.Links,
		WholeLinks:     dto.WholeLinks,
		IncludeDirs:    dto.IncludeDirs,
		Std:            dto.Std,
		Pthread:        dto.Pthread,
		PIC:            dto.PIC,
		PCH:            dto.PCH,
		CompileOptions: dto.CompileOptions,
		LinkOptions:    dto.LinkOptions,
		Version:        dto.Version,
		SOVersion:      dto.SOVersion,
		EntryPoint:     dto.EntryPoint,
	}

	for _, def := range dto.Defines {
		defName, value, _ := strings.Cut(def, "=")
		target.Defines = append(target.Defines, domain.Define{Name: defName, Value: value})
	}

	for _, pkg := range dto.Packages {
		kind, err := packageKind(pkg.Kind)
		if err != nil {
			return domain.Target{}, domain.Annotate(err, "target", name)
		}
		ref := domain.PackageRef{
			Name:       pkg.Name,
			Constraint: pkg.Constraint,
			Kind:       kind,
			Headers:    pkg.Headers,
		}
		if pkg.Libs != nil {
			ref.Libs = *pkg.Libs
			if ref.Libs == nil {
				ref.Libs = []string{}
			}
		}
		target.Packages = append(target.Packages, ref)
	}

	return target, nil
}

func packageKind(kind string) (domain.PackageKind, error) {
	switch kind {
	case "", "any":
		return domain.KindAny, nil
	case "shared":
		return domain.KindShared, nil
	case "static":
		return domain.KindStatic, nil
	default:
		return 0, zerr.With(zerr.New("invalid package kind"), "kind", kind)
	}
}
