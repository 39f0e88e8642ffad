package config

import "gopkg.in/yaml.v3"

// Masonfile represents the structure of the mason.yaml project file.
type Masonfile struct {
	Project  string                `yaml:"project"`
	Language string                `yaml:"language"`
	Targets  map[string]*TargetDTO `yaml:"targets"`
}

// TargetDTO represents a target definition in the project file.
type TargetDTO struct {
	Type    string   `yaml:"type"`
	Sources []string `yaml:"sources"`

	Packages []PackageDTO `yaml:"packages"`
	Links    []string     `yaml:"links"`
	// WholeLinks are static-library targets linked with every member.
	WholeLinks []string `yaml:"wholeLinks"`

	IncludeDirs []string `yaml:"includeDirs"`
	Defines     []string `yaml:"defines"`
	Std         string   `yaml:"std"`
	Pthread     bool     `yaml:"pthread"`
	PIC         bool     `yaml:"pic"`
	PCH         string   `yaml:"pch"`

	CompileOptions []string `yaml:"compileOptions"`
	LinkOptions    []string `yaml:"linkOptions"`

	Version    string `yaml:"version"`
	SOVersion  string `yaml:"soversion"`
	EntryPoint string `yaml:"entryPoint"`
}

// PackageDTO represents one external dependency. It accepts either a bare
// package name or a mapping with constraint and lookup details.
type PackageDTO struct {
	Name       string   `yaml:"name"`
	Constraint string   `yaml:"constraint"`
	Kind       string   `yaml:"kind"`
	Headers    []string `yaml:"headers"`
	// Libs nil keeps the default library lookup; an explicit empty list
	// makes the package header-only.
	Libs *[]string `yaml:"libs"`
}

// UnmarshalYAML lets a package entry be written as a plain string.
func (p *PackageDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Name = value.Value
		return nil
	}
	type raw PackageDTO
	return value.Decode((*raw)(p))
}
