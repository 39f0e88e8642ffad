package config_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/config"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/mason/internal/core/domain"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	return config.NewLoader(logger.NewWithWriter(io.Discard, slog.LevelInfo))
}

func TestLoad_FullProject(t *testing.T) {
	dir := writeProject(t, `
project: hello
language: c++

targets:
  hello:
    type: executable
    sources: [src/main.cpp]
    links: [greet]
    includeDirs: [include]
    defines: [NDEBUG, VERSION=2]
    std: c++17
    pthread: true
    compileOptions: [-Wall]
    linkOptions: ["-Wl,--as-needed"]
    packages:
      - zlib
      - name: ogg
        constraint: ">= 1.3"
        kind: static
        headers: [ogg/ogg.h]
        libs: [ogg]
  greet:
    type: shared_library
    sources: [src/greet.cpp]
    version: 1.2.3
    soversion: "1"
    pic: true
`)

	project, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "hello", project.Name)
	assert.Equal(t, "c++", project.Language)
	require.Len(t, project.Targets, 2)

	// Targets come back sorted by name.
	greet := project.Targets[0]
	assert.Equal(t, "greet", greet.Name)
	assert.Equal(t, domain.TargetSharedLibrary, greet.Type)
	assert.Equal(t, "1.2.3", greet.Version)
	assert.Equal(t, "1", greet.SOVersion)
	assert.True(t, greet.PIC)

	hello := project.Targets[1]
	assert.Equal(t, domain.TargetExecutable, hello.Type)
	assert.Equal(t, []string{"src/main.cpp"}, hello.Sources)
	assert.Equal(t, []string{"greet"}, hello.Links)
	assert.Equal(t, []string{"include"}, hello.IncludeDirs)
	assert.Equal(t, []domain.Define{
		{Name: "NDEBUG"},
		{Name: "VERSION", Value: "2"},
	}, hello.Defines)
	assert.Equal(t, "c++17", hello.Std)
	assert.True(t, hello.Pthread)
	assert.Equal(t, []string{"-Wall"}, hello.CompileOptions)
	assert.Equal(t, []string{"-Wl,--as-needed"}, hello.LinkOptions)

	require.Len(t, hello.Packages, 2)
	assert.Equal(t, domain.PackageRef{Name: "zlib", Kind: domain.KindAny},
		hello.Packages[0])
	assert.Equal(t, domain.PackageRef{
		Name:       "ogg",
		Constraint: ">= 1.3",
		Kind:       domain.KindStatic,
		Headers:    []string{"ogg/ogg.h"},
		Libs:       []string{"ogg"},
	}, hello.Packages[1])
}

func TestLoad_DefaultLanguage(t *testing.T) {
	dir := writeProject(t, `
project: hello
targets:
  hello:
    type: executable
    sources: [main.cpp]
`)

	project, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "c++", project.Language)
}

func TestLoad_HeaderOnlyPackage(t *testing.T) {
	dir := writeProject(t, `
project: hello
targets:
  hello:
    type: executable
    sources: [main.cpp]
    packages:
      - name: boost
        headers: [boost/version.hpp]
        libs: []
`)

	project, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	pkg := project.Targets[0].Packages[0]
	// An explicit empty list is kept apart from an absent one.
	require.NotNil(t, pkg.Libs)
	assert.Empty(t, pkg.Libs)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newLoader(t).Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := writeProject(t, "targets: [\n")

	_, err := newLoader(t).Load(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "invalid target type",
			content: `
project: p
targets:
  t:
    type: plugin
    sources: [a.cpp]
`,
			wantErr: domain.ErrInvalidTargetType,
		},
		{
			name: "no sources",
			content: `
project: p
targets:
  t:
    type: executable
`,
			wantErr: domain.ErrNoSources,
		},
		{
			name: "version without soversion",
			content: `
project: p
targets:
  t:
    type: shared_library
    sources: [a.cpp]
    version: 1.0.0
`,
			wantErr: domain.ErrVersionPairIncomplete,
		},
		{
			name: "unknown link target",
			content: `
project: p
targets:
  t:
    type: executable
    sources: [a.cpp]
    links: [missing]
`,
			wantErr: domain.ErrUnknownLinkTarget,
		},
		{
			name: "whole link of non-static target",
			content: `
project: p
targets:
  t:
    type: executable
    sources: [a.cpp]
    wholeLinks: [dep]
  dep:
    type: shared_library
    sources: [b.cpp]
`,
			wantErr: domain.ErrWholeArchiveNotStatic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, tt.content)
			_, err := newLoader(t).Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_InvalidPackageKind(t *testing.T) {
	dir := writeProject(t, `
project: p
targets:
  t:
    type: executable
    sources: [a.cpp]
    packages:
      - name: zlib
        kind: frozen
`)

	_, err := newLoader(t).Load(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid package kind")
}
