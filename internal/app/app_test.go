package app_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/config"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/core/domain"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, slog.LevelInfo)
	return app.New(config.NewLoader(log), stubRunner(t), nil, log)
}

func TestConfigure_WritesBuildFile(t *testing.T) {
	srcDir := t.TempDir()
	buildDir := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, config.FileName), []byte(`
project: hello
targets:
  hello:
    type: executable
    sources: [main.cpp]
`), 0o644))

	a := newApp(t)
	err := a.Configure(context.Background(), app.ConfigureOptions{
		SrcDir:   srcDir,
		BuildDir: buildDir,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(buildDir, app.BuildFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "rule regen\n")
	assert.Contains(t, string(content), "default all\n")

	// A second pass leaves the up-to-date file untouched.
	info, err := os.Stat(filepath.Join(buildDir, app.BuildFileName))
	require.NoError(t, err)
	before := info.ModTime()

	require.NoError(t, a.Configure(context.Background(), app.ConfigureOptions{
		SrcDir:   srcDir,
		BuildDir: buildDir,
	}))
	info, err = os.Stat(filepath.Join(buildDir, app.BuildFileName))
	require.NoError(t, err)
	assert.Equal(t, before, info.ModTime())
}

func TestConfigure_RejectsInTreeBuild(t *testing.T) {
	dir := t.TempDir()

	err := newApp(t).Configure(context.Background(), app.ConfigureOptions{
		SrcDir:   dir,
		BuildDir: dir,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildDirIsSrcDir)
}

func TestConfigure_MissingProjectFile(t *testing.T) {
	err := newApp(t).Configure(context.Background(), app.ConfigureOptions{
		SrcDir:   t.TempDir(),
		BuildDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}
