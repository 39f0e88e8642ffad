// Package app implements the application layer for mason.
package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
	"go.trai.ch/zerr"
)

// BuildFileName is the build file mason generates in the build directory.
const BuildFileName = "build.ninja"

// App represents the main application logic.
type App struct {
	loader    ports.ConfigLoader
	runner    ports.Runner
	pkgConfig ports.PkgConfig
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner ports.Runner,
	pkgConfig ports.PkgConfig,
	log ports.Logger,
) *App {
	return &App{
		loader:    loader,
		runner:    runner,
		pkgConfig: pkgConfig,
		logger:    log,
	}
}

// ConfigureOptions configuration for the Configure method.
type ConfigureOptions struct {
	SrcDir   string
	BuildDir string
}

// Configure loads the project, probes a toolchain per language and writes
// the build file. An up-to-date build file is left untouched so the
// regeneration edge stays clean.
func (a *App) Configure(ctx context.Context, opts ConfigureOptions) error {
	srcDir, err := filepath.Abs(opts.SrcDir)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve source directory")
	}
	buildDir, err := filepath.Abs(opts.BuildDir)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve build directory")
	}
	if srcDir == buildDir {
		return domain.ErrBuildDirIsSrcDir
	}

	project, err := a.loader.Load(srcDir)
	if err != nil {
		return err
	}
	a.logger.Info("loaded project",
		"name", project.Name, "targets", len(project.Targets))

	platform := hostPlatform()
	env := toolchain.NewEnv(environMap(), a.runner, a.logger,
		platform, platform, srcDir, buildDir)

	langs, err := projectLanguages(project)
	if err != nil {
		return err
	}
	toolchains, err := buildToolchains(ctx, env, langs, a.pkgConfig)
	if err != nil {
		return err
	}

	file, err := NewGenerator(env, project, toolchains, a.logger).Generate(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return err
	}
	return a.writeBuildFile(filepath.Join(buildDir, BuildFileName), buf.Bytes())
}

// writeBuildFile writes the serialized build file, skipping the write when
// the content is unchanged to keep the file's mtime stable.
func (a *App) writeBuildFile(path string, content []byte) error {
	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == xxhash.Sum64(content) {
			a.logger.Debug("build file unchanged", "path", path)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create build directory")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write build file")
	}
	a.logger.Info("wrote build file", "path", path)
	return nil
}

// hostPlatform describes the platform mason is running on.
func hostPlatform() domain.Platform {
	switch runtime.GOOS {
	case "darwin":
		return domain.DarwinPlatform()
	case "windows":
		return domain.WindowsGNUPlatform()
	default:
		return domain.LinuxPlatform()
	}
}

// environMap snapshots the process environment as a map.
func environMap() map[string]string {
	environ := os.Environ()
	vars := make(map[string]string, len(environ))
	for _, entry := range environ {
		name, value, _ := strings.Cut(entry, "=")
		vars[name] = value
	}
	return vars
}
