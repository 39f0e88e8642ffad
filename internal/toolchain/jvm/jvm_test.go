package jvm_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/core/ports/mocks"
	"go.trai.ch/mason/internal/toolchain"
	"go.trai.ch/mason/internal/toolchain/jvm"
	"go.uber.org/mock/gomock"
)

const openjdkVersionOutput = `openjdk version "17.0.2" 2022-01-18
OpenJDK Runtime Environment (build 17.0.2+8-86)
`

// stubRunner answers the VM settings probe a builder makes during
// construction. classDirs lands in java.class.path.
func stubRunner(t *testing.T, classDirs string) ports.Runner {
	t.Helper()
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		AnyTimes().
		DoAndReturn(func(_ context.Context, argv []string, _ ports.RunOptions) (ports.RunResult, error) {
			if argv[len(argv)-1] == "-version" && len(argv) > 1 &&
				argv[len(argv)-2] == "-XshowSettings:properties" {
				return ports.RunResult{
					Stderr: "Property settings:\n" +
						"    java.class.path = " + classDirs + "\n" +
						"    java.version = 17.0.2\n",
				}, nil
			}
			return ports.RunResult{}, nil
		})
	return runner
}

func newEnv(t *testing.T, vars map[string]string, runner ports.Runner) *toolchain.Env {
	t.Helper()
	platform := domain.LinuxPlatform()
	return toolchain.NewEnv(vars, runner, logger.NewWithWriter(io.Discard, slog.LevelInfo),
		platform, platform, "/src", "/build")
}

func newBuilder(t *testing.T, vars map[string]string, classDirs,
	versionOutput string) *jvm.Builder {

	t.Helper()
	env := newEnv(t, vars, stubRunner(t, classDirs))
	lang, err := toolchain.LookupLanguage("java")
	require.NoError(t, err)

	b, err := jvm.NewBuilder(context.Background(), env, lang,
		[]string{"javac"}, versionOutput)
	require.NoError(t, err)
	return b
}

// The compiler's own version query prints no vendor string (a bare
// "javac 17.0.2"), so the probe goes through the runner, whose banner
// lands on stderr.
func TestProbe_QueriesRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), []string{"java", "-version"},
			ports.RunOptions{AcceptAnyExit: true}).
		Return(ports.RunResult{Stderr: openjdkVersionOutput, ExitCode: 2}, nil)

	lang, err := toolchain.LookupLanguage("java")
	require.NoError(t, err)
	out := jvm.Probe(context.Background(), newEnv(t, nil, runner), lang)
	assert.Equal(t, openjdkVersionOutput, out)
}

func TestProbe_HonorsRunnerVariable(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), []string{"/opt/jdk/bin/java", "-version"}, gomock.Any()).
		Return(ports.RunResult{Stderr: openjdkVersionOutput}, nil)

	env := newEnv(t, map[string]string{"JAVACMD": "/opt/jdk/bin/java"}, runner)
	lang, err := toolchain.LookupLanguage("java")
	require.NoError(t, err)
	assert.Equal(t, openjdkVersionOutput, jvm.Probe(context.Background(), env, lang))
}

func TestProbe_FailureDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.RunResult{}, assert.AnError)

	lang, err := toolchain.LookupLanguage("java")
	require.NoError(t, err)
	assert.Empty(t, jvm.Probe(context.Background(), newEnv(t, nil, runner), lang))
}

func TestNewBuilder_BrandDetection(t *testing.T) {
	tests := []struct {
		name   string
		output string
		brand  string
	}{
		{name: "openjdk", output: openjdkVersionOutput, brand: "openjdk"},
		{
			name:   "scala",
			output: "Scala code runner version 2.13.8 -- Copyright 2002-2021, LAMP/EPFL\n",
			brand:  "epfl",
		},
		{name: "oracle", output: "java version \"1.8.0_292\"\n", brand: "oracle"},
		{name: "unknown", output: "something else\n", brand: "unknown"},
		// A failed probe degrades to empty output.
		{name: "empty", output: "", brand: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder(t, nil, "", tt.output)
			assert.Equal(t, tt.brand, b.Brand())
			assert.Equal(t, "jvm", b.Flavor())
			assert.False(t, b.CanDualLink())
			assert.Nil(t, b.PCHCompiler())
		})
	}
}

func TestBuilder_LinkerModes(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)

	exe, err := b.Linker(ports.LinkExecutable)
	require.NoError(t, err)
	shared, err := b.Linker(ports.LinkSharedLibrary)
	require.NoError(t, err)
	assert.Same(t, exe, shared)

	_, err = b.Linker(ports.LinkStaticLibrary)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStaticLinkUnsupported)
}

func TestCompiler_Shape(t *testing.T) {
	b := newBuilder(t, map[string]string{"JAVAFLAGS": "-g"}, "", openjdkVersionOutput)
	c := b.Compiler()

	assert.Equal(t, "javac", c.RuleName())
	assert.Equal(t, []string{"-g"}, c.GlobalFlags())
	assert.Equal(t, []string{"-verbose", "-d", "."}, c.AlwaysFlags())
	assert.Empty(t, c.DepsStyle())
	assert.False(t, c.AcceptsPCH())

	jc, ok := c.(*jvm.Compiler)
	require.True(t, ok)
	assert.Equal(t, []string{"mason", "jvmoutput", "-o"}, jc.OutputWrapper())
}

func TestCompiler_ClasspathFlags(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)

	jarA := &domain.Library{
		Path: domain.NewPath(domain.RootBuildDir, "a.jar"), Format: domain.FormatJVM,
	}
	jarB := &domain.Library{
		Path: domain.AbsPath("/opt/jars/b.jar"), Format: domain.FormatJVM,
	}

	flags, err := b.Compiler().Flags(domain.OptionList{
		domain.LinkLib{Library: jarA},
		domain.LinkLib{Library: jarB},
		domain.LinkLib{Library: jarA}, // duplicates collapse
		domain.Raw{Value: "-g"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Fragment{
		domain.Literal("-g"),
		domain.Literal("-cp"),
		domain.Join([]domain.Fragment{jarA.Path, jarB.Path},
			string(os.PathListSeparator)),
	}, flags)
}

func TestCompiler_RejectsNamedLibs(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)

	_, err := b.Compiler().Flags(domain.OptionList{
		domain.LinkLib{Library: domain.NamedLib("m")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidLibraryName)
}

func TestCompiler_OutputFile(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)

	out := b.Compiler().OutputFile("app")
	classList, ok := out.(*domain.ClassList)
	require.True(t, ok)
	assert.Equal(t, domain.NewPath(domain.RootBuildDir, "app.classlist"), classList.Path)
}

func TestJarMaker_OutputFile(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)
	jar, err := b.Linker(ports.LinkExecutable)
	require.NoError(t, err)

	outputs, err := jar.OutputFile("app", ports.LinkContext{})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	lib, ok := outputs[0].(*domain.Library)
	require.True(t, ok)
	assert.Equal(t, domain.NewPath(domain.RootBuildDir, "app.jar"), lib.Path)
	assert.Equal(t, domain.FormatJVM, lib.Format)

	outputs, err = jar.OutputFile("app", ports.LinkContext{EntryPoint: "com.example.Main"})
	require.NoError(t, err)
	_, ok = outputs[0].(*domain.ExecutableLibrary)
	assert.True(t, ok)
}

func TestJarMaker_Manifest(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)
	linker, err := b.Linker(ports.LinkExecutable)
	require.NoError(t, err)
	jar, ok := linker.(*jvm.JarMaker)
	require.True(t, ok)

	opts := domain.OptionList{
		domain.LinkLib{Library: &domain.Library{
			Path:   domain.NewPath(domain.RootBuildDir, "libs/dep.jar"),
			Format: domain.FormatJVM,
		}},
		domain.LinkLib{Library: &domain.Library{
			Path: domain.AbsPath("/opt/jars/ext.jar"), Format: domain.FormatJVM,
		}},
	}

	manifest, lines, err := jar.Manifest("app", opts, ports.LinkContext{
		EntryPoint: "com.example.Main",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NewPath(domain.RootBuildDir, "app-manifest.txt"), manifest.Path)
	assert.Equal(t, []string{
		"Class-Path: libs/dep.jar /opt/jars/ext.jar",
		"Main-Class: com.example.Main",
	}, lines)
}

func TestJarMaker_ManifestEmpty(t *testing.T) {
	b := newBuilder(t, nil, "", openjdkVersionOutput)
	linker, err := b.Linker(ports.LinkExecutable)
	require.NoError(t, err)
	jar := linker.(*jvm.JarMaker)

	_, lines, err := jar.Manifest("app", nil, ports.LinkContext{})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPackageResolver_FindsJars(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "dep.jar")
	require.NoError(t, os.WriteFile(jarPath, []byte("PK"), 0o644))

	b := newBuilder(t, nil, dir, openjdkVersionOutput)

	pkg, err := b.Packages().Resolve(context.Background(), "dep", "",
		domain.KindAny, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJVM, pkg.Format)

	// The same jar feeds the classpath and the manifest Class-Path.
	require.Len(t, pkg.Compile, 1)
	require.Len(t, pkg.Link, 1)
	lib := pkg.Compile[0].(domain.LinkLib).Library.(*domain.Library)
	assert.Equal(t, filepath.ToSlash(jarPath), lib.Path.S)
}

func TestPackageResolver_Misses(t *testing.T) {
	b := newBuilder(t, nil, t.TempDir(), openjdkVersionOutput)

	_, err := b.Packages().Resolve(context.Background(), "missing", "",
		domain.KindAny, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPackageResolution)

	// Jars on the search path carry no version metadata.
	_, err = b.Packages().Resolve(context.Background(), "dep", ">= 2.0",
		domain.KindAny, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPackageResolution)
}

func TestRunner_InvokeArgs(t *testing.T) {
	env := newEnv(t, nil, stubRunner(t, ""))

	javaLang, err := toolchain.LookupLanguage("java")
	require.NoError(t, err)
	javaBuilder, err := jvm.NewBuilder(context.Background(), env, javaLang,
		[]string{"javac"}, openjdkVersionOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"java"}, javaBuilder.Runner().Command())
	assert.Equal(t, []string{"-jar"}, javaBuilder.Runner().InvokeArgs())

	scalaLang, err := toolchain.LookupLanguage("scala")
	require.NoError(t, err)
	scalaBuilder, err := jvm.NewBuilder(context.Background(), env, scalaLang,
		[]string{"scalac"}, "Scala code runner version 2.13.8 -- LAMP/EPFL\n")
	require.NoError(t, err)
	assert.Nil(t, scalaBuilder.Runner().InvokeArgs())
}
