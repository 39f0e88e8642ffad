package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/cmd/mason/commands"
	"go.trai.ch/mason/internal/app"
)

// fakeApp records the calls the CLI makes into the application layer.
type fakeApp struct {
	configureOpts *app.ConfigureOptions
	configureErr  error

	jvmOutPath string
	jvmArgv    []string
}

func (f *fakeApp) Configure(_ context.Context, opts app.ConfigureOptions) error {
	f.configureOpts = &opts
	return f.configureErr
}

func (f *fakeApp) FilterJVMOutput(_ context.Context, outPath string, argv []string) error {
	f.jvmOutPath = outPath
	f.jvmArgv = argv
	return nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, string, error) {
	t.Helper()
	cli := commands.New(a)
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, &fakeApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "mason version dev (commit: none, date: unknown)\n", out)
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, &fakeApp{}, "--version")
	require.NoError(t, err)
	assert.Equal(t, "mason version dev (commit: none, date: unknown)\n", out)
}

func TestConfigureCommand(t *testing.T) {
	a := &fakeApp{}
	_, _, err := execute(t, a, "configure", "../project", "-B", "out")
	require.NoError(t, err)

	require.NotNil(t, a.configureOpts)
	assert.Equal(t, "../project", a.configureOpts.SrcDir)
	assert.Equal(t, "out", a.configureOpts.BuildDir)
}

func TestConfigureDefaultBuildDir(t *testing.T) {
	a := &fakeApp{}
	_, _, err := execute(t, a, "configure", ".")
	require.NoError(t, err)

	require.NotNil(t, a.configureOpts)
	assert.Equal(t, ".", a.configureOpts.BuildDir)
}

func TestConfigureRequiresSrcDir(t *testing.T) {
	a := &fakeApp{}
	_, _, err := execute(t, a, "configure")
	require.Error(t, err)
	assert.Nil(t, a.configureOpts)
}

func TestConfigureErrorPropagates(t *testing.T) {
	a := &fakeApp{configureErr: assert.AnError}
	_, _, err := execute(t, a, "configure", ".")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestJVMOutputCommand(t *testing.T) {
	a := &fakeApp{}
	_, _, err := execute(t, a, "jvmoutput", "-o", "app.classlist", "--",
		"javac", "-verbose", "Main.java")
	require.NoError(t, err)

	assert.Equal(t, "app.classlist", a.jvmOutPath)
	assert.Equal(t, []string{"javac", "-verbose", "Main.java"}, a.jvmArgv)
}

func TestJVMOutputRequiresOutputFlag(t *testing.T) {
	a := &fakeApp{}
	_, _, err := execute(t, a, "jvmoutput", "javac")
	require.Error(t, err)
	assert.Empty(t, a.jvmArgv)
}
