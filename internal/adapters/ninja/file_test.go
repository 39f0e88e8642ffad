package ninja_test

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/ninja"
	"go.trai.ch/mason/internal/core/domain"
)

func newFile(t *testing.T) *ninja.File {
	t.Helper()
	return ninja.NewFile(ninja.DefaultPathVars())
}

func serialize(t *testing.T, f *ninja.File) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.String()
}

func TestFile_EmptyGraphWritesNothing(t *testing.T) {
	assert.Empty(t, serialize(t, newFile(t)))
}

func TestFile_BuildLineExact(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{Command: ninja.ValWords("gcc", "-c")}))

	require.NoError(t, f.Build(ninja.Build{
		Outputs:  domain.Literals("a.o", "b.o"),
		Rule:     "cc",
		Inputs:   domain.Literals("a.c"),
		Implicit: domain.Literals("header.h"),
	}))

	out := serialize(t, f)
	assert.Contains(t, out, "build a.o b.o: cc a.c | header.h\n")
}

func TestFile_BuildOmitsEmptyClauses(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Build(ninja.Build{
		Outputs: domain.Literals("all"),
		Rule:    ninja.PhonyRule,
		Inputs:  domain.Literals("a.out"),
	}))

	assert.Contains(t, serialize(t, f), "build all: phony a.out\n")
}

func TestFile_OrderOnlyClause(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cp", ninja.Rule{Command: ninja.ValWords("cp")}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs:   domain.Literals("out"),
		Rule:      "cp",
		Inputs:    domain.Literals("in"),
		OrderOnly: domain.Literals("dir.stamp"),
	}))

	assert.Contains(t, serialize(t, f), "build out: cp in || dir.stamp\n")
}

func TestFile_DuplicateOutputFails(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{Command: ninja.ValWords("gcc")}))
	require.NoError(t, f.Rule("cxx", ninja.Rule{Command: ninja.ValWords("g++")}))

	require.NoError(t, f.Build(ninja.Build{
		Outputs: domain.Literals("a.o"),
		Rule:    "cc",
		Inputs:  domain.Literals("a.c"),
	}))

	// A second producer fails no matter which rule or inputs it uses.
	err := f.Build(ninja.Build{
		Outputs: domain.Literals("a.o"),
		Rule:    "cxx",
		Inputs:  domain.Literals("other.cpp"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateBuildOutput)
}

func TestFile_InvalidRuleName(t *testing.T) {
	f := newFile(t)
	for _, name := range []string{"bad name", "bad-name", "bad.name", ""} {
		err := f.Rule(name, ninja.Rule{Command: ninja.ValWords("true")})
		require.Error(t, err, "rule name %q should be rejected", name)
		assert.ErrorIs(t, err, domain.ErrInvalidRuleName)
	}
}

func TestFile_DuplicateRuleFails(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{Command: ninja.ValWords("gcc")}))

	err := f.Rule("cc", ninja.Rule{Command: ninja.ValWords("clang")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateRule)
}

func TestFile_UnknownRuleReference(t *testing.T) {
	f := newFile(t)
	err := f.Build(ninja.Build{
		Outputs: domain.Literals("a.o"),
		Rule:    "nope",
		Inputs:  domain.Literals("a.c"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownRule)
}

func TestFile_DuplicateVariable(t *testing.T) {
	f := newFile(t)
	_, err := f.Variable("cflags", ninja.ValString("-O2"), ninja.SectionFlags, false)
	require.NoError(t, err)

	_, err = f.Variable("cflags", ninja.ValString("-O0"), ninja.SectionFlags, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateVariable)

	// Redeclaration keeps the first value when allowed.
	_, err = f.Variable("cflags", ninja.ValString("-O0"), ninja.SectionFlags, true)
	require.NoError(t, err)
	assert.Contains(t, serialize(t, f), "cflags = -O2\n")
	assert.NotContains(t, serialize(t, f), "-O0")
}

func TestFile_VariableNameSanitized(t *testing.T) {
	f := newFile(t)
	v, err := f.Variable("c++flags", ninja.ValString("-O2"), ninja.SectionFlags, false)
	require.NoError(t, err)
	assert.Equal(t, "c__flags", v.Name())
	assert.True(t, f.HasVariable("c++flags"))
}

func TestFile_SectionOrder(t *testing.T) {
	f := newFile(t)
	// Declared out of section order; emission follows section enumeration.
	_, err := f.Variable("cflags", ninja.ValString("-O2"), ninja.SectionFlags, false)
	require.NoError(t, err)
	_, err = f.Variable("cc", ninja.ValString("gcc"), ninja.SectionCommand, false)
	require.NoError(t, err)
	_, err = f.Variable("srcdir", ninja.Val(domain.AbsPath("/src")), ninja.SectionPath, false)
	require.NoError(t, err)

	out := serialize(t, f)
	assert.Equal(t, "srcdir = /src\n\ncc = gcc\n\ncflags = -O2\n\n", out)
}

func TestFile_EscapedOutputsAndInputs(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cp", ninja.Rule{Command: ninja.ValWords("cp")}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs: []domain.Fragment{domain.Literal("/usr/local dir:1")},
		Rule:    "cp",
		Inputs:  []domain.Fragment{domain.Literal("my file")},
	}))

	assert.Contains(t, serialize(t, f),
		"build /usr/local$ dir$:1: cp my$ file\n")
}

func TestFile_BuildVariableOverrides(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{Command: ninja.ValWords("gcc")}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs: domain.Literals("a.o"),
		Rule:    "cc",
		Inputs:  domain.Literals("a.c"),
		Variables: []ninja.Assignment{
			{Name: "cflags", Value: ninja.ValWords("-O3", "-DNDEBUG")},
			{Name: "extra", Value: ninja.ValString("1")},
		},
	}))

	out := serialize(t, f)
	assert.Contains(t, out, "build a.o: cc a.c\n  cflags = -O3 -DNDEBUG\n  extra = 1\n")
}

func TestFile_DefaultLine(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Build(ninja.Build{
		Outputs: domain.Literals("all"),
		Rule:    ninja.PhonyRule,
	}))
	f.Default(domain.Literal("all"), domain.Literal("docs"))

	out := serialize(t, f)
	assert.Contains(t, out, "\ndefault all docs\n")
}

func TestFile_RuleFieldsOnlyWhenSet(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{
		Command: ninja.ValArgv(domain.Literal("gcc"), domain.Literal("-c"),
			domain.Escaped("$in"), domain.Literal("-o"), domain.Escaped("$out")),
		Depfile: domain.Escaped("$out.d"),
		Deps:    "gcc",
	}))
	require.NoError(t, f.Rule("regen", ninja.Rule{
		Command:   ninja.ValWords("mason", "configure"),
		Generator: true,
		Restat:    true,
	}))

	out := serialize(t, f)
	assert.Contains(t, out, "rule cc\n  command = gcc -c $in -o $out\n  depfile = $out.d\n  deps = gcc\n\n")
	assert.Contains(t, out, "rule regen\n  command = mason configure\n  generator = 1\n  restat = 1\n\n")
}

func TestFile_PathRealization(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("cc", ninja.Rule{Command: ninja.ValWords("gcc")}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs: []domain.Fragment{domain.NewPath(domain.RootBuildDir, "obj/a.o")},
		Rule:    "cc",
		Inputs:  []domain.Fragment{domain.NewPath(domain.RootSrcDir, "a.c")},
	}))

	assert.Contains(t, serialize(t, f), "build obj/a.o: cc $srcdir/a.c\n")
}

func TestFile_ShellQuotedPathInCommand(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Rule("tool", ninja.Rule{
		Command: ninja.ValArgv(
			domain.Literal("run"),
			domain.NewPath(domain.RootSrcDir, "my dir/x"),
		),
	}))

	// The variable reference and the space both force whole-value quoting.
	assert.Contains(t, serialize(t, f), "rule tool\n  command = run '$srcdir/my dir/x'\n")
}

func TestFile_Golden(t *testing.T) {
	f := newFile(t)

	_, err := f.Variable("srcdir", ninja.Val(domain.AbsPath("/home/user/proj")), ninja.SectionPath, false)
	require.NoError(t, err)
	_, err = f.Variable("cxx", ninja.ValString("c++"), ninja.SectionCommand, false)
	require.NoError(t, err)
	_, err = f.Variable("cxxflags", ninja.ValWords("-O2", "-Wall"), ninja.SectionFlags, false)
	require.NoError(t, err)

	require.NoError(t, f.Rule("cxx", ninja.Rule{
		Command: ninja.ValArgv(
			domain.Escaped("$cxx"), domain.Escaped("$cxxflags"),
			domain.Literal("-c"), domain.Escaped("$in"),
			domain.Literal("-o"), domain.Escaped("$out"),
		),
		Depfile: domain.Escaped("$out.d"),
		Deps:    "gcc",
	}))
	require.NoError(t, f.Rule("link", ninja.Rule{
		Command: ninja.ValArgv(
			domain.Escaped("$cxx"), domain.Escaped("$in"),
			domain.Literal("-o"), domain.Escaped("$out"),
		),
	}))

	require.NoError(t, f.Build(ninja.Build{
		Outputs: []domain.Fragment{domain.NewPath(domain.RootBuildDir, "hello.o")},
		Rule:    "cxx",
		Inputs:  []domain.Fragment{domain.NewPath(domain.RootSrcDir, "hello.cpp")},
	}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs: []domain.Fragment{domain.NewPath(domain.RootBuildDir, "hello")},
		Rule:    "link",
		Inputs:  []domain.Fragment{domain.NewPath(domain.RootBuildDir, "hello.o")},
		Variables: []ninja.Assignment{
			{Name: "ldflags", Value: ninja.ValWords("-pthread")},
		},
	}))
	require.NoError(t, f.Build(ninja.Build{
		Outputs: domain.Literals("all"),
		Rule:    ninja.PhonyRule,
		Inputs:  []domain.Fragment{domain.NewPath(domain.RootBuildDir, "hello")},
	}))
	f.Default(domain.Literal("all"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	g := goldie.New(t)
	g.Assert(t, "basic", buf.Bytes())
}
