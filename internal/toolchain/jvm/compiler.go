package jvm

import (
	"fmt"
	"os"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/toolchain"
)

// Compiler compiles JVM sources. Its real output is a set of class files;
// the build edge tracks a class-list file produced by filtering the
// compiler's verbose output.
type Compiler struct {
	toolchain.BuildCommand

	builder *Builder
	lang    toolchain.Language
}

func newCompiler(b *Builder, lang toolchain.Language, command []string,
	cmdVar, flagsVar string, flags []string) *Compiler {

	return &Compiler{
		BuildCommand: toolchain.NewBuildCommand(cmdVar, cmdVar, command).
			WithFlags(flagsVar, flags),
		builder: b,
		lang:    lang,
	}
}

func (c *Compiler) Flavor() string    { return "jvm" }
func (c *Compiler) Lang() string      { return c.lang.Name }
func (c *Compiler) AcceptsPCH() bool  { return false }
func (c *Compiler) DepsStyle() string { return "" }

// AlwaysFlags makes the compiler report written class files and drop them
// next to the tracked output.
func (c *Compiler) AlwaysFlags() []string {
	return []string{"-verbose", "-d", "."}
}

// OutputWrapper is the command prefix that filters the compiler's verbose
// output into the class list named by its final argument.
func (c *Compiler) OutputWrapper() []string {
	return []string{"mason", "jvmoutput", "-o"}
}

// Flags translates compile-side options. Library references become one
// deduplicated classpath.
func (c *Compiler) Flags(opts domain.OptionList) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	var classpath []domain.Fragment

	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.LinkLib:
			entry, err := classpathEntry(o.Library)
			if err != nil {
				return nil, err
			}
			classpath = append(classpath, entry)
		case domain.Raw:
			flags = append(flags, domain.Literal(o.Value))
		default:
			return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", opt))
		}
	}

	if classpath = toolchain.UniqueFragments(classpath); len(classpath) > 0 {
		flags = append(flags,
			domain.Literal("-cp"),
			domain.Join(classpath, string(os.PathListSeparator)))
	}
	return flags, nil
}

// OutputFile names the class-list artifact for a source file.
func (c *Compiler) OutputFile(name string) domain.FileArtifact {
	return &domain.ClassList{
		Path: domain.NewPath(domain.RootBuildDir, name+".classlist"),
		Lang: c.lang.Name,
	}
}

// classpathEntry extracts the path of a JVM library reference. Only
// concrete jar or class artifacts can sit on a classpath.
func classpathEntry(lib domain.Linkable) (domain.Fragment, error) {
	if artifact, ok := lib.(domain.FileArtifact); ok {
		return artifact.ArtifactPath(), nil
	}
	return nil, domain.Annotate(domain.ErrInvalidLibraryName, "library", fmt.Sprintf("%v", lib))
}
