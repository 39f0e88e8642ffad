package app

import (
	"go.trai.ch/mason/internal/adapters/ninja"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// outputWrapped is implemented by compilers whose real output must be
// recovered by filtering their invocation through a wrapper program.
type outputWrapped interface {
	OutputWrapper() []string
}

// declareCommandVars declares the command, flags and libs variables of a
// build command. Shared variables (ldflags across languages) keep their
// first declaration.
func (g *Generator) declareCommandVars(cmd ports.Command, flagsVar string,
	globalFlags []string, libsVar string, globalLibs []string) error {

	if _, err := g.file.Variable(cmd.CommandVar(),
		ninja.ValWords(cmd.Command()...), ninja.SectionCommand, true); err != nil {
		return err
	}
	if flagsVar != "" {
		if _, err := g.file.Variable(flagsVar,
			ninja.ValWords(globalFlags...), ninja.SectionFlags, true); err != nil {
			return err
		}
	}
	if libsVar != "" {
		if _, err := g.file.Variable(libsVar,
			ninja.ValWords(globalLibs...), ninja.SectionFlags, true); err != nil {
			return err
		}
	}
	return nil
}

// declareCompileRule declares the rule and variables of a compiler, once.
func (g *Generator) declareCompileRule(c ports.Compiler) error {
	if g.file.HasRule(c.RuleName()) {
		return nil
	}
	if err := g.declareCommandVars(c, c.FlagsVar(), c.GlobalFlags(), "", nil); err != nil {
		return err
	}

	var words []domain.Fragment
	tool := domain.Escaped("$" + c.CommandVar())
	flagsRef := domain.Escaped("$" + c.FlagsVar())

	if wrapped, ok := c.(outputWrapped); ok {
		// wrapper -o $out -- compiler flags... $in
		words = append(words, domain.Literals(wrapped.OutputWrapper()...)...)
		words = append(words, domain.Escaped("$out"), domain.Literal("--"), tool, flagsRef)
		words = append(words, domain.Literals(c.AlwaysFlags()...)...)
		words = append(words, domain.Escaped("$in"))
		return g.file.Rule(c.RuleName(), ninja.Rule{Command: ninja.ValArgv(words...)})
	}

	words = append(words, tool, flagsRef)
	words = append(words, domain.Literals(c.AlwaysFlags()...)...)
	words = append(words, domain.Literal("-c"), domain.Escaped("$in"))

	rule := ninja.Rule{}
	if deps := c.DepsStyle(); deps != "" {
		words = append(words, domain.Literal("-MMD"), domain.Literal("-MF"),
			domain.Escaped("$out.d"))
		rule.Depfile = domain.Escaped("$out.d")
		rule.Deps = deps
	}
	words = append(words, domain.Literal("-o"), domain.Escaped("$out"))

	rule.Command = ninja.ValArgv(words...)
	return g.file.Rule(c.RuleName(), rule)
}

// declareLinkRule declares the rule and variables of a linker, once. The
// invocation shape depends on the flavor: archivers and jar take the output
// positionally, compiler drivers use -o.
func (g *Generator) declareLinkRule(l ports.Linker) error {
	if g.file.HasRule(l.RuleName()) {
		return nil
	}
	err := g.declareCommandVars(l, l.FlagsVar(), l.GlobalFlags(), l.LibsVar(), l.GlobalLibs())
	if err != nil {
		return err
	}

	tool := domain.Escaped("$" + l.CommandVar())
	words := []domain.Fragment{tool}
	words = append(words, domain.Literals(l.AlwaysFlags()...)...)

	switch l.Flavor() {
	case "ar":
		words = append(words, domain.Escaped("$"+l.FlagsVar()),
			domain.Escaped("$out"), domain.Escaped("$in"))
	case "jar":
		words = append(words, domain.Escaped("$out"), domain.Escaped("$manifest"),
			domain.Composite{domain.Literal("@"), domain.Escaped("$in")})
	default:
		words = append(words, domain.Escaped("$"+l.FlagsVar()), domain.Escaped("$in"),
			domain.Escaped("$"+l.LibsVar()), domain.Literal("-o"), domain.Escaped("$out"))
	}

	return g.file.Rule(l.RuleName(), ninja.Rule{Command: ninja.ValArgv(words...)})
}

// declareWriteFileRule declares the rule that materializes small generated
// files from an edge variable, one line per word.
func (g *Generator) declareWriteFileRule() error {
	if g.file.HasRule(toolchain.WriteFileRuleName) {
		return nil
	}
	words := append(domain.Literals(toolchain.WriteFileCommand()...),
		domain.Escaped("$text"), domain.Escaped(">"), domain.Escaped("$out"))
	return g.file.Rule(toolchain.WriteFileRuleName,
		ninja.Rule{Command: ninja.ValArgv(words...)})
}

// declareSymlinkRule declares the rule behind versioned-library aliases.
func (g *Generator) declareSymlinkRule() error {
	if g.file.HasRule("symlink") {
		return nil
	}
	return g.file.Rule("symlink", ninja.Rule{
		Command: ninja.ValArgv(
			domain.Literal("ln"), domain.Literal("-sf"),
			domain.Escaped("$target"), domain.Escaped("$out"),
		),
	})
}
