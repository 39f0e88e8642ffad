package app

import (
	"context"
	"strings"

	"go.trai.ch/mason/internal/adapters/ninja"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
	"go.trai.ch/mason/internal/toolchain/jvm"
)

// linkModes maps target types to linker roles.
var linkModes = map[domain.TargetType]ports.LinkMode{
	domain.TargetExecutable:    ports.LinkExecutable,
	domain.TargetSharedLibrary: ports.LinkSharedLibrary,
	domain.TargetStaticLibrary: ports.LinkStaticLibrary,
}

// Generator turns a project and its toolchains into a build graph.
type Generator struct {
	env        *toolchain.Env
	project    *domain.Project
	toolchains map[string]ports.Toolchain
	logger     ports.Logger

	file      *ninja.File
	artifacts map[string][]domain.FileArtifact
	linkers   map[string]ports.Linker
	packages  map[string]*domain.Package
}

// NewGenerator creates a Generator for one configure pass.
func NewGenerator(env *toolchain.Env, project *domain.Project,
	toolchains map[string]ports.Toolchain, logger ports.Logger) *Generator {

	return &Generator{
		env:        env,
		project:    project,
		toolchains: toolchains,
		logger:     logger,
		artifacts:  make(map[string][]domain.FileArtifact),
		linkers:    make(map[string]ports.Linker),
		packages:   make(map[string]*domain.Package),
	}
}

// Generate produces the complete build graph: path and tool variables,
// rules, one compile edge per translation unit, link edges, aliases and the
// self-regeneration edge.
func (g *Generator) Generate(ctx context.Context) (*ninja.File, error) {
	g.file = ninja.NewFile(ninja.DefaultPathVars())

	if err := g.declarePathVariables(); err != nil {
		return nil, err
	}

	// Name every artifact before emitting edges so targets can link
	// against each other regardless of declaration order.
	for i := range g.project.Targets {
		if err := g.nameArtifacts(&g.project.Targets[i]); err != nil {
			return nil, err
		}
	}
	g.recordRuntimeDeps()

	if err := g.resolvePackages(ctx); err != nil {
		return nil, err
	}

	var defaults []domain.Fragment
	for i := range g.project.Targets {
		target := &g.project.Targets[i]
		primary, err := g.emitTarget(ctx, target)
		if err != nil {
			return nil, domain.Annotate(err, "target", target.Name)
		}
		defaults = append(defaults, primary)
	}

	if err := g.emitRegen(); err != nil {
		return nil, err
	}

	if err := g.file.Build(ninja.Build{
		Outputs: domain.Literals("all"),
		Rule:    ninja.PhonyRule,
		Inputs:  defaults,
	}); err != nil {
		return nil, err
	}
	g.file.Default(domain.Literal("all"))

	return g.file, nil
}

func (g *Generator) declarePathVariables() error {
	declare := func(root domain.Root) error {
		_, err := g.file.Variable(root.String(),
			ninja.Val(domain.AbsPath(g.env.BaseDirs[root])), ninja.SectionPath, false)
		return err
	}

	if err := declare(domain.RootSrcDir); err != nil {
		return err
	}
	for _, root := range domain.InstallRoots {
		if err := declare(root); err != nil {
			return err
		}
	}
	return nil
}

// nameArtifacts asks the target's linker to name its outputs and remembers
// both for later passes.
func (g *Generator) nameArtifacts(target *domain.Target) error {
	lang, err := linkLanguage(target)
	if err != nil {
		return err
	}
	tc := g.toolchains[lang]

	linker, err := tc.Linker(linkModes[target.Type])
	if err != nil {
		return domain.Annotate(err, "target", target.Name)
	}

	outputs, err := linker.OutputFile(target.Name, linkContext(target))
	if err != nil {
		return err
	}
	g.linkers[target.Name] = linker
	g.artifacts[target.Name] = outputs
	return nil
}

// recordRuntimeDeps wires shared-library artifacts to the shared libraries
// their targets link, so rpath-link entries can follow transitive deps.
func (g *Generator) recordRuntimeDeps() {
	for i := range g.project.Targets {
		target := &g.project.Targets[i]
		self := domain.RuntimeFile(g.primaryLinkable(target.Name))
		if self == nil {
			continue
		}
		for _, link := range target.Links {
			if dep := domain.RuntimeFile(g.primaryLinkable(link)); dep != nil {
				self.RuntimeDeps = append(self.RuntimeDeps, dep)
			}
		}
	}
}

// primaryLinkable returns the artifact other targets link against, or nil
// for executables.
func (g *Generator) primaryLinkable(name string) domain.Linkable {
	outputs := g.artifacts[name]
	if len(outputs) == 0 {
		return nil
	}
	if lib, ok := outputs[0].(domain.Linkable); ok {
		return lib
	}
	return nil
}

// resolvePackages resolves every package reference once, keyed by name.
func (g *Generator) resolvePackages(ctx context.Context) error {
	for i := range g.project.Targets {
		target := &g.project.Targets[i]
		lang, err := linkLanguage(target)
		if err != nil {
			return err
		}
		resolver := g.toolchains[lang].Packages()

		for _, ref := range target.Packages {
			if _, done := g.packages[ref.Name]; done {
				continue
			}
			pkg, err := resolver.Resolve(ctx, ref.Name, ref.Constraint,
				ref.Kind, ref.Headers, ref.Libs)
			if err != nil {
				return domain.Annotate(err, "target", target.Name)
			}
			g.logger.Debug("resolved package", "package", ref.Name)
			g.packages[ref.Name] = pkg
		}
	}
	return nil
}

// emitTarget writes the compile and link edges of one target and returns
// the fragment that aliases it.
func (g *Generator) emitTarget(ctx context.Context, target *domain.Target) (domain.Fragment, error) {
	lang, err := linkLanguage(target)
	if err != nil {
		return nil, err
	}
	tc := g.toolchains[lang]

	compileOpts, err := g.compileOptions(target, tc)
	if err != nil {
		return nil, err
	}
	linkOpts, err := g.linkOptions(target)
	if err != nil {
		return nil, err
	}

	pchArtifact, err := g.emitPCH(target, tc, compileOpts)
	if err != nil {
		return nil, err
	}
	if pchArtifact != nil {
		compileOpts = append(compileOpts,
			domain.UsePCH{Header: pchArtifact.(*domain.PrecompiledHeader)})
	}

	objects, err := g.emitCompiles(target, compileOpts, pchArtifact)
	if err != nil {
		return nil, err
	}

	return g.emitLink(target, tc, linkOpts, objects)
}

// compileOptions builds the ordered compile-side option list of a target.
func (g *Generator) compileOptions(target *domain.Target, tc ports.Toolchain) (domain.OptionList, error) {
	var opts domain.OptionList

	for _, dir := range target.IncludeDirs {
		opts.Append(domain.IncludeDir{Dir: domain.HeaderDirectory{
			Path: domain.NewPath(domain.RootSrcDir, dir),
		}})
	}
	for _, def := range target.Defines {
		opts.Append(def)
	}
	if target.Std != "" {
		opts.Append(domain.Std{Value: target.Std})
	}
	if target.Pthread {
		opts.Append(domain.Pthread{})
	}
	if target.PIC || target.Type == domain.TargetSharedLibrary {
		if tc.Family() == toolchain.FamilyNative {
			opts.Append(domain.PIC{})
		}
	}

	for _, ref := range target.Packages {
		opts = append(opts, g.packages[ref.Name].Compile...)
	}

	// JVM compiles need the classpath of every linked jar.
	if tc.Family() == toolchain.FamilyJVM {
		for _, link := range target.Links {
			if lib := g.primaryLinkable(link); lib != nil {
				opts.Append(domain.LinkLib{Library: lib})
			}
		}
	}

	for _, raw := range target.CompileOptions {
		opts.Append(domain.Raw{Value: raw})
	}
	return opts, nil
}

// linkOptions builds the ordered link-side option list of a target.
func (g *Generator) linkOptions(target *domain.Target) (domain.OptionList, error) {
	var opts domain.OptionList

	if target.Pthread {
		opts.Append(domain.Pthread{})
	}
	for _, ref := range target.Packages {
		opts = append(opts, g.packages[ref.Name].Link...)
	}

	for _, link := range target.Links {
		lib := g.primaryLinkable(link)
		if lib == nil {
			return nil, domain.Annotate(domain.ErrUnknownLinkTarget,
				"target", target.Name, "link", link)
		}
		opts.Append(domain.LinkLib{Library: lib})
	}
	for _, link := range target.WholeLinks {
		archive, ok := g.primaryLinkable(link).(*domain.StaticLibrary)
		if !ok {
			return nil, domain.Annotate(domain.ErrWholeArchiveNotStatic,
				"target", target.Name, "link", link)
		}
		opts.Append(domain.LinkLib{Library: domain.WholeArchive{Archive: archive}})
	}

	for _, raw := range target.LinkOptions {
		opts.Append(domain.Raw{Value: raw})
	}
	return opts, nil
}

// emitPCH writes the precompiled-header edge when the target requests one
// and the toolchain supports it.
func (g *Generator) emitPCH(target *domain.Target, tc ports.Toolchain,
	compileOpts domain.OptionList) (domain.FileArtifact, error) {

	if target.PCH == "" {
		return nil, nil
	}
	pchc := tc.PCHCompiler()
	if pchc == nil {
		g.logger.Warn("precompiled headers not supported, ignoring",
			"target", target.Name, "pch", target.PCH)
		return nil, nil
	}

	if err := g.declareCompileRule(pchc); err != nil {
		return nil, err
	}
	artifact := pchc.OutputFile(target.PCH)
	flags, err := pchc.Flags(compileOpts)
	if err != nil {
		return nil, err
	}

	err = g.file.Build(ninja.Build{
		Outputs:   []domain.Fragment{artifact.ArtifactPath()},
		Rule:      pchc.RuleName(),
		Inputs:    []domain.Fragment{domain.NewPath(domain.RootSrcDir, target.PCH)},
		Variables: g.flagOverride(pchc.FlagsVar(), flags),
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// emitCompiles writes the compile edges of a target and returns the object
// fragments feeding its link edge. Native targets compile one edge per
// source; JVM targets compile all sources together.
func (g *Generator) emitCompiles(target *domain.Target, compileOpts domain.OptionList,
	pchArtifact domain.FileArtifact) ([]domain.Fragment, error) {

	var implicit []domain.Fragment
	if pchArtifact != nil {
		implicit = append(implicit, pchArtifact.ArtifactPath())
	}

	lang, err := linkLanguage(target)
	if err != nil {
		return nil, err
	}
	if g.toolchains[lang].Family() == toolchain.FamilyJVM {
		return g.emitJVMCompile(target, compileOpts)
	}

	var objects []domain.Fragment
	for _, src := range target.Sources {
		srcLang, err := langOfSource(src)
		if err != nil {
			return nil, err
		}
		compiler := g.toolchains[srcLang].Compiler()
		if err := g.declareCompileRule(compiler); err != nil {
			return nil, err
		}

		obj := compiler.OutputFile(stripExt(src))
		flags, err := compiler.Flags(compileOpts)
		if err != nil {
			return nil, err
		}

		err = g.file.Build(ninja.Build{
			Outputs:   []domain.Fragment{obj.ArtifactPath()},
			Rule:      compiler.RuleName(),
			Inputs:    []domain.Fragment{domain.NewPath(domain.RootSrcDir, src)},
			Implicit:  implicit,
			Variables: g.flagOverride(compiler.FlagsVar(), flags),
		})
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj.ArtifactPath())
	}
	return objects, nil
}

// emitJVMCompile writes the single compile edge of a JVM target. The
// tracked output is the class list; linked jars are implicit inputs since
// the compiler reads them through the classpath.
func (g *Generator) emitJVMCompile(target *domain.Target,
	compileOpts domain.OptionList) ([]domain.Fragment, error) {

	lang, err := linkLanguage(target)
	if err != nil {
		return nil, err
	}
	compiler := g.toolchains[lang].Compiler()
	if err := g.declareCompileRule(compiler); err != nil {
		return nil, err
	}

	var inputs []domain.Fragment
	for _, src := range target.Sources {
		inputs = append(inputs, domain.NewPath(domain.RootSrcDir, src))
	}
	implicit := linkableInputs(compileOpts)

	classList := compiler.OutputFile(target.Name)
	flags, err := compiler.Flags(compileOpts)
	if err != nil {
		return nil, err
	}

	err = g.file.Build(ninja.Build{
		Outputs:   []domain.Fragment{classList.ArtifactPath()},
		Rule:      compiler.RuleName(),
		Inputs:    inputs,
		Implicit:  implicit,
		Variables: g.flagOverride(compiler.FlagsVar(), flags),
	})
	if err != nil {
		return nil, err
	}
	return []domain.Fragment{classList.ArtifactPath()}, nil
}

// emitLink writes the link edge (and its satellites: manifest, version
// symlinks) and returns the fragment aliases should point at.
func (g *Generator) emitLink(target *domain.Target, tc ports.Toolchain,
	linkOpts domain.OptionList, objects []domain.Fragment) (domain.Fragment, error) {

	linker := g.linkers[target.Name]
	outputs := g.artifacts[target.Name]

	if err := g.declareLinkRule(linker); err != nil {
		return nil, err
	}

	flags, err := linker.Flags(linkOpts, outputs[0])
	if err != nil {
		return nil, err
	}
	libs, err := linker.LibFlags(linkOpts)
	if err != nil {
		return nil, err
	}

	edge := ninja.Build{
		Rule:      linker.RuleName(),
		Inputs:    objects,
		Implicit:  linkableInputs(linkOpts),
		Variables: g.flagOverride(linker.FlagsVar(), flags),
	}
	for _, artifact := range outputs {
		edge.Outputs = append(edge.Outputs, artifact.ArtifactPath())
	}
	if len(libs) > 0 && linker.LibsVar() != "" {
		edge.Variables = append(edge.Variables, ninja.Assignment{
			Name: linker.LibsVar(),
			Value: ninja.ValArgv(append(
				[]domain.Fragment{domain.Escaped("$" + linker.LibsVar())}, libs...)...),
		})
	}

	if jar, ok := linker.(*jvm.JarMaker); ok {
		manifestPath, err := g.emitManifest(jar, target, linkOpts)
		if err != nil {
			return nil, err
		}
		edge.Implicit = append(edge.Implicit, manifestPath)
		edge.Variables = append(edge.Variables, ninja.Assignment{
			Name: "manifest", Value: ninja.Val(manifestPath),
		})
	}

	if err := g.file.Build(edge); err != nil {
		return nil, err
	}

	if v, ok := outputs[0].(*domain.VersionedSharedLibrary); ok {
		return g.emitVersionAliases(v)
	}
	return outputs[0].ArtifactPath(), nil
}

// emitManifest writes the edge that materializes a jar manifest.
func (g *Generator) emitManifest(jar *jvm.JarMaker, target *domain.Target,
	linkOpts domain.OptionList) (domain.Fragment, error) {

	manifest, lines, err := jar.Manifest(target.Name, linkOpts, linkContext(target))
	if err != nil {
		return nil, err
	}
	if err := g.declareWriteFileRule(); err != nil {
		return nil, err
	}

	err = g.file.Build(ninja.Build{
		Outputs: []domain.Fragment{manifest.Path},
		Rule:    toolchain.WriteFileRuleName,
		Variables: []ninja.Assignment{
			{Name: "text", Value: ninja.ValArgv(domain.Literals(lines...)...)},
		},
	})
	if err != nil {
		return nil, err
	}
	return manifest.Path, nil
}

// emitVersionAliases writes the symlink edges for a versioned shared
// library and returns the development-link alias.
func (g *Generator) emitVersionAliases(v *domain.VersionedSharedLibrary) (domain.Fragment, error) {
	if err := g.declareSymlinkRule(); err != nil {
		return nil, err
	}

	for _, alias := range []domain.Path{v.Soname, v.Link} {
		err := g.file.Build(ninja.Build{
			Outputs: []domain.Fragment{alias},
			Rule:    "symlink",
			Inputs:  []domain.Fragment{v.Path},
			Variables: []ninja.Assignment{
				{Name: "target", Value: ninja.ValString(v.Path.Basename())},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return v.Link, nil
}

// emitRegen makes the build file rebuild itself when the project file
// changes.
func (g *Generator) emitRegen() error {
	err := g.file.Rule("regen", ninja.Rule{
		Command: ninja.ValArgv(
			domain.Literal("mason"), domain.Literal("configure"),
			domain.NewPath(domain.RootSrcDir, ""),
		),
		Generator: true,
		Restat:    true,
	})
	if err != nil {
		return err
	}
	return g.file.Build(ninja.Build{
		Outputs:  domain.Literals("build.ninja"),
		Rule:     "regen",
		Implicit: []domain.Fragment{domain.NewPath(domain.RootSrcDir, "mason.yaml")},
	})
}

// flagOverride builds the per-edge flags assignment: the global variable
// followed by the target-specific flags. No flags, no override.
func (g *Generator) flagOverride(flagsVar string, flags []domain.Fragment) []ninja.Assignment {
	if len(flags) == 0 || flagsVar == "" {
		return nil
	}
	return []ninja.Assignment{{
		Name: flagsVar,
		Value: ninja.ValArgv(append(
			[]domain.Fragment{domain.Escaped("$" + flagsVar)}, flags...)...),
	}}
}

// linkableInputs returns the file paths of every library an option list
// references, for use as implicit dependencies.
func linkableInputs(opts domain.OptionList) []domain.Fragment {
	var inputs []domain.Fragment
	for _, lib := range opts.Libs() {
		if artifact, ok := lib.(domain.FileArtifact); ok {
			if p := artifact.ArtifactPath(); p != (domain.Path{}) {
				inputs = append(inputs, p)
			}
		}
	}
	return inputs
}

func linkContext(target *domain.Target) ports.LinkContext {
	return ports.LinkContext{
		Version:    target.Version,
		SOVersion:  target.SOVersion,
		EntryPoint: target.EntryPoint,
	}
}

func stripExt(src string) string {
	if i := strings.LastIndexByte(src, '.'); i > strings.LastIndexByte(src, '/') {
		return src[:i]
	}
	return src
}
