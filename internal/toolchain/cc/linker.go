package cc

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
)

// linkableLangs maps a driver language to the object languages it can link.
var linkableLangs = map[string][]string{
	"c":   {"c"},
	"c++": {"c", "c++"},
	"f95": {"c", "f95"},
}

// Linker links objects into executables or shared libraries through the
// compiler driver.
type Linker struct {
	toolchain.BuildCommand

	builder *Builder
	lang    toolchain.Language
	mode    ports.LinkMode
	libRE   *regexp.Regexp
}

func newLinker(b *Builder, lang toolchain.Language, command []string,
	cmdVar string, mode ports.LinkMode, ldflags, ldlibs []string) *Linker {

	rule := cmdVar + "_link"
	if mode == ports.LinkSharedLibrary {
		rule = cmdVar + "_linklib"
	}

	// Shared libraries are only extracted by name on platforms that link
	// them directly; import-library platforms link through .a stubs.
	patterns := []string{`lib(.*)\.a`}
	if b.env.Target.HasImportLibrary {
		patterns = append(patterns, `(.*)\.lib`)
	} else {
		patterns = append(patterns,
			"lib(.*)"+regexp.QuoteMeta(b.env.Target.SharedLibraryExt))
	}

	return &Linker{
		BuildCommand: toolchain.NewBuildCommand(rule, cmdVar, command).
			WithFlags("ldflags", ldflags).
			WithLibs("ldlibs", ldlibs),
		builder: b,
		lang:    lang,
		mode:    mode,
		libRE:   regexp.MustCompile(`^(?:` + strings.Join(patterns, "|") + `)$`),
	}
}

func (l *Linker) Flavor() string { return "cc" }
func (l *Linker) Lang() string   { return l.lang.Name }

// CanLink reports whether this linker accepts objects of the given format
// and source languages.
func (l *Linker) CanLink(format string, langs []string) bool {
	if format != l.builder.objectFormat {
		return false
	}
	allowed := linkableLangs[l.lang.Name]
	for _, lang := range langs {
		ok := false
		for _, a := range allowed {
			if a == lang {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// AlwaysFlags selects the link mode and keeps Mach-O headers patchable for
// the post-install rewrite.
func (l *Linker) AlwaysFlags() []string {
	var flags []string
	if l.builder.objectFormat == domain.FormatMachO {
		flags = append(flags, "-Wl,-headerpad_max_install_names")
	}
	if l.mode == ports.LinkSharedLibrary {
		if l.builder.objectFormat == domain.FormatMachO {
			flags = append(flags, "-dynamiclib")
		} else {
			flags = append(flags, "-shared", "-fPIC")
		}
	}
	return flags
}

// Flags translates everything except library references. output anchors
// origin-relative rpaths and sonames; pass nil for global flags.
func (l *Linker) Flags(opts domain.OptionList, output domain.FileArtifact) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	var libDirs []domain.Path
	var rpaths, rpathLinks []domain.Fragment

	outputPath, haveOutput := artifactPath(output)

	// On Mach-O the build tree itself goes on the runtime search path as
	// soon as any shared library is linked; per-library entries are not
	// expressible the way $ORIGIN is on ELF.
	if haveOutput && l.builder.objectFormat == domain.FormatMachO && linksSharedLib(opts) {
		rel, err := domain.NewPath(domain.RootBuildDir, "").
			RelPath(outputPath.Parent(), "@loader_path")
		if err != nil {
			return nil, err
		}
		rpaths = append(rpaths, domain.Literal(rel))
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.LibDir:
			libDirs = append(libDirs, o.Dir)
		case domain.LinkLib:
			libDirs = append(libDirs, l.libDirsOf(o.Library)...)
			rp, rpl, err := l.localRPaths(o.Library, outputPath, haveOutput)
			if err != nil {
				return nil, err
			}
			rpaths = append(rpaths, rp...)
			rpathLinks = append(rpathLinks, rpl...)
		case domain.RPathDir:
			rpaths = append(rpaths, o.Dir)
		case domain.RPathLinkDir:
			rpathLinks = append(rpathLinks, o.Dir)
		case domain.Pthread:
			// Mach-O needs no link-time thread flag.
			if l.builder.objectFormat != domain.FormatMachO {
				flags = append(flags, domain.Literal("-pthread"))
			}
		case domain.EntryPoint:
			return nil, domain.Annotate(domain.ErrEntryPointUnsupported, "lang", l.lang.Name)
		case domain.PIC:
			// Compile-side; nothing to add at link time.
		case domain.Raw:
			flags = append(flags, domain.Literal(o.Value))
		default:
			return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", opt))
		}
	}

	for _, dir := range toolchain.UniquePaths(libDirs) {
		flags = append(flags, domain.Composite{domain.Literal("-L"), dir})
	}
	if rpaths = toolchain.UniqueFragments(rpaths); len(rpaths) > 0 {
		flags = append(flags, domain.Composite{
			domain.Literal("-Wl,-rpath,"), domain.Join(rpaths, ":"),
		})
	}
	if rpathLinks = toolchain.UniqueFragments(rpathLinks); len(rpathLinks) > 0 {
		flags = append(flags, domain.Composite{
			domain.Literal("-Wl,-rpath-link,"), domain.Join(rpathLinks, ":"),
		})
	}

	if l.mode == ports.LinkSharedLibrary && output != nil {
		flags = append(flags, l.sonameFlags(output)...)
	}
	return flags, nil
}

// LibFlags translates library references and literals. Other variants are
// handled by Flags over the same list and skipped here.
func (l *Linker) LibFlags(opts domain.OptionList) ([]domain.Fragment, error) {
	var flags []domain.Fragment
	for _, opt := range opts {
		switch o := opt.(type) {
		case domain.LinkLib:
			fs, err := l.linkLib(o.Library)
			if err != nil {
				return nil, err
			}
			flags = append(flags, fs...)
		case domain.LibLiteral:
			flags = append(flags, domain.Literal(o.Value))
		}
	}
	return flags, nil
}

// OutputFile names the linked artifacts for a target.
func (l *Linker) OutputFile(name string, ctx ports.LinkContext) ([]domain.FileArtifact, error) {
	target := l.builder.env.Target

	if l.mode == ports.LinkExecutable {
		return []domain.FileArtifact{&domain.Executable{
			Path:   domain.NewPath(domain.RootBuildDir, name+target.ExecutableExt),
			Format: l.builder.objectFormat,
			Lang:   l.lang.Name,
		}}, nil
	}

	ext := target.SharedLibraryExt
	shared := func(p domain.Path) domain.SharedLibrary {
		return domain.SharedLibrary{
			Path: p, Format: l.builder.objectFormat, Lang: l.lang.Name,
		}
	}

	switch {
	case target.HasImportLibrary:
		dll := &domain.DllBinary{
			SharedLibrary: shared(toolchain.LibraryPath(name, "lib", ext)),
		}
		imp := &domain.ImportLibrary{
			Path:   toolchain.LibraryPath(name, "lib", ext+".a"),
			Format: l.builder.objectFormat,
			Dll:    dll,
		}
		dll.ImportLib = imp
		return []domain.FileArtifact{dll, imp}, nil

	case ctx.Version != "" && target.HasVersionedLibrary:
		var real, soname domain.Path
		if l.builder.objectFormat == domain.FormatMachO {
			real = toolchain.LibraryPath(name+"."+ctx.Version, "lib", ext)
			soname = toolchain.LibraryPath(name+"."+ctx.SOVersion, "lib", ext)
		} else {
			real = toolchain.LibraryPath(name, "lib", ext+"."+ctx.Version)
			soname = toolchain.LibraryPath(name, "lib", ext+"."+ctx.SOVersion)
		}
		return []domain.FileArtifact{&domain.VersionedSharedLibrary{
			SharedLibrary: shared(real),
			Soname:        soname,
			Link:          toolchain.LibraryPath(name, "lib", ext),
		}}, nil

	default:
		lib := shared(toolchain.LibraryPath(name, "lib", ext))
		return []domain.FileArtifact{&lib}, nil
	}
}

// PostInstall returns the command that rewrites runtime search paths after
// the artifact is copied to its install location, or nil when the binary
// needs no fixup.
func (l *Linker) PostInstall(opts domain.OptionList, output domain.FileArtifact) []string {
	env := l.builder.env
	installed := toolchain.InstallPath(output, env)

	switch l.builder.objectFormat {
	case domain.FormatELF:
		var rpaths []string
		for _, opt := range opts {
			switch o := opt.(type) {
			case domain.LinkLib:
				if domain.RuntimeFile(o.Library) != nil {
					rpaths = append(rpaths, env.BaseDirs[domain.InstallLibDir])
				}
			case domain.RPathDir:
				if o.Dir.Root == domain.RootAbsolute || o.Dir.Root.IsInstall() {
					rpaths = append(rpaths, o.Dir.Resolve(env.BaseDirs))
				}
			}
		}
		if len(rpaths) == 0 && !linksSharedLib(opts) {
			return nil
		}
		return toolchain.PatchElfCommand(installed, toolchain.UniqueStrings(rpaths))

	case domain.FormatMachO:
		var id string
		if _, ok := output.(*domain.Executable); !ok {
			id = installed
		}
		var changes [][2]string
		for _, lib := range opts.Libs() {
			if rt := domain.RuntimeFile(lib); rt != nil {
				changes = append(changes, [2]string{
					rt.Path.Resolve(env.BaseDirs),
					env.BaseDirs[domain.InstallLibDir] + "/" + rt.Path.Basename(),
				})
			}
		}
		return toolchain.InstallNameToolCommand(installed, id, changes)
	}
	return nil
}

// SearchDirs asks the driver for its library search path. A failed probe
// degrades to the LIBRARY_PATH entries alone.
func (l *Linker) SearchDirs(ctx context.Context) []string {
	env := l.builder.env

	res, err := env.Runner.Run(ctx, append(sliceCopy(l.Command()), "-print-search-dirs"),
		ports.RunOptions{})
	if err != nil {
		env.Logger.Debug("library search-dir probe failed", "error", err)
		return filepath.SplitList(env.Getvar("LIBRARY_PATH", ""))
	}

	var dirs []string
	// clang does not put LIBRARY_PATH in its -print-search-dirs output;
	// see https://bugs.llvm.org/show_bug.cgi?id=23877.
	if l.builder.brand == "clang" {
		dirs = filepath.SplitList(env.Getvar("LIBRARY_PATH", ""))
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if rest, ok := strings.CutPrefix(line, "libraries:"); ok {
			rest = strings.TrimPrefix(strings.TrimSpace(rest), "=")
			dirs = append(dirs, filepath.SplitList(rest)...)
		}
	}
	return dirs
}

// Sysroot asks the driver for its sysroot, defaulting to the filesystem
// root.
func (l *Linker) Sysroot(ctx context.Context) string {
	res, err := l.builder.env.Runner.Run(ctx,
		append(sliceCopy(l.Command()), "-print-sysroot"), ports.RunOptions{})
	if err != nil {
		return "/"
	}
	if s := strings.TrimSpace(res.Stdout); s != "" {
		return s
	}
	return "/"
}

// extractLibName recovers the -l name from a library file name.
func (l *Linker) extractLibName(p domain.Path) (string, error) {
	base := p.Basename()
	m := l.libRE.FindStringSubmatchIndex(base)
	if m != nil {
		for i := 1; i*2 < len(m); i++ {
			if m[2*i] >= 0 {
				return base[m[2*i]:m[2*i+1]], nil
			}
		}
	}
	return "", domain.Annotate(domain.ErrInvalidLibraryName, "library", base)
}

// libDirsOf returns the search directories a library reference implies.
func (l *Linker) libDirsOf(lib domain.Linkable) []domain.Path {
	switch v := lib.(type) {
	case *domain.StaticLibrary:
		// Static archives are passed by literal path; no -L needed.
		return nil
	case *domain.SharedLibrary:
		return []domain.Path{v.Path.Parent()}
	case *domain.VersionedSharedLibrary:
		return []domain.Path{v.Path.Parent()}
	case *domain.DllBinary:
		return []domain.Path{v.ImportLib.Path.Parent()}
	case *domain.ImportLibrary:
		return []domain.Path{v.Path.Parent()}
	case *domain.Library:
		// Generic libraries only get -L when their name is -l-able;
		// otherwise linkLib passes the file itself.
		if _, err := l.extractLibName(v.Path); err != nil {
			return nil
		}
		return []domain.Path{v.Path.Parent()}
	default:
		return nil
	}
}

// localRPaths computes the runtime search entries a shared library needs on
// ELF: build-tree libraries are anchored at $ORIGIN relative to the output,
// installed or absolute ones keep their directory. BFD ld additionally
// needs the directories of transitive runtime dependencies spelled out via
// -rpath-link; gold and lld resolve them on their own.
func (l *Linker) localRPaths(lib domain.Linkable, outputPath domain.Path,
	haveOutput bool) ([]domain.Fragment, []domain.Fragment, error) {

	runtime := domain.RuntimeFile(lib)
	if runtime == nil || l.builder.objectFormat != domain.FormatELF {
		return nil, nil, nil
	}

	var rpaths, rpathLinks []domain.Fragment
	dir := runtime.Path.Parent()
	if dir.Root == domain.RootAbsolute || dir.Root.IsInstall() {
		rpaths = append(rpaths, dir)
	} else {
		if !haveOutput {
			return nil, nil, domain.Annotate(domain.ErrNoRPath, "library", runtime.Path.S)
		}
		rel, err := dir.RelPath(outputPath.Parent(), "$ORIGIN")
		if err != nil {
			return nil, nil, err
		}
		rpaths = append(rpaths, domain.Literal(rel))
	}

	if haveOutput && l.builder.rawLinkerBrand() == "bfd" {
		for _, dep := range domain.TransitiveRuntimeDeps(runtime) {
			rpathLinks = append(rpathLinks, dep.Path.Parent())
		}
	}
	return rpaths, rpathLinks, nil
}

// linkLib turns one library reference into its command-line form.
func (l *Linker) linkLib(lib domain.Linkable) ([]domain.Fragment, error) {
	switch v := lib.(type) {
	case domain.NamedLib:
		return []domain.Fragment{domain.Literal("-l" + string(v))}, nil

	case domain.WholeArchive:
		if l.builder.objectFormat == domain.FormatMachO {
			return []domain.Fragment{
				domain.Literal("-Wl,-force_load"), v.Archive.Path,
			}, nil
		}
		return []domain.Fragment{
			domain.Literal("-Wl,--whole-archive"), v.Archive.Path,
			domain.Literal("-Wl,--no-whole-archive"),
		}, nil

	case domain.Framework:
		if !l.builder.env.Target.HasFrameworks {
			return nil, domain.Annotate(domain.ErrFrameworksUnsupported,
				"platform", l.builder.env.Target.Name)
		}
		return []domain.Fragment{
			domain.Literal("-framework"), domain.Literal(v.Name),
		}, nil

	case *domain.StaticLibrary:
		// Archives are linked by path, preserving exact member selection.
		return []domain.Fragment{v.Path}, nil

	case *domain.SharedLibrary:
		return l.dashL(v.Path)
	case *domain.VersionedSharedLibrary:
		// Linked through the unversioned alias.
		return l.dashL(v.Link)
	case *domain.DllBinary:
		return l.dashL(v.ImportLib.Path)
	case *domain.ImportLibrary:
		return l.dashL(v.Path)

	case *domain.Library:
		// Generic library names (MinGW ships these) may not follow the -l
		// convention; fall back to the raw path.
		fs, err := l.dashL(v.Path)
		if err != nil {
			return []domain.Fragment{v.Path}, nil
		}
		return fs, nil

	default:
		return nil, domain.Annotate(domain.ErrUnknownOption, "option", fmt.Sprintf("%T", lib))
	}
}

func (l *Linker) dashL(p domain.Path) ([]domain.Fragment, error) {
	name, err := l.extractLibName(p)
	if err != nil {
		return nil, err
	}
	return []domain.Fragment{domain.Literal("-l" + name)}, nil
}

// sonameFlags embeds the logical name of a shared library.
func (l *Linker) sonameFlags(output domain.FileArtifact) []domain.Fragment {
	if l.builder.objectFormat == domain.FormatMachO {
		return []domain.Fragment{
			domain.Literal("-install_name"),
			domain.Literal("@rpath/" + output.ArtifactPath().Basename()),
		}
	}
	if v, ok := output.(*domain.VersionedSharedLibrary); ok {
		return []domain.Fragment{
			domain.Literal("-Wl,-soname," + v.Soname.Basename()),
		}
	}
	return nil
}

func artifactPath(a domain.FileArtifact) (domain.Path, bool) {
	if a == nil {
		return domain.Path{}, false
	}
	return a.ArtifactPath(), true
}

func linksSharedLib(opts domain.OptionList) bool {
	for _, lib := range opts.Libs() {
		if domain.RuntimeFile(lib) != nil {
			return true
		}
	}
	return false
}
