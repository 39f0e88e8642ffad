package domain

// Object-format tags carried by file artifacts.
const (
	FormatELF   = "elf"
	FormatMachO = "mach-o"
	FormatCOFF  = "coff"
	FormatJVM   = "jvm"
)

// FileArtifact is any file produced or consumed by a build edge. Artifacts
// are created by a translator's OutputFile operation or by package
// resolution and never mutated afterwards.
type FileArtifact interface {
	ArtifactPath() Path
}

// SourceFile is an input source file with its language tag.
type SourceFile struct {
	Path Path
	Lang string
}

// HeaderFile is a plain header.
type HeaderFile struct {
	Path Path
}

// HeaderDirectory is a directory searched for headers. System directories
// are eligible for -isystem treatment.
type HeaderDirectory struct {
	Path   Path
	System bool
}

// ObjectFile is a compiled translation unit.
type ObjectFile struct {
	Path   Path
	Format string
	Lang   string
}

// ClassList is an object-file-list artifact: a file naming the class files
// produced by a JVM compiler invocation.
type ClassList struct {
	Path Path
	Lang string
}

// PrecompiledHeader is a compiler-specific cached header parse.
type PrecompiledHeader struct {
	Path Path
	Lang string
}

// StaticLibrary is an archive of object files.
type StaticLibrary struct {
	Path   Path
	Format string
	Lang   string
}

// SharedLibrary is a dynamically loaded library. RuntimeDeps lists the
// shared libraries it needs at load time.
type SharedLibrary struct {
	Path        Path
	Format      string
	Lang        string
	RuntimeDeps []*SharedLibrary
}

// VersionedSharedLibrary is a shared library with version and soname
// aliases (libfoo.so.1.2.3 / libfoo.so.1 / libfoo.so).
type VersionedSharedLibrary struct {
	SharedLibrary
	Soname Path
	Link   Path
}

// DllBinary is a shared library on import-library platforms, paired with
// the stub archive used at link time.
type DllBinary struct {
	SharedLibrary
	ImportLib *ImportLibrary
}

// ImportLibrary is the link-time stub for a DllBinary.
type ImportLibrary struct {
	Path   Path
	Format string
	Dll    *DllBinary
}

// Library is a generic library whose exact kind is unknown, e.g. a
// Windows .lib found on disk.
type Library struct {
	Path   Path
	Format string
	Lang   string
}

// WholeArchive wraps a static library that must be linked in its entirety.
type WholeArchive struct {
	Archive *StaticLibrary
}

// Framework references a macOS framework by name.
type Framework struct {
	Name string
}

// Executable is a linked program.
type Executable struct {
	Path        Path
	Format      string
	Lang        string
	RuntimeDeps []*SharedLibrary
}

// ExecutableLibrary is a library that can also be run directly, e.g. a jar
// with a Main-Class entry.
type ExecutableLibrary struct {
	Library
}

// ManifestFile is the generated jar manifest consumed by the jar step.
type ManifestFile struct {
	Path Path
}

func (f SourceFile) ArtifactPath() Path         { return f.Path }
func (f HeaderFile) ArtifactPath() Path         { return f.Path }
func (f HeaderDirectory) ArtifactPath() Path    { return f.Path }
func (f *ObjectFile) ArtifactPath() Path        { return f.Path }
func (f *ClassList) ArtifactPath() Path         { return f.Path }
func (f *PrecompiledHeader) ArtifactPath() Path { return f.Path }
func (f *StaticLibrary) ArtifactPath() Path     { return f.Path }
func (f *SharedLibrary) ArtifactPath() Path     { return f.Path }
func (f *DllBinary) ArtifactPath() Path         { return f.Path }
func (f *ImportLibrary) ArtifactPath() Path     { return f.Path }
func (f *Library) ArtifactPath() Path           { return f.Path }
func (f *Executable) ArtifactPath() Path        { return f.Path }
func (f ManifestFile) ArtifactPath() Path       { return f.Path }
func (f WholeArchive) ArtifactPath() Path       { return f.Archive.Path }
func (f Framework) ArtifactPath() Path          { return Path{} }

// Linkable is anything a library reference option may carry: a bare library
// name, a concrete library artifact, a whole-archive wrapper or a framework.
type Linkable interface {
	linkable()
}

// NamedLib is a bare library name linked with -l<name>.
type NamedLib string

func (NamedLib) linkable()                 {}
func (*StaticLibrary) linkable()           {}
func (*SharedLibrary) linkable()           {}
func (*VersionedSharedLibrary) linkable()  {}
func (*DllBinary) linkable()               {}
func (*ImportLibrary) linkable()           {}
func (*Library) linkable()                 {}
func (WholeArchive) linkable()             {}
func (Framework) linkable()                {}

// RuntimeFile returns the file loaded at runtime for a linkable, or nil if
// there is none (static libraries, bare names, frameworks).
func RuntimeFile(l Linkable) *SharedLibrary {
	switch lib := l.(type) {
	case *SharedLibrary:
		return lib
	case *VersionedSharedLibrary:
		return &lib.SharedLibrary
	case *DllBinary:
		return &lib.SharedLibrary
	case *ImportLibrary:
		if lib.Dll == nil {
			return nil
		}
		return &lib.Dll.SharedLibrary
	default:
		return nil
	}
}

// TransitiveRuntimeDeps returns the transitive runtime dependencies of lib
// in first-seen order, excluding lib itself.
func TransitiveRuntimeDeps(lib *SharedLibrary) []*SharedLibrary {
	var out []*SharedLibrary
	seen := map[*SharedLibrary]bool{lib: true}
	queue := append([]*SharedLibrary(nil), lib.RuntimeDeps...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, cur.RuntimeDeps...)
	}
	return out
}
