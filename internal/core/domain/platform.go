package domain

// Platform is an immutable description of a host or target platform. It is
// passed into toolchain builders at construction; nothing here is mutated
// or discovered at runtime.
type Platform struct {
	Name                string
	ObjectFormat        string
	ExecutableExt       string
	SharedLibraryExt    string
	HasImportLibrary    bool
	HasVersionedLibrary bool
	HasFrameworks       bool

	// IncludeDirs and LibDirs are the platform's own default search
	// directories.
	IncludeDirs []string
	LibDirs     []string

	// InstallDirs maps each install root to its location. Roots may chain
	// (exec_prefix is relative to prefix).
	InstallDirs map[Root]Path

	// PackageMap renames well-known package names to the platform's own
	// library names.
	PackageMap map[string]string
}

func posixInstallDirs() map[Root]Path {
	return map[Root]Path{
		InstallPrefix:     AbsPath("/usr/local"),
		InstallExecPrefix: NewPath(InstallPrefix, ""),
		InstallBinDir:     NewPath(InstallExecPrefix, "bin"),
		InstallLibDir:     NewPath(InstallExecPrefix, "lib"),
		InstallIncludeDir: NewPath(InstallPrefix, "include"),
	}
}

// LinuxPlatform describes a conventional ELF Linux system.
func LinuxPlatform() Platform {
	return Platform{
		Name:                "linux",
		ObjectFormat:        FormatELF,
		SharedLibraryExt:    ".so",
		HasVersionedLibrary: true,
		IncludeDirs:         []string{"/usr/local/include", "/usr/include"},
		LibDirs:             []string{"/usr/local/lib", "/lib", "/usr/lib"},
		InstallDirs:         posixInstallDirs(),
		PackageMap: map[string]string{
			"gl":   "GL",
			"glu":  "GLU",
			"zlib": "z",
		},
	}
}

// DarwinPlatform describes macOS.
func DarwinPlatform() Platform {
	p := LinuxPlatform()
	p.Name = "darwin"
	p.ObjectFormat = FormatMachO
	p.SharedLibraryExt = ".dylib"
	p.HasFrameworks = true
	p.PackageMap = map[string]string{"zlib": "z"}
	return p
}

// WindowsGNUPlatform describes a MinGW-style Windows toolchain, which links
// shared libraries through import libraries.
func WindowsGNUPlatform() Platform {
	return Platform{
		Name:             "windows",
		ObjectFormat:     FormatCOFF,
		ExecutableExt:    ".exe",
		SharedLibraryExt: ".dll",
		HasImportLibrary: true,
		InstallDirs: map[Root]Path{
			InstallPrefix:     AbsPath("C:/mason"),
			InstallExecPrefix: NewPath(InstallPrefix, ""),
			InstallBinDir:     NewPath(InstallExecPrefix, "bin"),
			InstallLibDir:     NewPath(InstallExecPrefix, "lib"),
			InstallIncludeDir: NewPath(InstallPrefix, "include"),
		},
	}
}

// TransformPackage maps a generic package name to the platform's library
// name for it.
func (p Platform) TransformPackage(name string) string {
	if mapped, ok := p.PackageMap[name]; ok {
		return mapped
	}
	return name
}
