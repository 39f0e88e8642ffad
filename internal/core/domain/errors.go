package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateVariable is returned when a build-file variable is declared
	// twice without being marked redeclarable.
	ErrDuplicateVariable = zerr.New("variable already exists")

	// ErrDuplicateRule is returned when a rule name is declared twice.
	ErrDuplicateRule = zerr.New("rule already exists")

	// ErrInvalidRuleName is returned when a rule name contains characters
	// outside [A-Za-z0-9_].
	ErrInvalidRuleName = zerr.New("rule name contains invalid characters")

	// ErrUnknownRule is returned when a build edge references a rule that was
	// never declared.
	ErrUnknownRule = zerr.New("unknown rule")

	// ErrDuplicateBuildOutput is returned when two build edges declare the
	// same output.
	ErrDuplicateBuildOutput = zerr.New("build output already exists")

	// ErrIllegalNewline is returned when an emitted value contains a literal
	// newline. No value may legitimately contain one.
	ErrIllegalNewline = zerr.New("illegal newline")

	// ErrUnknownSyntax is returned when escaping is requested for an
	// unrecognized syntactic context.
	ErrUnknownSyntax = zerr.New("unknown syntax")

	// ErrUnknownOption is returned by a flag translator that encounters an
	// option variant it does not handle.
	ErrUnknownOption = zerr.New("unknown option type")

	// ErrUnknownLinkMode is returned when a toolchain has no linker
	// registered for the requested output kind.
	ErrUnknownLinkMode = zerr.New("unknown link mode")

	// ErrStaticLinkUnsupported is returned by toolchain families that cannot
	// produce static libraries.
	ErrStaticLinkUnsupported = zerr.New("static linking not supported")

	// ErrFrameworksUnsupported is returned when a framework reference is
	// linked on a platform without framework support.
	ErrFrameworksUnsupported = zerr.New("frameworks not supported on this platform")

	// ErrEntryPointUnsupported is returned when an entry-point option reaches
	// a linker family that has no use for one.
	ErrEntryPointUnsupported = zerr.New("entry point not supported for this language")

	// ErrInvalidLibraryName is returned when a library file name does not
	// follow the platform naming convention for -l linking.
	ErrInvalidLibraryName = zerr.New("not a valid library name")

	// ErrPackageResolution is returned when a requested header, library or
	// package cannot be located on the host.
	ErrPackageResolution = zerr.New("package resolution failed")

	// ErrNoRPath is returned when an origin-relative rpath is needed but no
	// output location is known to anchor it.
	ErrNoRPath = zerr.New("unable to construct rpath")

	// ErrPathMismatch is returned when relative path computation crosses
	// path roots.
	ErrPathMismatch = zerr.New("paths have different roots")

	// ErrUnknownLanguage is returned when a toolchain is requested for a
	// language mason does not know about.
	ErrUnknownLanguage = zerr.New("unknown language")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read project file")

	// ErrConfigParseFailed is returned when the project file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse project file")

	// ErrInvalidTargetType is returned when a target declares an unknown type.
	ErrInvalidTargetType = zerr.New("invalid target type")

	// ErrNoSources is returned when a target declares no source files.
	ErrNoSources = zerr.New("target has no sources")

	// ErrVersionPairIncomplete is returned when a target sets only one of
	// version and soversion.
	ErrVersionPairIncomplete = zerr.New("version and soversion must be set together")

	// ErrUnknownLinkTarget is returned when a target links against a target
	// name the project does not declare.
	ErrUnknownLinkTarget = zerr.New("linked target does not exist")

	// ErrWholeArchiveNotStatic is returned when a whole-archive link names a
	// target that is not a static library.
	ErrWholeArchiveNotStatic = zerr.New("whole-archive link requires a static library")

	// ErrBuildDirIsSrcDir is returned when the build directory resolves to
	// the source directory. In-tree builds are not supported.
	ErrBuildDirIsSrcDir = zerr.New("build directory must differ from source directory")
)

// Annotate attaches key-value metadata to err while keeping err itself
// reachable through errors.Is. zerr.With on a *zerr.Error returns a
// detached copy, so the metadata has to live on a wrapper whose cause
// is err.
func Annotate(err error, kv ...any) error {
	out := zerr.Wrap(err, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = zerr.With(out, key, kv[i+1])
	}
	return out
}
