package domain

// Option is one abstract build option. The variant set is closed: every
// translator switches exhaustively over it and fails with ErrUnknownOption
// on anything else.
type Option interface {
	option()
}

// IncludeDir adds a header search directory.
type IncludeDir struct {
	Dir HeaderDirectory
}

// Define adds a preprocessor definition; Value may be empty.
type Define struct {
	Name  string
	Value string
}

// LibDir adds a library search directory.
type LibDir struct {
	Dir Path
}

// LinkLib links a library.
type LinkLib struct {
	Library Linkable
}

// RPathDir embeds a runtime library search path.
type RPathDir struct {
	Dir Path
}

// RPathLinkDir adds a link-time-only search path for transitive shared
// library dependencies.
type RPathLinkDir struct {
	Dir Path
}

// Std selects a language standard.
type Std struct {
	Value string
}

// Pthread requests thread support.
type Pthread struct{}

// PIC requests position-independent code.
type PIC struct{}

// UsePCH consumes a precompiled header.
type UsePCH struct {
	Header *PrecompiledHeader
}

// EntryPoint names the program entry point (JVM main class).
type EntryPoint struct {
	Value string
}

// Raw passes a flag through verbatim.
type Raw struct {
	Value string
}

// LibLiteral passes a link-input token through verbatim on the library
// side of the command line.
type LibLiteral struct {
	Value string
}

func (IncludeDir) option()   {}
func (Define) option()       {}
func (LibDir) option()       {}
func (LinkLib) option()      {}
func (RPathDir) option()     {}
func (RPathLinkDir) option() {}
func (Std) option()          {}
func (Pthread) option()      {}
func (PIC) option()          {}
func (UsePCH) option()       {}
func (EntryPoint) option()   {}
func (Raw) option()          {}
func (LibLiteral) option()   {}

// OptionList is an ordered sequence of options. Order is preserved; it is
// part of the observable flag order of generated commands.
type OptionList []Option

// Append adds options in order, skipping nils.
func (l *OptionList) Append(opts ...Option) {
	for _, o := range opts {
		if o != nil {
			*l = append(*l, o)
		}
	}
}

// Libs returns the linkables referenced by the list, in order.
func (l OptionList) Libs() []Linkable {
	var out []Linkable
	for _, o := range l {
		if lib, ok := o.(LinkLib); ok {
			out = append(out, lib.Library)
		}
	}
	return out
}

// PackageKind selects which library kinds a package lookup may return.
type PackageKind int

const (
	// KindShared matches shared libraries.
	KindShared PackageKind = 1 << iota
	// KindStatic matches static libraries.
	KindStatic

	// KindAny matches either kind.
	KindAny = KindShared | KindStatic
)

// Package is a resolved dependency: the options needed to compile against
// and link against it.
type Package struct {
	Name    string
	Format  string
	Compile OptionList
	Link    OptionList
}
