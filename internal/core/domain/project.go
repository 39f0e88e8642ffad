package domain

// TargetType is the kind of artifact a target produces.
type TargetType string

const (
	TargetExecutable    TargetType = "executable"
	TargetSharedLibrary TargetType = "shared_library"
	TargetStaticLibrary TargetType = "static_library"
)

// PackageRef is an external dependency request. Libs nil means "derive the
// library from the package name"; an explicit empty list means header-only.
type PackageRef struct {
	Name       string
	Constraint string
	Kind       PackageKind
	Headers    []string
	Libs       []string
}

// Target is one buildable artifact of a project.
type Target struct {
	Name    string
	Type    TargetType
	Sources []string

	Packages []PackageRef
	// Links names other targets of the project to link against.
	Links []string
	// WholeLinks names static-library targets linked in their entirety.
	WholeLinks []string

	IncludeDirs []string
	Defines     []Define
	Std         string
	Pthread     bool
	PIC         bool
	// PCH names a header to precompile and include everywhere.
	PCH string

	// CompileOptions and LinkOptions pass through verbatim.
	CompileOptions []string
	LinkOptions    []string

	Version    string
	SOVersion  string
	EntryPoint string
}

// Project is the loaded build description.
type Project struct {
	Name     string
	Language string
	Targets  []Target
}

// Validate checks cross-field consistency the schema cannot express.
func (p *Project) Validate() error {
	names := make(map[string]*Target, len(p.Targets))
	for i := range p.Targets {
		t := &p.Targets[i]
		switch t.Type {
		case TargetExecutable, TargetSharedLibrary, TargetStaticLibrary:
		default:
			return Annotate(ErrInvalidTargetType,
				"target", t.Name, "type", string(t.Type))
		}
		if len(t.Sources) == 0 {
			return Annotate(ErrNoSources, "target", t.Name)
		}
		if (t.Version == "") != (t.SOVersion == "") {
			return Annotate(ErrVersionPairIncomplete, "target", t.Name)
		}
		names[t.Name] = t
	}

	for i := range p.Targets {
		t := &p.Targets[i]
		for _, link := range append(append([]string(nil), t.Links...), t.WholeLinks...) {
			if _, ok := names[link]; !ok {
				return Annotate(ErrUnknownLinkTarget,
					"target", t.Name, "link", link)
			}
		}
		for _, link := range t.WholeLinks {
			if names[link].Type != TargetStaticLibrary {
				return Annotate(ErrWholeArchiveNotStatic,
					"target", t.Name, "link", link)
			}
		}
	}
	return nil
}

// TargetByName finds a target.
func (p *Project) TargetByName(name string) (*Target, bool) {
	for i := range p.Targets {
		if p.Targets[i].Name == name {
			return &p.Targets[i], true
		}
	}
	return nil, false
}
