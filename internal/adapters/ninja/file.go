package ninja

import (
	"fmt"
	"io"
	"regexp"

	"go.trai.ch/mason/internal/core/domain"
)

// PhonyRule is the reserved no-op rule used for aliases.
const PhonyRule = "phony"

// Section buckets variables purely to control emission order. Sections are
// flushed in enumeration order; entries keep first-declared order within
// their section.
type Section int

const (
	// SectionPath holds path-like variables (srcdir, install roots).
	SectionPath Section = iota
	// SectionCommand holds command variables.
	SectionCommand
	// SectionFlags holds flag-list variables.
	SectionFlags
	// SectionOther holds everything else.
	SectionOther
)

var sections = []Section{SectionPath, SectionCommand, SectionFlags, SectionOther}

// Value is a variable or command value: either a single fragment or an
// argv whose words are shell quoted independently.
type Value struct {
	single domain.Fragment
	argv   []domain.Fragment
}

// Val wraps a single fragment as a value.
func Val(f domain.Fragment) Value { return Value{single: f} }

// ValString wraps plain text as a value.
func ValString(s string) Value { return Value{single: domain.Literal(s)} }

// ValArgv builds a command value from fragments.
func ValArgv(words ...domain.Fragment) Value { return Value{argv: words} }

// ValWords builds a command value from plain strings.
func ValWords(words ...string) Value {
	return Value{argv: domain.Literals(words...)}
}

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.single == nil && v.argv == nil }

// Rule is a named command template.
type Rule struct {
	Command   Value
	Depfile   domain.Fragment
	Deps      string
	Generator bool
	Restat    bool
}

// Assignment is one per-edge variable override. Overrides are ordered for
// deterministic emission.
type Assignment struct {
	Name  string
	Value Value
}

// Build is one build edge: outputs produced by a rule from ordered inputs.
type Build struct {
	Outputs   []domain.Fragment
	Rule      string
	Inputs    []domain.Fragment
	Implicit  []domain.Fragment
	OrderOnly []domain.Fragment
	Variables []Assignment
}

var ruleNameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// File accumulates a build graph and serializes it. One File per output
// file; never accessed concurrently.
type File struct {
	pathVars PathVars

	varNames  map[string]bool
	variables map[Section][]Assignment

	ruleOrder []string
	rules     map[string]Rule

	builds       []Build
	buildOutputs map[string]bool
	defaults     []domain.Fragment
}

// NewFile creates an empty graph realizing paths against pathVars.
func NewFile(pathVars PathVars) *File {
	variables := make(map[Section][]Assignment, len(sections))
	for _, s := range sections {
		variables[s] = nil
	}
	return &File{
		pathVars:     pathVars,
		varNames:     make(map[string]bool),
		variables:    variables,
		rules:        make(map[string]Rule),
		buildOutputs: make(map[string]bool),
	}
}

// PathVars returns the root-variable mapping the file serializes with.
func (f *File) PathVars() PathVars { return f.pathVars }

// Variable registers a variable in a section and returns its canonical
// handle. Redeclaring an existing variable fails unless existOK is set, in
// which case the first declaration wins.
func (f *File) Variable(name string, value Value, section Section, existOK bool) (*Variable, error) {
	v := NewVariable(name)
	if f.varNames[v.Name()] {
		if !existOK {
			return nil, domain.Annotate(domain.ErrDuplicateVariable, "variable", v.Name())
		}
		return v, nil
	}

	f.varNames[v.Name()] = true
	f.variables[section] = append(f.variables[section],
		Assignment{Name: v.Name(), Value: value})
	return v, nil
}

// HasVariable reports whether a variable has been declared.
func (f *File) HasVariable(name string) bool {
	return f.varNames[NewVariable(name).Name()]
}

// Rule declares a named rule. Names outside [A-Za-z0-9_] and duplicate
// names fail.
func (f *File) Rule(name string, rule Rule) error {
	if !ruleNameRE.MatchString(name) {
		return domain.Annotate(domain.ErrInvalidRuleName, "rule", name)
	}
	if f.HasRule(name) {
		return domain.Annotate(domain.ErrDuplicateRule, "rule", name)
	}

	f.ruleOrder = append(f.ruleOrder, name)
	f.rules[name] = rule
	return nil
}

// HasRule reports whether a rule has been declared.
func (f *File) HasRule(name string) bool {
	_, ok := f.rules[name]
	return ok
}

// Build appends a build edge. The rule must be declared (or phony), and
// every output must be globally unique across the graph.
func (f *File) Build(b Build) error {
	if b.Rule != PhonyRule && !f.HasRule(b.Rule) {
		return domain.Annotate(domain.ErrUnknownRule, "rule", b.Rule)
	}

	for _, out := range b.Outputs {
		key := fragmentKey(out)
		if f.buildOutputs[key] {
			return domain.Annotate(domain.ErrDuplicateBuildOutput, "output", key)
		}
		f.buildOutputs[key] = true
	}

	f.builds = append(f.builds, b)
	return nil
}

// HasBuild reports whether an output is already produced by some edge.
func (f *File) HasBuild(output domain.Fragment) bool {
	return f.buildOutputs[fragmentKey(output)]
}

// Default appends default targets; duplicates are allowed.
func (f *File) Default(targets ...domain.Fragment) {
	f.defaults = append(f.defaults, targets...)
}

// Write serializes the graph: variable sections in fixed order, rules in
// declaration order, build edges in declaration order, then the defaults
// line. An empty graph writes nothing.
func (f *File) Write(w io.Writer) error {
	out := NewWriter(w, f.pathVars)

	for _, section := range sections {
		// Path-like values are inherently clean: realized against root
		// variables and never shell quoted.
		clean := section == SectionPath
		for _, entry := range f.variables[section] {
			if err := f.writeVariable(out, entry, clean, 0); err != nil {
				return err
			}
		}
		if len(f.variables[section]) > 0 {
			if err := out.WriteLiteral("\n"); err != nil {
				return err
			}
		}
	}

	for _, name := range f.ruleOrder {
		if err := f.writeRule(out, name, f.rules[name]); err != nil {
			return err
		}
		if err := out.WriteLiteral("\n"); err != nil {
			return err
		}
	}

	for _, b := range f.builds {
		if err := f.writeBuild(out, b); err != nil {
			return err
		}
	}

	if len(f.defaults) > 0 {
		if err := out.WriteLiteral("\ndefault "); err != nil {
			return err
		}
		if err := out.WriteEach(f.defaults, SyntaxInput, " ", ""); err != nil {
			return err
		}
		if err := out.WriteLiteral("\n"); err != nil {
			return err
		}
	}

	return nil
}

func (f *File) writeVariable(out *Writer, entry Assignment, clean bool, indent int) error {
	for range indent {
		if err := out.WriteLiteral("  "); err != nil {
			return err
		}
	}
	if err := out.WriteLiteral(entry.Name + " = "); err != nil {
		return err
	}
	if err := out.WriteShellValue(entry.Value, clean); err != nil {
		return err
	}
	return out.WriteLiteral("\n")
}

func (f *File) writeRule(out *Writer, name string, rule Rule) error {
	if err := out.WriteLiteral("rule " + name + "\n"); err != nil {
		return err
	}

	err := f.writeVariable(out, Assignment{Name: "command", Value: rule.Command}, false, 1)
	if err != nil {
		return err
	}
	if rule.Depfile != nil {
		err = f.writeVariable(out, Assignment{Name: "depfile", Value: Val(rule.Depfile)}, false, 1)
		if err != nil {
			return err
		}
	}
	if rule.Deps != "" {
		err = f.writeVariable(out, Assignment{Name: "deps", Value: ValString(rule.Deps)}, false, 1)
		if err != nil {
			return err
		}
	}
	if rule.Generator {
		err = f.writeVariable(out, Assignment{Name: "generator", Value: ValString("1")}, false, 1)
		if err != nil {
			return err
		}
	}
	if rule.Restat {
		err = f.writeVariable(out, Assignment{Name: "restat", Value: ValString("1")}, false, 1)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *File) writeBuild(out *Writer, b Build) error {
	if err := out.WriteLiteral("build "); err != nil {
		return err
	}
	if err := out.WriteEach(b.Outputs, SyntaxOutput, " ", ""); err != nil {
		return err
	}
	if err := out.WriteLiteral(": " + b.Rule); err != nil {
		return err
	}

	if err := out.WriteEach(b.Inputs, SyntaxInput, " ", " "); err != nil {
		return err
	}
	if err := out.WriteEach(b.Implicit, SyntaxInput, " ", " | "); err != nil {
		return err
	}
	if err := out.WriteEach(b.OrderOnly, SyntaxInput, " ", " || "); err != nil {
		return err
	}
	if err := out.WriteLiteral("\n"); err != nil {
		return err
	}

	for _, override := range b.Variables {
		if err := f.writeVariable(out, override, false, 1); err != nil {
			return err
		}
	}
	return nil
}

// fragmentKey canonicalizes a fragment for output-uniqueness checks.
func fragmentKey(frag domain.Fragment) string {
	switch v := frag.(type) {
	case domain.Literal:
		return string(v)
	case domain.Escaped:
		return string(v)
	case domain.Path:
		return fmt.Sprintf("%s:%s", v.Root, v.S)
	case domain.Composite:
		key := ""
		for _, part := range v {
			key += fragmentKey(part)
		}
		return key
	default:
		return fmt.Sprintf("%v", frag)
	}
}
