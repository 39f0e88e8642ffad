package ninja

import (
	"io"
	"strings"

	"go.trai.ch/mason/internal/adapters/shell"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// Variable is a build-file variable. Identity is by sanitized name.
type Variable struct {
	name string
}

// NewVariable creates a variable handle, sanitizing the name to the
// restricted ninja identifier character set.
func NewVariable(name string) *Variable {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return &Variable{name: sanitized}
}

// Name returns the sanitized variable name.
func (v *Variable) Name() string { return v.name }

// Ref returns a pre-escaped reference to the variable for embedding in
// values.
func (v *Variable) Ref() domain.Escaped {
	return domain.Escaped("$" + v.name)
}

// PathVars maps path roots to the variables they realize to. A nil entry
// (the build directory) realizes to an empty prefix.
type PathVars map[domain.Root]*Variable

// DefaultPathVars is the conventional mapping: srcdir plus one variable per
// install root, with the build directory as the implicit current directory.
func DefaultPathVars() PathVars {
	vars := PathVars{
		domain.RootSrcDir:   NewVariable("srcdir"),
		domain.RootBuildDir: nil,
	}
	for _, root := range domain.InstallRoots {
		vars[root] = NewVariable(root.String())
	}
	return vars
}

// QuoteFunc escapes a shell word, reporting whether quoting was applied.
type QuoteFunc func(string) (string, bool)

// Writer serializes structured values into a ninja stream with
// context-sensitive escaping.
type Writer struct {
	w        io.Writer
	pathVars PathVars
}

// NewWriter creates a Writer emitting to w, realizing paths against the
// given root-variable mapping.
func NewWriter(w io.Writer, pathVars PathVars) *Writer {
	return &Writer{w: w, pathVars: pathVars}
}

// WriteLiteral emits raw text with no escaping.
func (w *Writer) WriteLiteral(s string) error {
	_, err := io.WriteString(w.w, s)
	return err
}

// WriteValue escapes and emits one fragment for the given context. The
// returned flag reports whether any part was shell quoted; composite shell
// values that contain a quoted part are re-quoted as a whole by the path
// branch.
func (w *Writer) WriteValue(frag domain.Fragment, syntax Syntax, quote QuoteFunc) (bool, error) {
	switch v := frag.(type) {
	case domain.Escaped:
		return true, w.WriteLiteral(string(v))

	case domain.Literal:
		s := string(v)
		quoted := false
		if syntax == SyntaxShell && quote != nil {
			s, quoted = quote(s)
		}
		escaped, err := EscapeString(s, syntax)
		if err != nil {
			return false, err
		}
		return quoted, w.WriteLiteral(escaped)

	case domain.Composite:
		quoted := false
		for _, part := range v {
			q, err := w.WriteValue(part, syntax, quote)
			if err != nil {
				return false, err
			}
			quoted = quoted || q
		}
		return quoted, nil

	case domain.Path:
		return w.writePath(v, syntax)

	default:
		return false, zerr.New("unknown value type")
	}
}

// writePath realizes a path against the root variables, escapes the parts
// individually, and re-quotes the assembled string as a whole if any part
// needed shell quoting.
func (w *Writer) writePath(p domain.Path, syntax Syntax) (bool, error) {
	var buf strings.Builder
	sub := NewWriter(&buf, w.pathVars)

	quoted, err := sub.WriteValue(w.realizePath(p), syntax, shell.EscapeInfo)
	if err != nil {
		return false, err
	}

	out := buf.String()
	if syntax == SyntaxShell && quoted {
		out = shell.QuoteEscaped(out)
	}
	return quoted, w.WriteLiteral(out)
}

// realizePath maps a path to a fragment referencing the root's variable.
// The build directory realizes to an empty prefix.
func (w *Writer) realizePath(p domain.Path) domain.Fragment {
	if p.Root == domain.RootAbsolute {
		return domain.Literal(p.S)
	}

	v := w.pathVars[p.Root]
	if v == nil {
		if p.S == "" {
			return domain.Literal(".")
		}
		return domain.Literal(p.S)
	}
	if p.S == "" {
		return v.Ref()
	}
	return domain.Composite{v.Ref(), domain.Literal("/" + p.S)}
}

// WriteEach emits things separated by delim, preceded by prefix when the
// list is non-empty.
func (w *Writer) WriteEach(things []domain.Fragment, syntax Syntax, delim, prefix string) error {
	if len(things) == 0 {
		return nil
	}
	if err := w.WriteLiteral(prefix); err != nil {
		return err
	}
	for i, thing := range things {
		if i > 0 {
			if err := w.WriteLiteral(delim); err != nil {
				return err
			}
		}
		if _, err := w.WriteValue(thing, syntax, shell.Quote); err != nil {
			return err
		}
	}
	return nil
}

// WriteShellValue emits a variable or command value. Argv values are
// quoted word by word; single values are emitted without shell quoting
// since they already form a whole line.
func (w *Writer) WriteShellValue(value Value, clean bool) error {
	syntax := SyntaxShell
	if clean {
		syntax = SyntaxClean
	}

	if value.argv != nil {
		return w.WriteEach(value.argv, syntax, " ", "")
	}
	_, err := w.WriteValue(value.single, syntax, nil)
	return err
}
