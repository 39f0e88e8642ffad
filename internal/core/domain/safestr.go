// Package domain contains the core model for build-graph synthesis:
// escapable value fragments, build-relative paths, abstract build options,
// file artifacts and platform descriptions.
package domain

// Fragment is one piece of a value destined for a generated build file.
// Escaping is context sensitive, so values are kept structured until the
// writer serializes them: literal text is escaped for the target syntax,
// pre-escaped text is emitted verbatim, and composites escape each part
// independently before concatenating the results.
type Fragment interface {
	fragment()
}

// Literal is raw text that must be escaped for the target syntax.
type Literal string

// Escaped is text that is already safe for the target syntax, such as a
// reference to a build-file variable. It is emitted verbatim.
type Escaped string

// Composite concatenates sub-fragments with no separator.
type Composite []Fragment

func (Literal) fragment()   {}
func (Escaped) fragment()   {}
func (Composite) fragment() {}

// Text wraps a plain string as a Literal fragment.
func Text(s string) Literal { return Literal(s) }

// Concat joins fragments into a single Composite value.
func Concat(parts ...Fragment) Fragment {
	return Composite(parts)
}

// Join interleaves parts with sep as literal text.
func Join(parts []Fragment, sep string) Fragment {
	out := make(Composite, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, Literal(sep))
		}
		out = append(out, p)
	}
	return out
}

// Literals converts plain strings to literal fragments.
func Literals(strs ...string) []Fragment {
	out := make([]Fragment, len(strs))
	for i, s := range strs {
		out[i] = Literal(s)
	}
	return out
}
