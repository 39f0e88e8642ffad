// Package ninja implements the build-graph writer: an in-memory model of
// variables, rules, build edges and defaults that serializes to a ninja
// file in a fixed, deterministic order.
package ninja

import (
	"regexp"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
)

// Syntax identifies the syntactic context a string is escaped for.
type Syntax int

const (
	// SyntaxOutput escapes for the output position of a build line.
	SyntaxOutput Syntax = iota
	// SyntaxInput escapes for the input position of a build line.
	SyntaxInput
	// SyntaxShell escapes for a command that ninja hands to a shell.
	SyntaxShell
	// SyntaxClean escapes path-like values that must never be shell quoted.
	SyntaxClean
)

var (
	outputEscapeRE = regexp.MustCompile(`([:$ ])`)
	inputEscapeRE  = regexp.MustCompile(`([$ ])`)
)

// EscapeString escapes a raw string for the given context. Output position
// prefixes ':', '$' and space with '$'; input position prefixes '$' and
// space; shell and clean contexts double every '$' so ninja passes a single
// '$' through. A literal newline in any value is fatal.
func EscapeString(s string, syntax Syntax) (string, error) {
	if strings.ContainsRune(s, '\n') {
		return "", domain.Annotate(domain.ErrIllegalNewline, "value", s)
	}

	switch syntax {
	case SyntaxOutput:
		return outputEscapeRE.ReplaceAllString(s, "$$${1}"), nil
	case SyntaxInput:
		return inputEscapeRE.ReplaceAllString(s, "$$${1}"), nil
	case SyntaxShell, SyntaxClean:
		return strings.ReplaceAll(s, "$", "$$"), nil
	default:
		return "", domain.Annotate(domain.ErrUnknownSyntax, "syntax", int(syntax))
	}
}
