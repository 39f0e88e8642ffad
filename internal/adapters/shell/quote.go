// Package shell provides the POSIX quoting primitive and the subprocess
// runner used for toolchain probes.
package shell

import (
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.trai.ch/zerr"
)

var needsQuoteRE = regexp.MustCompile(`[^\w@%+=:,./-]`)

// Quote escapes raw and wraps it in single quotes when a POSIX shell would
// otherwise interpret it. The boolean reports whether quoting was applied.
func Quote(raw string) (string, bool) {
	if raw == "" {
		return "''", true
	}
	if !needsQuoteRE.MatchString(raw) {
		return raw, false
	}
	return QuoteEscaped(escapeQuotes(raw)), true
}

// EscapeInfo rewrites embedded single quotes so the result can later be
// wrapped as a whole, and reports whether wrapping is required. Composite
// values escape each part with this and quote the assembled string once.
func EscapeInfo(raw string) (string, bool) {
	return escapeQuotes(raw), needsQuoteRE.MatchString(raw)
}

// QuoteEscaped wraps an already-escaped string in single quotes.
func QuoteEscaped(escaped string) string {
	return "'" + escaped + "'"
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// Split tokenizes a flag string using shell word rules. Environment-seeded
// flag lists (CFLAGS, LDFLAGS, ...) are split with this.
func Split(s string) ([]string, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to split shell words"),
			"input", s)
	}
	return words, nil
}
