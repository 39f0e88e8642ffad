package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassFromLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		class string
		ok    bool
	}{
		{
			name:  "file object",
			line:  "[wrote RegularFileObject[com/example/Main.class]]",
			class: "com/example/Main.class",
			ok:    true,
		},
		{
			name:  "directory file object",
			line:  "[wrote DirectoryFileObject[out:com/example/Main.class]]",
			class: filepath.Join("out", "com/example/Main.class"),
			ok:    true,
		},
		{
			name:  "quoted path",
			line:  "[wrote 'com/example/Main.class']",
			class: "com/example/Main.class",
			ok:    true,
		},
		{
			name:  "bare path",
			line:  "[wrote com/example/Main.class]",
			class: "com/example/Main.class",
			ok:    true,
		},
		{name: "parsing diagnostic", line: "[parsing started Main.java]"},
		{name: "plain warning", line: "warning: deprecated API"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, ok := classFromLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.class, class)
		})
	}
}
