package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeFile(t *testing.T) {
	shared := &SharedLibrary{Path: NewPath(RootBuildDir, "libfoo.so")}
	assert.Same(t, shared, RuntimeFile(shared))

	versioned := &VersionedSharedLibrary{
		SharedLibrary: SharedLibrary{Path: NewPath(RootBuildDir, "libbar.so.1.2.3")},
	}
	assert.Same(t, &versioned.SharedLibrary, RuntimeFile(versioned))

	dll := &DllBinary{
		SharedLibrary: SharedLibrary{Path: NewPath(RootBuildDir, "libbaz.dll")},
	}
	imp := &ImportLibrary{Path: NewPath(RootBuildDir, "libbaz.dll.a"), Dll: dll}
	assert.Same(t, &dll.SharedLibrary, RuntimeFile(imp))
	assert.Nil(t, RuntimeFile(&ImportLibrary{}))

	assert.Nil(t, RuntimeFile(NamedLib("m")))
	assert.Nil(t, RuntimeFile(&StaticLibrary{}))
	assert.Nil(t, RuntimeFile(Framework{Name: "Cocoa"}))
}

func TestTransitiveRuntimeDeps(t *testing.T) {
	libC := &SharedLibrary{Path: NewPath(RootBuildDir, "libc_.so")}
	libB := &SharedLibrary{
		Path:        NewPath(RootBuildDir, "libb.so"),
		RuntimeDeps: []*SharedLibrary{libC},
	}
	libA := &SharedLibrary{
		Path:        NewPath(RootBuildDir, "liba.so"),
		RuntimeDeps: []*SharedLibrary{libB, libC},
	}

	deps := TransitiveRuntimeDeps(libA)
	assert.Equal(t, []*SharedLibrary{libB, libC}, deps)

	assert.Empty(t, TransitiveRuntimeDeps(libC))
}

func TestTransitiveRuntimeDeps_Cycle(t *testing.T) {
	libA := &SharedLibrary{Path: NewPath(RootBuildDir, "liba.so")}
	libB := &SharedLibrary{
		Path:        NewPath(RootBuildDir, "libb.so"),
		RuntimeDeps: []*SharedLibrary{libA},
	}
	libA.RuntimeDeps = []*SharedLibrary{libB}

	deps := TransitiveRuntimeDeps(libA)
	assert.Equal(t, []*SharedLibrary{libB}, deps)
}
