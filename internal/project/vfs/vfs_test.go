package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		dir, name, want string
	}{
		{"/proj", "new.txt", "/proj/new.txt"},
		{"/proj/", "new.txt", "/proj/new.txt"},
		{"/", "new.txt", "/new.txt"},
		{"", "new.txt", "/new.txt"},
		{"/proj", "/new.txt", "/proj/new.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Join(tt.dir, tt.name), "Join(%q, %q)", tt.dir, tt.name)
	}
}

func TestDirAndBase(t *testing.T) {
	assert.Equal(t, "/proj", Dir("/proj/a.go"))
	assert.Equal(t, "/", Dir("/a.go"))
	assert.Equal(t, ".", Dir("a.go"))
	assert.Equal(t, "a.go", Base("/proj/a.go"))
	assert.Equal(t, "proj", Base("/proj/"))
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("/proj/README.md", false, 10, zeroTime)
	assert.Equal(t, "README.md", e.Name)
	assert.Equal(t, ".md", e.Ext)

	d := NewEntry("/proj/pkg.d", true, 0, zeroTime)
	assert.Equal(t, "pkg.d", d.Name)
	assert.Empty(t, d.Ext)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary(nil))
	assert.False(t, IsBinary([]byte("package main\n\nfunc main() {}\n")))
	assert.True(t, IsBinary([]byte{'a', 0, 'b'}))
	assert.True(t, IsBinary([]byte{1, 2, 3, 4, 5, 'a'}))
}
