package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns increasing times so ordering is deterministic.
func fakeClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSessionIndex_RecordOpen(t *testing.T) {
	x := NewSessionIndex()
	x.now = fakeClock()

	x.RecordOpen("/a.go")
	x.RecordOpen("/b.go")
	x.RecordOpen("/a.go")
	x.RecordOpen("")

	assert.Equal(t, 2, x.OpenCount("/a.go"))
	assert.Equal(t, 1, x.OpenCount("/b.go"))
	assert.Equal(t, 0, x.OpenCount("/c.go"))
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, []string{"/a.go", "/b.go"}, x.Paths())
}

func TestSessionIndex_Rename(t *testing.T) {
	x := NewSessionIndex()
	x.now = fakeClock()
	x.RecordOpen("untitled:1")
	x.RecordOpen("untitled:1")
	x.RecordOpen("/b.go")

	x.Rename("untitled:1", "/new.go")
	assert.Equal(t, 0, x.OpenCount("untitled:1"))
	assert.Equal(t, 2, x.OpenCount("/new.go"))

	x.Rename("/new.go", "/b.go")
	assert.Equal(t, 3, x.OpenCount("/b.go"))
	assert.Equal(t, 1, x.Len())
}

func TestSessionIndex_ExportLoad(t *testing.T) {
	x := NewSessionIndex()
	x.now = fakeClock()
	x.RecordOpen("/a.go")
	x.RecordOpen("/b.go")
	x.RecordOpen("/b.go")

	exported := x.Export()
	require.Len(t, exported, 2)
	assert.Equal(t, "/b.go", exported[0].Path)
	assert.Equal(t, 2, exported[0].Count)

	y := NewSessionIndex()
	y.Load(append(exported, IndexEntry{Path: "", Count: 3}, IndexEntry{Path: "/z.go"}))
	assert.Equal(t, exported, y.Export())

	// Mutating the export does not affect the index.
	exported[0].Count = 99
	assert.Equal(t, 2, x.OpenCount("/b.go"))
}
