package persist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/sessionkit/internal/session"
)

func sampleSnapshot() session.Snapshot {
	return session.Snapshot{
		OpenPaths:  []string{"/proj/a.go", "/proj/b.go"},
		ActivePath: "/proj/b.go",
		Metrics: session.Metrics{
			OpenTabs:    2,
			DirtyTabs:   1,
			CachedFiles: 2,
			SavesOK:     3,
			SavesFailed: 1,
		},
		Timestamp:     time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC),
		SchemaVersion: session.SchemaVersion,
	}
}

func TestEncodeSnapshot_Fields(t *testing.T) {
	data, err := EncodeSnapshot(sampleSnapshot())
	require.NoError(t, err)

	doc := gjson.ParseBytes(data)
	assert.EqualValues(t, session.SchemaVersion, doc.Get("schemaVersion").Int())
	assert.Equal(t, "/proj/b.go", doc.Get("activePath").String())
	assert.Equal(t, "/proj/a.go", doc.Get("openPaths.0").String())
	assert.EqualValues(t, 1, doc.Get("metrics.dirtyTabs").Int())
	assert.Equal(t, "2024-05-01T12:30:00.000000123Z", doc.Get("timestamp").String())
}

func TestDecodeSnapshot(t *testing.T) {
	want := sampleSnapshot()
	data, err := EncodeSnapshot(want)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, want.OpenPaths, got.OpenPaths)
	assert.Equal(t, want.ActivePath, got.ActivePath)
	assert.Equal(t, want.Metrics, got.Metrics)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestEncodeSnapshot_EmptyPaths(t *testing.T) {
	data, err := EncodeSnapshot(session.Snapshot{SchemaVersion: session.SchemaVersion})
	require.NoError(t, err)
	assert.Equal(t, "[]", gjson.GetBytes(data, "openPaths").Raw)
}

func TestDecodeSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"openPaths": [`, ErrInvalidSnapshot},
		{"no version", `{"openPaths": []}`, ErrInvalidSnapshot},
		{"future version", `{"schemaVersion": 99, "openPaths": []}`, ErrUnsupportedSchema},
		{"bad timestamp", `{"schemaVersion": 1, "timestamp": "yesterday"}`, ErrInvalidSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
