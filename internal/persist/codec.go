// Package persist stores session snapshots and the session index in a
// SQLite database so a session can be restored after restart.
package persist

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/sessionkit/internal/session"
)

// Codec errors.
var (
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema")
)

// EncodeSnapshot encodes s as JSON.
func EncodeSnapshot(s session.Snapshot) ([]byte, error) {
	paths := s.OpenPaths
	if paths == nil {
		paths = []string{}
	}

	fields := []struct {
		path  string
		value any
	}{
		{"schemaVersion", s.SchemaVersion},
		{"timestamp", s.Timestamp.UTC().Format(time.RFC3339Nano)},
		{"activePath", s.ActivePath},
		{"openPaths", paths},
		{"metrics.openTabs", s.Metrics.OpenTabs},
		{"metrics.dirtyTabs", s.Metrics.DirtyTabs},
		{"metrics.untitledTabs", s.Metrics.UntitledTabs},
		{"metrics.cachedFiles", s.Metrics.CachedFiles},
		{"metrics.savesOk", s.Metrics.SavesOK},
		{"metrics.savesFailed", s.Metrics.SavesFailed},
	}

	data := []byte("{}")
	for _, f := range fields {
		var err error
		data, err = sjson.SetBytes(data, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return data, nil
}

// DecodeSnapshot decodes a snapshot written by EncodeSnapshot. The schema
// version is checked before anything else is read.
func DecodeSnapshot(data []byte) (session.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return session.Snapshot{}, ErrInvalidSnapshot
	}
	doc := gjson.ParseBytes(data)

	version := doc.Get("schemaVersion")
	if !version.Exists() {
		return session.Snapshot{}, fmt.Errorf("%w: missing schemaVersion", ErrInvalidSnapshot)
	}
	if int(version.Int()) != session.SchemaVersion {
		return session.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSchema, version.Int())
	}

	s := session.Snapshot{
		SchemaVersion: int(version.Int()),
		ActivePath:    doc.Get("activePath").String(),
	}
	if ts := doc.Get("timestamp").String(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return session.Snapshot{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidSnapshot, err)
		}
		s.Timestamp = t
	}
	for _, p := range doc.Get("openPaths").Array() {
		s.OpenPaths = append(s.OpenPaths, p.String())
	}

	m := doc.Get("metrics")
	s.Metrics = session.Metrics{
		OpenTabs:     int(m.Get("openTabs").Int()),
		DirtyTabs:    int(m.Get("dirtyTabs").Int()),
		UntitledTabs: int(m.Get("untitledTabs").Int()),
		CachedFiles:  int(m.Get("cachedFiles").Int()),
		SavesOK:      int(m.Get("savesOk").Int()),
		SavesFailed:  int(m.Get("savesFailed").Int()),
	}
	return s, nil
}
