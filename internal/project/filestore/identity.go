package filestore

import (
	"strings"

	"github.com/google/uuid"
)

// UnsavedPrefix marks paths of documents that have no backing file.
const UnsavedPrefix = "untitled:"

// NewUnsavedPath returns a fresh path in the unsaved-document namespace.
func NewUnsavedPath() string {
	return UnsavedPrefix + uuid.NewString()
}

// IsUnsaved reports whether path names a document with no backing file.
func IsUnsaved(path string) bool {
	return strings.HasPrefix(path, UnsavedPrefix)
}
