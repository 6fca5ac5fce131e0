// Package storage defines the vault file-system abstraction. The core never
// decides when to persist; callers read text through a Provider, transform
// it, and write the result back themselves.
package storage

import "github.com/nordveil/ideaforge/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns info for every .md file under dir.
	List(dir string) ([]models.DocInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of the file at path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
