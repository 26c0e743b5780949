// Package storage defines access to the posts directory.
package storage

import "github.com/starford/quire/internal/models"

// Provider is the interface for posts root file operations.
type Provider interface {
	// List returns every document under dir (relative to the posts root).
	// Entries that cannot be inspected are skipped.
	List(dir string) ([]models.PostFile, error)
	// Read returns the raw bytes of the file at path (relative to the posts root).
	Read(path string) ([]byte, error)
	// Create atomically writes a new file, failing if path already exists.
	Create(path string, content []byte) error
	// Ext returns the recognized document extension, including the dot.
	Ext() string
}
