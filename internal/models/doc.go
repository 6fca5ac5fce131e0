// Package models defines the shared domain types for Ideaforge.
package models

import "time"

// DocInfo is a lightweight description of a vault file, as returned by
// storage enumeration. Checksum is the digest of the file's full content.
type DocInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
