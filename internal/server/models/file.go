// Package models defines server-side data models persisted in the database.
package models

import "time"

// File is the metadata record of one uploaded blob.
//
// Several active records may share (UserID, Filename): uploads never
// overwrite. BlobKey is assigned once at upload and survives renames.
// Records are soft-deleted and never physically removed.
type File struct {
	ID        int64
	UserID    string
	Filename  string
	SizeBytes int64
	// Hash is the client supplied content digest, if any. It is stored
	// verbatim and never verified.
	Hash      *string
	BlobKey   string
	CreatedAt time.Time
	Deleted   bool
	DeletedAt *time.Time
}

// FileInfo is the listing projection of a File.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
