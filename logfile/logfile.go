// Package logfile defines the value type identifying one diagnostic log
// artifact queued for upload.
package logfile

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// File identifies one diagnostic log artifact.
//
// The UUID is immutable after construction and doubles as the on-disk file
// name inside the upload queue; two File values with the same UUID refer to
// the same logical artifact regardless of where their bytes currently live.
type File struct {
	// UUID is the stable identifier of the artifact.
	UUID string

	// Path is where the artifact's bytes live.
	Path string

	// CreatedAt is derived from filesystem metadata when the file is
	// re-hydrated from queue storage. Zero when the metadata is unreadable.
	CreatedAt time.Time
}

// New returns a File for the given path with a freshly generated UUID.
func New(path string) File {
	return File{UUID: uuid.NewString(), Path: path}
}

// FromExistingFile re-hydrates a File from queue storage. The file name is
// the UUID; the creation date comes from file metadata and is left zero when
// the file cannot be stat'ed.
func FromExistingFile(path string) File {
	f := File{UUID: filepath.Base(path), Path: path}
	if fi, err := os.Stat(path); err == nil {
		f.CreatedAt = fi.ModTime()
	}
	return f
}

// FileName returns the name the artifact is stored under inside the queue.
func (f File) FileName() string {
	return f.UUID
}

// SortByCreationDate orders files oldest first. Files with an unreadable
// (zero) creation date sort after everything else so they never win the
// head-of-queue slot.
func SortByCreationDate(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].CreatedAt, files[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})
}
