// Package uploadqueue provides the durable, directory-backed store of log
// files waiting to be uploaded.
//
// Each queued log is one file inside the storage directory, named by its
// UUID. The directory is created lazily on the first Add. A queue instance
// assumes exclusive ownership of its directory; pointing two instances at the
// same directory is unsupported.
package uploadqueue

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/eventlogging/logfile"
)

// DefaultRetentionDays is how long queued logs are kept before cleanup
// evicts them.
const DefaultRetentionDays = 30

// Queue is a persistent upload queue. Individual operations are atomic file
// copies/removes, so concurrent Adds from multiple goroutines are safe.
type Queue struct {
	storageDir string
}

// New opens a queue over the given storage directory and evicts anything
// older than DefaultRetentionDays. Cleanup failures are deliberately
// swallowed here: an unreadable directory must not stop the host application
// from enqueueing new logs.
func New(storageDir string) *Queue {
	q := &Queue{storageDir: storageDir}
	_ = q.Clean(DefaultRetentionDays)
	return q
}

// StorageDir returns the directory backing this queue.
func (q *Queue) StorageDir() string {
	return q.storageDir
}

// Add copies the log's backing file into queue storage, creating the storage
// directory if needed. On failure the queue is left unchanged and the error
// propagates to the caller.
func (q *Queue) Add(log logfile.File) error {
	if err := q.createStorageDirIfNeeded(); err != nil {
		return err
	}
	dst := filepath.Join(q.storageDir, log.FileName())
	if err := copyFile(log.Path, dst); err != nil {
		return fmt.Errorf("queueing log %s: %w", log.UUID, err)
	}
	return nil
}

// Remove deletes the stored copy of the log. Removing a log that is not in
// the queue is a silent success.
func (q *Queue) Remove(log logfile.File) error {
	err := os.Remove(filepath.Join(q.storageDir, log.FileName()))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing log %s: %w", log.UUID, err)
	}
	return nil
}

// Items lists the queued logs, oldest first. An unreadable storage directory
// yields an empty slice rather than an error.
func (q *Queue) Items() []logfile.File {
	entries, err := os.ReadDir(q.storageDir)
	if err != nil {
		return nil
	}

	items := make([]logfile.File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		items = append(items, logfile.FromExistingFile(filepath.Join(q.storageDir, entry.Name())))
	}

	logfile.SortByCreationDate(items)
	return items
}

// First returns the head of the queue, or false when the queue is empty.
func (q *Queue) First() (logfile.File, bool) {
	items := q.Items()
	if len(items) == 0 {
		return logfile.File{}, false
	}
	return items[0], true
}

// Clean evicts every stored file whose creation date falls outside the
// retention window ending now. A file whose metadata cannot be read is
// evicted as well: logs must not pile up on the device just because their
// attributes went bad.
func (q *Queue) Clean(retentionDays int) error {
	entries, err := os.ReadDir(q.storageDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("listing queue storage: %w", err)
	}

	now := time.Now()
	oldest := now.AddDate(0, 0, -retentionDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		evict := false
		info, err := entry.Info()
		if err != nil {
			evict = true
		} else {
			created := info.ModTime()
			evict = created.Before(oldest) || created.After(now)
		}

		if !evict {
			continue
		}
		if err := os.Remove(filepath.Join(q.storageDir, entry.Name())); err != nil {
			return fmt.Errorf("evicting %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func (q *Queue) createStorageDirIfNeeded() error {
	if err := os.MkdirAll(q.storageDir, 0o750); err != nil {
		return fmt.Errorf("creating queue storage: %w", err)
	}
	return nil
}

// copyFile copies src to dst without leaving a partial dst behind on error.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
