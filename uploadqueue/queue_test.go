package uploadqueue

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eventlogging/logfile"
)

func makeLog(t *testing.T, content string) logfile.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return logfile.New(path)
}

func newQueue(t *testing.T) *Queue {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "log-upload-queue"))
}

func TestFirst_EmptyStorageDirectoryReturnsNothing(t *testing.T) {
	q := newQueue(t)

	_, ok := q.First()
	require.False(t, ok)
	require.Empty(t, q.Items())
}

func TestAdd_CreatesStorageDirectoryLazily(t *testing.T) {
	q := newQueue(t)

	_, err := os.Stat(q.StorageDir())
	require.ErrorIs(t, err, os.ErrNotExist, "directory must not exist before the first add")

	require.NoError(t, q.Add(makeLog(t, "hello")))

	fi, err := os.Stat(q.StorageDir())
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestAdd_CopiesFileIntoStorage(t *testing.T) {
	q := newQueue(t)
	log := makeLog(t, "some log content")
	require.NoError(t, q.Add(log))

	entries, err := os.ReadDir(q.StorageDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, log.FileName(), entries[0].Name())

	// The source file must be left in place.
	_, err = os.Stat(log.Path)
	require.NoError(t, err)
}

func TestAdd_MissingSourcePropagatesErrorAndLeavesQueueUnchanged(t *testing.T) {
	q := newQueue(t)
	ghost := logfile.New(filepath.Join(t.TempDir(), "missing.log"))

	require.Error(t, q.Add(ghost))
	require.Empty(t, q.Items())
}

func TestFirst_ReturnsStoredCopyWithSameContent(t *testing.T) {
	q := newQueue(t)
	log := makeLog(t, "queued content")
	require.NoError(t, q.Add(log))

	first, ok := q.First()
	require.True(t, ok)
	require.Equal(t, log.UUID, first.UUID)

	got, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	require.Equal(t, []byte("queued content"), got)
}

func TestRemove_DeletesStoredCopy(t *testing.T) {
	q := newQueue(t)
	log := makeLog(t, "x")
	require.NoError(t, q.Add(log))
	require.Len(t, q.Items(), 1)

	require.NoError(t, q.Remove(log))
	require.Empty(t, q.Items())
}

func TestRemove_AbsentFileIsSilentSuccess(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Remove(logfile.New("/nowhere/nothing.log")))
}

func TestItems_CountMatchesAddsMinusRemoves(t *testing.T) {
	q := newQueue(t)

	logs := make([]logfile.File, 0, 10)
	for i := 0; i < 10; i++ {
		log := makeLog(t, "content")
		logs = append(logs, log)
		require.NoError(t, q.Add(log))
	}
	require.Len(t, q.Items(), 10)

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Remove(logs[i]))
	}
	require.Len(t, q.Items(), 6)
}

func TestItems_SortedByCreationDateAscending(t *testing.T) {
	q := newQueue(t)

	var uuids []string
	for i := 0; i < 5; i++ {
		log := makeLog(t, "content")
		uuids = append(uuids, log.UUID)
		require.NoError(t, q.Add(log))

		// Stamp each stored copy progressively older, so queue order is the
		// reverse of enqueue order.
		stored := filepath.Join(q.StorageDir(), log.FileName())
		ts := time.Now().Add(-time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(stored, ts, ts))
	}

	items := q.Items()
	require.Len(t, items, 5)
	for i, item := range items {
		require.Equal(t, uuids[len(uuids)-1-i], item.UUID)
	}
}

func TestClean_RetainsExactlyTheRetentionWindow(t *testing.T) {
	q := newQueue(t)

	// 90 files dated 0..89 days old.
	for day := 0; day < 90; day++ {
		log := makeLog(t, "aged content")
		require.NoError(t, q.Add(log))

		stored := filepath.Join(q.StorageDir(), log.FileName())
		ts := time.Now().Add(-time.Duration(day) * 24 * time.Hour)
		require.NoError(t, os.Chtimes(stored, ts, ts))
	}
	require.Len(t, q.Items(), 90)

	retain := rand.Intn(88) + 1 // 1..88
	require.NoError(t, q.Clean(retain))
	require.Len(t, q.Items(), retain, "retentionDays=%d", retain)
}

func TestClean_EvictsFilesDatedInTheFuture(t *testing.T) {
	q := newQueue(t)
	log := makeLog(t, "from the future")
	require.NoError(t, q.Add(log))

	stored := filepath.Join(q.StorageDir(), log.FileName())
	ts := time.Now().Add(48 * time.Hour)
	require.NoError(t, os.Chtimes(stored, ts, ts))

	require.NoError(t, q.Clean(30))
	require.Empty(t, q.Items())
}

func TestClean_MissingStorageDirectoryIsANoOp(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Clean(30))
}

func TestNew_RunsRetentionCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log-upload-queue")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	stale := filepath.Join(dir, "stale-log")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))
	ts := time.Now().Add(-time.Duration(DefaultRetentionDays+5) * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, ts, ts))

	fresh := filepath.Join(dir, "fresh-log")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o600))

	q := New(dir)
	items := q.Items()
	require.Len(t, items, 1)
	require.Equal(t, "fresh-log", items[0].UUID)
}
