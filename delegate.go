package eventlogging

import "github.com/dmitrijs2005/eventlogging/logfile"

// Delegate lets the host application gate and observe uploads. All
// notification methods are fire-and-forget; only ShouldUploadLogFiles
// influences control flow. It is read fresh on every scheduling run, so
// flipping it externally takes effect on the next attempt.
//
// Implementations must be safe to call from the scheduler's background
// goroutine.
type Delegate interface {
	// ShouldUploadLogFiles reports whether uploads may proceed right now.
	ShouldUploadLogFiles() bool

	// DidQueueLogForUpload fires each time a log is added to the queue.
	DidQueueLogForUpload(log logfile.File)

	// DidStartUploadingLog fires when a log's upload begins.
	DidStartUploadingLog(log logfile.File)

	// DidFinishUploadingLog fires after a log uploaded successfully and was
	// removed from the queue.
	DidFinishUploadingLog(log logfile.File)

	// UploadCancelledByDelegate fires the first time a scheduling run is
	// stopped by ShouldUploadLogFiles returning false. Further runs while the
	// veto holds do not re-notify; the notification re-arms once uploads are
	// permitted again.
	UploadCancelledByDelegate(log logfile.File)

	// UploadFailed fires after an upload attempt failed; the log stays
	// queued.
	UploadFailed(err error, log logfile.File)
}

// NoopDelegate implements Delegate with empty notifications and a
// privacy-preserving default of not uploading anything. Embed it to
// implement only the methods you care about.
type NoopDelegate struct{}

func (NoopDelegate) ShouldUploadLogFiles() bool             { return false }
func (NoopDelegate) DidQueueLogForUpload(logfile.File)      {}
func (NoopDelegate) DidStartUploadingLog(logfile.File)      {}
func (NoopDelegate) DidFinishUploadingLog(logfile.File)     {}
func (NoopDelegate) UploadCancelledByDelegate(logfile.File) {}
func (NoopDelegate) UploadFailed(error, logfile.File)       {}
