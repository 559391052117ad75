package eventlogging

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/eventlogging/backoff"
	"github.com/dmitrijs2005/eventlogging/logencrypt"
	"github.com/dmitrijs2005/eventlogging/logfile"
	"github.com/dmitrijs2005/eventlogging/logging"
	"github.com/dmitrijs2005/eventlogging/transport"
	"github.com/dmitrijs2005/eventlogging/uploadqueue"
)

// distantFuture parks the scheduler while the delegate veto is in effect.
// The next EnqueueLogForUpload (or an explicit UploadNextLogFileIfNeeded)
// wakes it up sooner.
const distantFuture = 10 * 365 * 24 * time.Hour

// Service is the upload scheduler. It drains the persistent queue one file
// at a time: pop the oldest queued log, check the backoff gate, ask the
// delegate for permission, encrypt, upload, update queue and backoff state,
// then reschedule itself.
//
// All methods are safe for concurrent use.
type Service struct {
	dataSource DataSource
	delegate   Delegate

	queue   *uploadqueue.Queue
	network *transport.Service
	log     logging.Logger

	// running admits exactly one scheduling run at a time. Acquired with a
	// non-blocking try: losing the race is fine because the active run
	// always re-triggers the scheduler when it finishes an item.
	running *semaphore.Weighted

	// mu guards the fields below. The backoff timer is read by
	// UploadsPausedUntil from arbitrary goroutines.
	mu    sync.Mutex
	timer *backoff.Timer

	// wake is the single deferred-wakeup timer; rescheduling reuses it so
	// repeated parked passes do not stack timers.
	wake *time.Timer

	// cancelled latches the delegate-veto notification: the delegate hears
	// about a cancellation once, not once per attempt, until the veto lifts.
	cancelled bool
}

// New creates a Service over the data source's queue storage directory
// (running retention cleanup), then immediately schedules an upload pass to
// drain anything left over from a previous process.
//
// errorSink receives scheduler-internal errors that cannot propagate to any
// caller, such as encryption failures; nil discards them. httpClient
// controls upload timeouts; nil uses a default client.
func New(dataSource DataSource, delegate Delegate, errorSink logging.Logger, httpClient *http.Client) *Service {
	if errorSink == nil {
		errorSink = logging.NewDiscardLogger()
	}

	storageDir := dataSource.LogUploadQueueStorageDir()
	if storageDir == "" {
		storageDir = DefaultQueueStorageDir()
	}

	s := &Service{
		dataSource: dataSource,
		delegate:   delegate,
		queue:      uploadqueue.New(storageDir),
		network:    transport.NewService(httpClient),
		log:        errorSink,
		running:    semaphore.NewWeighted(1),
		timer:      backoff.NewTimer(backoff.DefaultMinimumDelay, backoff.DefaultMaximumDelay),
	}

	// Start working through whatever survived the last run.
	s.UploadNextLogFileIfNeeded()

	return s
}

// EnqueueLogForUpload copies the log into the durable queue and triggers an
// upload pass. Queue I/O errors propagate to the caller; upload errors do
// not: they surface through the delegate and the error sink.
//
// Safe to call from multiple goroutines.
func (s *Service) EnqueueLogForUpload(log logfile.File) error {
	if err := s.queue.Add(log); err != nil {
		return err
	}

	s.delegate.DidQueueLogForUpload(log)

	s.UploadNextLogFileIfNeeded()
	return nil
}

// UploadNextLogFileIfNeeded schedules an upload pass on a background
// goroutine. Calling it while a pass is running is a no-op.
func (s *Service) UploadNextLogFileIfNeeded() {
	go s.runUploadLogs()
}

// QueuedLogFiles returns a snapshot of the pending queue, oldest first.
func (s *Service) QueuedLogFiles() []logfile.File {
	return s.queue.Items()
}

// UploadsPausedUntil returns the wall-clock time uploads resume after
// repeated failures, or nil when uploads are not paused.
func (s *Service) UploadsPausedUntil() *time.Time {
	s.mu.Lock()
	next := s.timer.NextFireDate()
	s.mu.Unlock()

	if !next.After(time.Now()) {
		return nil
	}
	return &next
}

// runUploadLogs is one scheduling pass. It must only be dispatched via
// UploadNextLogFileIfNeeded.
func (s *Service) runUploadLogs() {
	ctx := context.Background()

	// Only one pass at a time. A pass that loses this race relies on the
	// winner re-checking the queue after its current item.
	if !s.running.TryAcquire(1) {
		return
	}

	// Empty queue: go idle without rescheduling. The next enqueue wakes us.
	log, ok := s.queue.First()
	if !ok {
		s.running.Release(1)
		return
	}

	// Backoff gate: too early to retry, come back at the fire time.
	s.mu.Lock()
	next := s.timer.NextFireTime()
	s.mu.Unlock()
	if wait := time.Until(next); wait > 0 {
		s.retryUploadsAfter(wait)
		s.running.Release(1)
		return
	}

	// Delegate veto: pause until an external signal (in practice, the next
	// enqueue) instead of spinning on a queue we may not upload.
	if !s.delegate.ShouldUploadLogFiles() {
		s.notifyCancelledOnce(log)
		s.retryUploadsAfter(distantFuture)
		s.running.Release(1)
		return
	}
	s.clearCancelled()

	// The queued copy can vanish out from under us (external cleanup, user
	// clearing storage). Report it and back off without a network call.
	if _, err := os.Stat(log.Path); err != nil {
		failure := fmt.Errorf("%w: %s", ErrLogFileMissing, log.Path)
		s.delegate.UploadFailed(failure, log)
		s.mu.Lock()
		s.timer.Increment()
		delay := time.Until(s.timer.NextFireTime())
		s.mu.Unlock()
		s.retryUploadsAfter(delay)

		s.running.Release(1)
		s.UploadNextLogFileIfNeeded()
		return
	}

	encrypted, err := s.encryptLog(log)
	if err != nil {
		// Almost certainly a local file problem (storage full, file deleted
		// mid-read), not server unavailability: don't touch the backoff
		// timer and don't remove the item. The next natural trigger retries.
		s.log.Error(ctx, "failed to encrypt log for upload", "log_uuid", log.UUID, "error", err)
		s.running.Release(1)
		return
	}
	// The container is transient no matter how the upload goes.
	defer os.Remove(encrypted.Path)

	// The veto may have flipped while we were encrypting.
	if !s.delegate.ShouldUploadLogFiles() {
		s.notifyCancelledOnce(log)
		s.retryUploadsAfter(distantFuture)
		s.running.Release(1)
		return
	}

	uploadErr := s.uploadEncryptedLog(ctx, log, encrypted)

	if uploadErr == nil {
		// Remove the plaintext copy from the queue and reset the backoff
		// before notifying, so the delegate observes the post-upload state.
		if err := s.queue.Remove(log); err != nil {
			s.log.Warn(ctx, "failed to remove uploaded log from queue", "log_uuid", log.UUID, "error", err)
		}
		s.mu.Lock()
		s.timer.Reset()
		s.mu.Unlock()
		s.delegate.DidFinishUploadingLog(log)
	} else {
		s.mu.Lock()
		s.timer.Increment()
		delay := time.Until(s.timer.NextFireTime())
		s.mu.Unlock()
		s.retryUploadsAfter(delay)
		s.delegate.UploadFailed(uploadErr, log)
	}

	// Release the run slot before triggering the next pass. Two explicit
	// steps: releasing inside a defer could race the next acquisition.
	s.running.Release(1)
	s.UploadNextLogFileIfNeeded()
}

// notifyCancelledOnce fires UploadCancelledByDelegate for the first vetoed
// attempt only; further attempts while the veto holds stay silent.
func (s *Service) notifyCancelledOnce(log logfile.File) {
	s.mu.Lock()
	already := s.cancelled
	s.cancelled = true
	s.mu.Unlock()

	if !already {
		s.delegate.UploadCancelledByDelegate(log)
	}
}

// clearCancelled re-arms the cancellation notification once the delegate
// permits uploads again.
func (s *Service) clearCancelled() {
	s.mu.Lock()
	s.cancelled = false
	s.mu.Unlock()
}

// retryUploadsAfter arranges an upload pass once the given duration elapses.
// A single timer is reused, so rescheduling replaces the pending wakeup
// rather than stacking a new one.
func (s *Service) retryUploadsAfter(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wake == nil {
		s.wake = time.AfterFunc(d, s.UploadNextLogFileIfNeeded)
		return
	}
	s.wake.Stop()
	s.wake.Reset(d)
}

// encryptLog seals the queued log into a fresh container using the data
// source's current encryption key.
func (s *Service) encryptLog(log logfile.File) (logfile.File, error) {
	key, err := base64.StdEncoding.DecodeString(s.dataSource.LoggingEncryptionKey())
	if err != nil {
		return logfile.File{}, fmt.Errorf("decoding logging encryption key: %w", err)
	}

	encryptor, err := logencrypt.NewEncryptor(key)
	if err != nil {
		return logfile.File{}, err
	}

	return encryptor.EncryptLog(log)
}

// uploadEncryptedLog POSTs the container, bracketing the attempt with
// delegate start/finish notifications. The start/finish pairs never
// interleave across logs because only one scheduling pass runs at a time and
// the transport call blocks until the outcome is known.
func (s *Service) uploadEncryptedLog(ctx context.Context, log, encrypted logfile.File) error {
	body, err := os.Open(encrypted.Path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLogFileMissing, encrypted.Path)
	}
	defer body.Close()

	s.delegate.DidStartUploadingLog(log)

	_, err = s.network.UploadFile(ctx,
		s.dataSource.LogUploadURL(),
		s.dataSource.LoggingAuthenticationToken(),
		log.UUID,
		body,
	)
	return err
}
