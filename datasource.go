package eventlogging

import (
	"os"
	"path/filepath"
	"time"
)

// ErrorLevel classifies the crash-logging event a log file accompanies.
type ErrorLevel int

const (
	// ErrorLevelFatal marks logs attached to crash events.
	ErrorLevelFatal ErrorLevel = iota

	// ErrorLevelDebug marks logs attached to non-fatal events.
	ErrorLevelDebug
)

// DefaultUploadURL is the endpoint used when the host application does not
// point the uploader somewhere else.
const DefaultUploadURL = "https://public-api.wordpress.com/rest/v1.1/encrypted-logging"

// DataSource supplies the configuration the upload pipeline consumes. The
// values are read fresh on every scheduling run, so a host may rotate the
// token or key without rebuilding the Service.
type DataSource interface {
	// LoggingEncryptionKey returns the base64-encoded recipient public key
	// logs are sealed to before upload.
	LoggingEncryptionKey() string

	// LogUploadURL returns the endpoint encrypted containers are POSTed to.
	LogUploadURL() string

	// LogUploadQueueStorageDir returns the directory backing the upload
	// queue. Returning "" selects DefaultQueueStorageDir().
	LogUploadQueueStorageDir() string

	// LoggingAuthenticationToken returns the Authorization header value for
	// uploads.
	LoggingAuthenticationToken() string

	// LogFilePath returns the log file accompanying an event of the given
	// level at the given time, used by the crash-logging integration to pick
	// which log rides along with a crash. ok is false when no such log
	// exists.
	LogFilePath(level ErrorLevel, at time.Time) (path string, ok bool)
}

// DefaultQueueStorageDir is a `log-upload-queue` folder inside the user's
// configuration directory, falling back to the system temp directory when no
// configuration directory is available.
func DefaultQueueStorageDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "log-upload-queue")
}
