package eventlogging

import "errors"

// ErrLogFileMissing means a queued log's backing file vanished before it
// could be uploaded. The item stays queued until removed externally.
var ErrLogFileMissing = errors.New("eventlogging: log file missing")
