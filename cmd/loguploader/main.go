// Command loguploader enqueues diagnostic log files and drains the upload
// queue, encrypting each file to the configured public key before upload.
//
// Usage:
//
//	loguploader [-c conf.json] [-k key] [-u url] [-q dir] [-t token] file...
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventlogging"
	"github.com/dmitrijs2005/eventlogging/internal/config"
	"github.com/dmitrijs2005/eventlogging/logfile"
	"github.com/dmitrijs2005/eventlogging/logging"
)

type dataSource struct {
	cfg *config.Config
}

func (d *dataSource) LoggingEncryptionKey() string       { return d.cfg.EncryptionKey }
func (d *dataSource) LogUploadURL() string               { return d.cfg.UploadURL }
func (d *dataSource) LogUploadQueueStorageDir() string   { return d.cfg.QueueStorageDir }
func (d *dataSource) LoggingAuthenticationToken() string { return d.cfg.AuthToken }
func (d *dataSource) LogFilePath(eventlogging.ErrorLevel, time.Time) (string, bool) {
	return "", false
}

// delegate allows uploads and reports progress on stderr.
type delegate struct {
	eventlogging.NoopDelegate
	log logging.Logger
}

func (d *delegate) ShouldUploadLogFiles() bool { return true }

func (d *delegate) DidStartUploadingLog(f logfile.File) {
	d.log.Info(context.Background(), "uploading log", "uuid", f.UUID)
}

func (d *delegate) DidFinishUploadingLog(f logfile.File) {
	d.log.Info(context.Background(), "uploaded log", "uuid", f.UUID)
}

func (d *delegate) UploadFailed(err error, f logfile.File) {
	d.log.Error(context.Background(), "upload failed", "uuid", f.UUID, "error", err)
}

func main() {
	cfg := config.LoadConfig()
	if cfg.EncryptionKey == "" {
		log.Fatal("an encryption key is required (-k or config file)")
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	svc := eventlogging.New(&dataSource{cfg: cfg}, &delegate{log: logger}, logger, nil)

	for _, path := range flagArgs() {
		if err := svc.EnqueueLogForUpload(logfile.New(path)); err != nil {
			log.Fatalf("enqueueing %s: %v", path, err)
		}
	}

	// Wait for the queue to drain; give up once uploads are paused by
	// repeated failures.
	for len(svc.QueuedLogFiles()) > 0 {
		if paused := svc.UploadsPausedUntil(); paused != nil {
			log.Fatalf("uploads paused until %s; %d log(s) still queued",
				paused.Format(time.RFC3339), len(svc.QueuedLogFiles()))
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// flagArgs returns the positional arguments: everything that is not a flag
// or a flag value.
func flagArgs() []string {
	var files []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") {
				i++ // skip the flag's value
			}
			continue
		}
		files = append(files, args[i])
	}
	return files
}
