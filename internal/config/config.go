// Package config handles configuration for the loguploader command,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"github.com/dmitrijs2005/eventlogging"
)

// Config holds runtime settings for the loguploader CLI.
//
// Fields:
//   - EncryptionKey: base64 recipient public key logs are sealed to.
//   - UploadURL: endpoint encrypted containers are POSTed to.
//   - QueueStorageDir: directory backing the upload queue.
//   - AuthToken: Authorization header value for uploads.
type Config struct {
	EncryptionKey   string
	UploadURL       string
	QueueStorageDir string
	AuthToken       string
}

// LoadDefaults populates c with sensible defaults. The encryption key and
// auth token have no safe default and must come from JSON or flags.
func (c *Config) LoadDefaults() {
	c.UploadURL = eventlogging.DefaultUploadURL
	c.QueueStorageDir = eventlogging.DefaultQueueStorageDir()
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
