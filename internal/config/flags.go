package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/eventlogging/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-k string   base64 recipient public key
//	-u string   upload endpoint URL
//	-q string   queue storage directory
//	-t string   authorization token
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-k", "-u", "-q", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "base64 recipient public key")
	fs.StringVar(&config.UploadURL, "u", config.UploadURL, "upload endpoint URL")
	fs.StringVar(&config.QueueStorageDir, "q", config.QueueStorageDir, "queue storage directory")
	fs.StringVar(&config.AuthToken, "t", config.AuthToken, "authorization token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
