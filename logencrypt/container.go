// Package logencrypt seals diagnostic log files into the v1 encrypted
// container format before they leave the device.
//
// A container is UTF-8 JSON carrying a fresh symmetric stream key sealed to
// the recipient's public key (an anonymous sealed box, so only the server can
// read it), a stream header, and the log's bytes as an ordered array of
// independently authenticated ciphertext chunks. Files are processed in
// fixed-size chunks so memory stays bounded regardless of log size.
package logencrypt

import (
	"encoding/json"
	"fmt"
	"os"
)

// FormatVersion is the container format tag. This package reads and writes
// exactly one version.
const FormatVersion = "v1"

const (
	// keyBytes is the size of the per-file symmetric stream key.
	keyBytes = 32

	// HeaderBytes is the size of the raw stream header (base64-encoded in
	// the container).
	HeaderBytes = 32

	// sealedKeyBytes is the size of the sealed stream key: an ephemeral
	// public key and MAC on top of the 32-byte secret. Fixed, which is why
	// the encoded encryptedKey is always 108 base64 characters.
	sealedKeyBytes = 32 + 16 + keyBytes

	// chunkSize is how much plaintext each intermediate message carries.
	chunkSize = 4096
)

// Stream message tags, appended to each chunk's plaintext before sealing so
// the terminator is covered by the chunk's authentication tag.
const (
	tagMessage byte = 0x00
	tagFinal   byte = 0x03
)

// Container is the on-disk v1 artifact. It is transient: produced by the
// Encryptor, consumed by the upload transport, then discarded regardless of
// the upload outcome.
type Container struct {
	KeyedWith    string   `json:"keyedWith"`
	EncryptedKey string   `json:"encryptedKey"`
	Header       string   `json:"header"`
	UUID         string   `json:"uuid"`
	Messages     []string `json:"messages"`
}

// ReadContainer parses a container file.
func ReadContainer(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading container: %w", err)
	}
	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	return &c, nil
}
