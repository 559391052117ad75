package logencrypt

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/box"
)

var (
	// ErrInvalidKeyPair means the recipient key pair is malformed.
	ErrInvalidKeyPair = errors.New("logencrypt: invalid recipient key pair")

	// ErrMalformedContainer means the container file is not a well-formed v1
	// artifact.
	ErrMalformedContainer = errors.New("logencrypt: malformed container")

	// ErrUnsupportedVersion means the container declares a format this
	// package does not read.
	ErrUnsupportedVersion = errors.New("logencrypt: unsupported container version")

	// ErrUnableToDecryptFile means a chunk failed authentication or the
	// stream terminator is missing.
	ErrUnableToDecryptFile = errors.New("logencrypt: unable to decrypt log file")
)

// GenerateKeyPair returns a fresh recipient key pair. The public key is what
// a data source hands out (base64-encoded) as the logging encryption key;
// the secret key stays on the server.
func GenerateKeyPair() (publicKey, secretKey []byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating key pair: %w", err)
	}
	return pub[:], priv[:], nil
}

// Decryptor is the inverse of Encryptor, used by conformance tests and the
// logdecrypt tool. It requires both halves of the recipient key pair.
type Decryptor struct {
	publicKey *[32]byte
	secretKey *[32]byte
}

// NewDecryptor creates a Decryptor for a 32-byte public/secret key pair.
func NewDecryptor(publicKey, secretKey []byte) (*Decryptor, error) {
	if len(publicKey) != 32 || len(secretKey) != 32 {
		return nil, ErrInvalidKeyPair
	}
	d := &Decryptor{publicKey: new([32]byte), secretKey: new([32]byte)}
	copy(d.publicKey[:], publicKey)
	copy(d.secretKey[:], secretKey)
	return d, nil
}

// DecryptLog opens the container at path and writes the recovered plaintext
// to a fresh file in the system temp directory, returning its path.
func (d *Decryptor) DecryptLog(path string) (string, error) {
	outputPath := filepath.Join(os.TempDir(), "decrypted-"+uuid.NewString())
	output, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}

	if err := d.decryptTo(path, output); err != nil {
		output.Close()
		_ = os.Remove(outputPath)
		return "", err
	}
	if err := output.Close(); err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("closing output file: %w", err)
	}
	return outputPath, nil
}

func (d *Decryptor) decryptTo(path string, out io.Writer) error {
	c, err := ReadContainer(path)
	if err != nil {
		return err
	}
	if c.KeyedWith != FormatVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, c.KeyedWith)
	}
	if len(c.Messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrMalformedContainer)
	}

	sealedKey, err := base64.StdEncoding.DecodeString(c.EncryptedKey)
	if err != nil || len(sealedKey) != sealedKeyBytes {
		return fmt.Errorf("%w: bad encryptedKey", ErrMalformedContainer)
	}
	header, err := base64.StdEncoding.DecodeString(c.Header)
	if err != nil || len(header) != HeaderBytes {
		return fmt.Errorf("%w: bad header", ErrMalformedContainer)
	}

	streamKey, ok := box.OpenAnonymous(nil, sealedKey, d.publicKey, d.secretKey)
	if !ok {
		return fmt.Errorf("%w: sealed key does not open with this key pair", ErrUnableToDecryptFile)
	}

	aead, err := newChunkAEAD(streamKey, header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecryptFile, err)
	}

	w := bufio.NewWriter(out)
	for i, msg := range c.Messages {
		sealed, err := base64.StdEncoding.DecodeString(msg)
		if err != nil {
			return fmt.Errorf("%w: bad message %d", ErrMalformedContainer, i)
		}

		tagged, openErr := aead.Open(nil, chunkNonce(uint64(i)), sealed, nil)
		if openErr != nil || len(tagged) == 0 {
			return fmt.Errorf("%w: chunk %d failed authentication", ErrUnableToDecryptFile, i)
		}

		plaintext, tag := tagged[:len(tagged)-1], tagged[len(tagged)-1]
		last := i == len(c.Messages)-1
		if last && tag != tagFinal {
			return fmt.Errorf("%w: stream terminator missing", ErrUnableToDecryptFile)
		}
		if !last && tag != tagMessage {
			return fmt.Errorf("%w: unexpected terminator at chunk %d", ErrUnableToDecryptFile, i)
		}

		if _, err := w.Write(plaintext); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing plaintext: %w", err)
	}
	return nil
}
