package logencrypt

import (
	"bufio"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/box"

	"github.com/dmitrijs2005/eventlogging/logfile"
)

var (
	// ErrInvalidPublicKey means the recipient key is not a 32-byte key.
	ErrInvalidPublicKey = errors.New("logencrypt: invalid recipient public key")

	// ErrUnableToReadFile means the plaintext log could not be opened or read.
	ErrUnableToReadFile = errors.New("logencrypt: unable to read log file")

	// ErrUnableToWriteFile means the container file could not be created or
	// written.
	ErrUnableToWriteFile = errors.New("logencrypt: unable to write encrypted file")

	// ErrUnableToEncryptFile means an encryption primitive failed.
	ErrUnableToEncryptFile = errors.New("logencrypt: unable to encrypt log file")
)

// streamInfo separates the chunk key derivation from any other use of the
// stream key.
const streamInfo = "encrypted-log-stream-v1"

// Encryptor transforms plaintext log files into v1 containers sealed to one
// recipient public key. It is stateless and safe for concurrent use.
type Encryptor struct {
	publicKey *[32]byte
}

// NewEncryptor creates an Encryptor for the given 32-byte recipient public
// key (the decoded form of the data source's base64 logging encryption key).
func NewEncryptor(publicKey []byte) (*Encryptor, error) {
	if len(publicKey) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidPublicKey, len(publicKey))
	}
	var key [32]byte
	copy(key[:], publicKey)
	return &Encryptor{publicKey: &key}, nil
}

// EncryptLog seals the log's bytes into a fresh container in the system temp
// directory and returns a File pointing at it, carrying the same UUID. The
// output path is always distinct from the input path.
//
// On any failure the partial output is removed and a typed error is
// returned; a returned error always means no container exists.
func (e *Encryptor) EncryptLog(log logfile.File) (logfile.File, error) {
	outputPath := filepath.Join(os.TempDir(), uuid.NewString()+"-"+filepath.Base(log.Path))

	if err := e.encryptTo(log, outputPath); err != nil {
		_ = os.Remove(outputPath)
		return logfile.File{}, err
	}

	return logfile.File{UUID: log.UUID, Path: outputPath}, nil
}

func (e *Encryptor) encryptTo(log logfile.File, outputPath string) error {
	// Fresh symmetric key for this file, sealed to the recipient.
	streamKey := make([]byte, keyBytes)
	if _, err := rand.Read(streamKey); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToEncryptFile, err)
	}
	sealedKey, err := box.SealAnonymous(nil, streamKey, e.publicKey, rand.Reader)
	if err != nil {
		return fmt.Errorf("%w: sealing stream key: %v", ErrUnableToEncryptFile, err)
	}

	header := make([]byte, HeaderBytes)
	if _, err := rand.Read(header); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToEncryptFile, err)
	}

	aead, err := newChunkAEAD(streamKey, header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToEncryptFile, err)
	}

	input, err := os.Open(log.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToReadFile, err)
	}
	defer input.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}
	defer output.Close()

	w := bufio.NewWriter(output)
	if err := writePreamble(w, sealedKey, header, log.UUID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}

	// Encrypt fixed-size chunks as intermediate messages, then a zero-length
	// terminator chunk. The terminator is always present, so even an empty
	// log yields one message.
	var counter uint64
	buf := make([]byte, chunkSize)
	reader := bufio.NewReader(input)
	for {
		n, readErr := io.ReadFull(reader, buf)
		if n > 0 {
			if err := writeChunk(w, aead, counter, buf[:n], tagMessage); err != nil {
				return err
			}
			counter++
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: %v", ErrUnableToReadFile, readErr)
		}
	}

	if err := writeChunk(w, aead, counter, nil, tagFinal); err != nil {
		return err
	}

	if _, err := w.WriteString("]}"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}

	return nil
}

// newChunkAEAD expands the stream key into the chunk cipher. The header acts
// as the HKDF salt, extending the effective nonce space: nonces themselves
// are plain chunk counters scoped to this header.
func newChunkAEAD(streamKey, header []byte) (cipher.AEAD, error) {
	chunkKey := make([]byte, keyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, streamKey, header, []byte(streamInfo)), chunkKey); err != nil {
		return nil, err
	}
	return chacha20poly1305.New(chunkKey)
}

// chunkNonce builds the 12-byte nonce for chunk i: four zero bytes and a
// big-endian counter.
func chunkNonce(counter uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], counter)
	return nonce
}

func writePreamble(w *bufio.Writer, sealedKey, header []byte, logUUID string) error {
	// The uuid is caller-supplied, so run it through the JSON encoder rather
	// than splicing it in raw.
	quotedUUID, err := json.Marshal(logUUID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, `{"keyedWith":%q,"encryptedKey":%q,"header":%q,"uuid":%s,"messages":[`,
		FormatVersion,
		base64.StdEncoding.EncodeToString(sealedKey),
		base64.StdEncoding.EncodeToString(header),
		quotedUUID,
	)
	return err
}

func writeChunk(w *bufio.Writer, aead cipher.AEAD, counter uint64, plaintext []byte, tag byte) error {
	// The tag byte rides inside the sealed payload so truncating the final
	// chunk is detectable.
	tagged := make([]byte, 0, len(plaintext)+1)
	tagged = append(tagged, plaintext...)
	tagged = append(tagged, tag)

	sealed := aead.Seal(nil, chunkNonce(counter), tagged, nil)

	if counter > 0 {
		if _, err := w.WriteString(","); err != nil {
			return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
		}
	}
	if _, err := fmt.Fprintf(w, "%q", base64.StdEncoding.EncodeToString(sealed)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToWriteFile, err)
	}
	return nil
}
