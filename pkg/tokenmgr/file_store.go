package tokenmgr

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	// FileStoreKeySize is the required encryption key length (AES-256).
	FileStoreKeySize = 32

	// fileStoreKeyInfo provides HKDF domain separation so the same raw key
	// material cannot be reused for other purposes.
	fileStoreKeyInfo = "mefeed-token-store-v1"
)

var (
	// ErrInvalidStoreKey indicates the encryption key is not 32 bytes.
	ErrInvalidStoreKey = errors.New("tokenmgr.invalid_store_key")

	// ErrCorruptStore indicates the token file exists but cannot be
	// decrypted or decoded.
	ErrCorruptStore = errors.New("tokenmgr.corrupt_store")
)

// FileStore implements Store on a single JSON document, the desktop/CLI
// analog of the browser's local storage. The pair is written as one document
// through a temp-file rename so a crash mid-write never leaves a state with
// only one token updated. With an encryption key set, the document is sealed
// with AES-256-GCM under an HKDF-SHA-256 derived key, nonce prepended.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  []byte // nil means plaintext storage
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithEncryptionKey enables encryption at rest. The key must be exactly
// FileStoreKeySize bytes; NewFileStore fails otherwise.
func WithEncryptionKey(key []byte) FileStoreOption {
	return func(s *FileStore) {
		s.key = key
	}
}

// NewFileStore creates a file-backed store at path. Parent directories are
// created on the first Save, not here, so constructing a store for a
// not-yet-logged-in session touches nothing on disk.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("tokenmgr: file store path is required")
	}

	s := &FileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if s.key != nil && len(s.key) != FileStoreKeySize {
		return nil, ErrInvalidStoreKey
	}

	return s, nil
}

// Load reads and decodes the stored pair.
func (s *FileStore) Load(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, fmt.Errorf("tokenmgr: read token file: %w", err)
	}

	if s.key != nil {
		data, err = s.open(data)
		if err != nil {
			return Credentials{}, err
		}
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Join(ErrCorruptStore, err)
	}
	if !creds.Valid() {
		return Credentials{}, ErrCorruptStore
	}

	return creds, nil
}

// Save atomically replaces the stored pair: the document is written to a
// temp file in the same directory and renamed over the target.
func (s *FileStore) Save(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("tokenmgr: encode credentials: %w", err)
	}

	if s.key != nil {
		data, err = s.seal(data)
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenmgr: create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("tokenmgr: create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tokenmgr: chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tokenmgr: write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tokenmgr: close token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tokenmgr: replace token file: %w", err)
	}

	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenmgr: remove token file: %w", err)
	}
	return nil
}

func (s *FileStore) seal(plaintext []byte) ([]byte, error) {
	aead, err := s.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("tokenmgr: generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *FileStore) open(ciphertext []byte) ([]byte, error) {
	aead, err := s.aead()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrCorruptStore
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrCorruptStore, err)
	}

	return plaintext, nil
}

func (s *FileStore) aead() (cipher.AEAD, error) {
	derived := make([]byte, FileStoreKeySize)
	kdf := hkdf.New(sha256.New, s.key, nil, []byte(fileStoreKeyInfo))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("tokenmgr: derive store key: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("tokenmgr: init cipher: %w", err)
	}

	return cipher.NewGCM(block)
}
