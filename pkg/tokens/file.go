package tokens

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// ErrDecryptFailed is returned when the token file cannot be decrypted,
// usually because the passphrase changed or the file was tampered with.
var ErrDecryptFailed = errors.New("token file decryption failed: wrong passphrase or corrupted file")

// scrypt parameters (interactive-strength, per the scrypt docs).
const (
	scryptN       = 1 << 15
	scryptR       = 8
	scryptP       = 1
	scryptSaltLen = 32
)

// FileStore persists the token set to a single file, encrypted at rest with
// XChaCha20-Poly1305 under a key derived from a passphrase with scrypt.
// Writes are atomic (temp file + rename) so a crashed save never leaves a
// half-written set behind.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created if needed. The passphrase must be non-empty.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}
	if passphrase == "" {
		return nil, errors.New("token file passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating token directory: %w", err)
	}
	return &FileStore{path: path, passphrase: []byte(passphrase)}, nil
}

// Load reads and decrypts the stored set. A missing file means never
// authenticated and returns (nil, nil).
func (s *FileStore) Load(_ context.Context) (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, err
	}

	var set TokenSet
	if err := json.Unmarshal(plaintext, &set); err != nil {
		return nil, fmt.Errorf("decoding token file: %w", err)
	}
	return &set, nil
}

// Save encrypts and atomically writes the set.
func (s *FileStore) Save(_ context.Context, set *TokenSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encoding token set: %w", err)
	}

	data, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting token file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is a no-op.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// encrypt produces salt || nonce || ciphertext. A fresh salt per write means
// the derived key changes every save.
func (s *FileStore) encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

func (s *FileStore) decrypt(data []byte) ([]byte, error) {
	if len(data) < scryptSaltLen+chacha20poly1305.NonceSizeX {
		return nil, ErrDecryptFailed
	}
	salt := data[:scryptSaltLen]
	nonce := data[scryptSaltLen : scryptSaltLen+chacha20poly1305.NonceSizeX]
	ciphertext := data[scryptSaltLen+chacha20poly1305.NonceSizeX:]

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

func (s *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return aead, nil
}

// Verify FileStore implements Store.
var _ Store = (*FileStore)(nil)
