package encryptor

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = chacha20poly1305.NonceSize
	keySize   = chacha20poly1305.KeySize
	scryptN   = 32768
	scryptR   = 8
	scryptP   = 1

	// maxCachedKeys bounds the keys kept for salts of other writers.
	maxCachedKeys = 64
)

// Overhead is the number of bytes Encrypt adds to a plaintext.
const Overhead = saltSize + nonceSize + chacha20poly1305.Overhead

var ErrEmptyPassphrase = errors.New("encryption passphrase must not be empty")

// Encryptor seals and opens stored chunk payloads.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// chaCha20Poly1305Encryptor derives ChaCha20-Poly1305 keys from a passphrase
// with scrypt. Sealed output is salt || nonce || ciphertext. The write salt is
// chosen once per encryptor so its key is derived once. Keys for other salts
// are cached only after they opened a ciphertext, up to maxCachedKeys.
type chaCha20Poly1305Encryptor struct {
	passphrase []byte
	salt       []byte
	writeKey   []byte

	mu   sync.Mutex
	keys map[string][]byte
}

// NewEncryptor returns the default encryptor bound to passphrase.
func NewEncryptor(passphrase string) (Encryptor, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	e := &chaCha20Poly1305Encryptor{
		passphrase: []byte(passphrase),
		salt:       salt,
		keys:       make(map[string][]byte),
	}
	var err error
	if e.writeKey, err = e.derive(salt); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *chaCha20Poly1305Encryptor) derive(salt []byte) ([]byte, error) {
	k, err := scrypt.Key(e.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return k, nil
}

// cachedKey returns the key for salt if it is known to open ciphertexts.
func (e *chaCha20Poly1305Encryptor) cachedKey(salt []byte) ([]byte, bool) {
	if string(salt) == string(e.salt) {
		return e.writeKey, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.keys[string(salt)]
	return k, ok
}

func (e *chaCha20Poly1305Encryptor) remember(salt, key []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.keys) >= maxCachedKeys {
		for s := range e.keys {
			delete(e.keys, s)
			break
		}
	}
	e.keys[string(salt)] = key
}

func (e *chaCha20Poly1305Encryptor) cacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.keys)
}

func (e *chaCha20Poly1305Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(e.writeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD cipher: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, 0, len(plaintext)+Overhead)
	result = append(result, e.salt...)
	result = append(result, nonce...)
	return aead.Seal(result, nonce, plaintext, nil), nil
}

func (e *chaCha20Poly1305Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := ciphertext[:saltSize]
	nonce := ciphertext[saltSize : saltSize+nonceSize]

	key, cached := e.cachedKey(salt)
	if !cached {
		var err error
		if key, err = e.derive(salt); err != nil {
			return nil, err
		}
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext[saltSize+nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	if !cached {
		e.remember(append([]byte(nil), salt...), key)
	}
	return plaintext, nil
}
