package encryptor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewEncryptor("correct horse")
	require.NoError(t, err)

	plain := []byte("sixty-four bytes or so of chunk data")
	sealed, err := enc.Encrypt(plain)
	require.NoError(t, err)
	assert.Len(t, sealed, len(plain)+Overhead)
	assert.NotContains(t, string(sealed), string(plain))

	opened, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)

	// fresh nonce per call
	again, err := enc.Encrypt(plain)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestDecryptAcrossInstances(t *testing.T) {
	writer, err := NewEncryptor("shared secret")
	require.NoError(t, err)
	reader, err := NewEncryptor("shared secret")
	require.NoError(t, err)

	sealed, err := writer.Encrypt([]byte("payload"))
	require.NoError(t, err)

	opened, err := reader.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), opened)
}

func TestDecryptFailures(t *testing.T) {
	enc, err := NewEncryptor("one")
	require.NoError(t, err)
	other, err := NewEncryptor("two")
	require.NoError(t, err)

	sealed, err := enc.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.Error(t, err, "wrong passphrase")

	sealed[len(sealed)-1] ^= 0xff
	_, err = enc.Decrypt(sealed)
	assert.Error(t, err, "tampered ciphertext")

	_, err = enc.Decrypt([]byte("short"))
	assert.Error(t, err)
}

func TestEmptyPassphrase(t *testing.T) {
	_, err := NewEncryptor("")
	assert.True(t, errors.Is(err, ErrEmptyPassphrase))
}

func TestKeyCacheOnlyKeepsSaltsThatOpen(t *testing.T) {
	enc, err := NewEncryptor("cache")
	require.NoError(t, err)
	impl := enc.(*chaCha20Poly1305Encryptor)

	// own salt never enters the map
	sealed, err := enc.Encrypt([]byte("payload"))
	require.NoError(t, err)
	_, err = enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, 0, impl.cacheSize())

	// a forged salt fails authentication and is not cached
	forged := append([]byte(nil), sealed...)
	forged[0] ^= 0xff
	_, err = enc.Decrypt(forged)
	assert.Error(t, err)
	assert.Equal(t, 0, impl.cacheSize())

	// another writer's salt is cached once it opens
	other, err := NewEncryptor("cache")
	require.NoError(t, err)
	foreign, err := other.Encrypt([]byte("payload"))
	require.NoError(t, err)
	_, err = enc.Decrypt(foreign)
	require.NoError(t, err)
	assert.Equal(t, 1, impl.cacheSize())
}

func TestKeyCacheIsBounded(t *testing.T) {
	enc, err := NewEncryptor("bounded")
	require.NoError(t, err)
	impl := enc.(*chaCha20Poly1305Encryptor)

	for i := 0; i < maxCachedKeys+5; i++ {
		impl.remember([]byte{byte(i), byte(i >> 8)}, []byte("key"))
	}
	assert.Equal(t, maxCachedKeys, impl.cacheSize())
}
