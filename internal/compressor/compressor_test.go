package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	data := append([]byte("hello"), make([]byte, 59)...)

	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.NotEqual(t, data, compressed)

	out, err := Decompress(compressed, 64)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecompressLimit(t *testing.T) {
	compressed, err := Compress(bytes.Repeat([]byte{'a'}, 1000))
	require.NoError(t, err)

	_, err = Decompress(compressed, 64)
	assert.Error(t, err)
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress([]byte("definitely not an lz4 frame"), 64)
	assert.Error(t, err)
}
