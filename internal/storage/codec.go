package storage

import (
	"fmt"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/compressor"
	"github.com/jaywantadh/chunkstore/internal/encryptor"
)

// Codec transforms chunk bytes on their way to and from a persistent backend.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

type identityCodec struct{}

func (identityCodec) Encode(data []byte) ([]byte, error) { return data, nil }
func (identityCodec) Decode(data []byte) ([]byte, error) { return data, nil }

type lz4Codec struct{}

func (lz4Codec) Encode(data []byte) ([]byte, error) {
	return compressor.Compress(data)
}

func (lz4Codec) Decode(data []byte) ([]byte, error) {
	return compressor.Decompress(data, chunker.ChunkSize)
}

type sealCodec struct {
	enc encryptor.Encryptor
}

func (s sealCodec) Encode(data []byte) ([]byte, error) { return s.enc.Encrypt(data) }
func (s sealCodec) Decode(data []byte) ([]byte, error) { return s.enc.Decrypt(data) }

// chainCodec encodes left to right and decodes right to left.
type chainCodec []Codec

func (c chainCodec) Encode(data []byte) ([]byte, error) {
	var err error
	for _, codec := range c {
		if data, err = codec.Encode(data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (c chainCodec) Decode(data []byte) ([]byte, error) {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		if data, err = c[i].Decode(data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// NewCodec builds the at-rest codec: optional lz4 compression followed by
// optional encryption under passphrase.
func NewCodec(compress bool, passphrase string) (Codec, error) {
	var chain chainCodec
	if compress {
		chain = append(chain, lz4Codec{})
	}
	if passphrase != "" {
		enc, err := encryptor.NewEncryptor(passphrase)
		if err != nil {
			return nil, err
		}
		chain = append(chain, sealCodec{enc: enc})
	}

	switch len(chain) {
	case 0:
		return identityCodec{}, nil
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}

func encodeChunk(codec Codec, c chunker.Chunk) ([]byte, error) {
	data, err := codec.Encode(c.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk: %w", err)
	}
	return data, nil
}

// decodeChunk reverses encodeChunk and checks the result against addr.
func decodeChunk(codec Codec, addr chunker.Address, raw []byte) (chunker.Chunk, error) {
	data, err := codec.Decode(raw)
	if err != nil {
		return chunker.Chunk{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, addr.Short(), err)
	}

	c, err := chunker.FromBytes(data)
	if err != nil {
		return chunker.Chunk{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, addr.Short(), err)
	}

	if !chunker.Verify(addr, c) {
		return chunker.Chunk{}, fmt.Errorf("%w: %s: content hash mismatch", ErrCorrupt, addr.Short())
	}
	return c, nil
}
