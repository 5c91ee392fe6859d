package chunker

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
)

// ChunkSize is the fixed length of every stored chunk.
const ChunkSize = 64

var (
	ErrChunkSize      = errors.New("chunk must be exactly 64 bytes")
	ErrInvalidAddress = errors.New("invalid chunk address")
)

// Chunk is an immutable, fixed-size unit of stored data.
type Chunk [ChunkSize]byte

// Address is the SHA-512 digest of a chunk. Its text form is lowercase hex.
type Address [sha512.Size]byte

// Encode converts arbitrary input into exactly one chunk. Shorter input is
// right-padded with zero bytes, longer input is truncated to ChunkSize.
func Encode(input []byte) Chunk {
	var c Chunk
	copy(c[:], input)
	return c
}

// FromBytes converts wire or disk bytes into a chunk without padding.
func FromBytes(data []byte) (Chunk, error) {
	var c Chunk
	if len(data) != ChunkSize {
		return c, fmt.Errorf("%w: got %d bytes", ErrChunkSize, len(data))
	}
	copy(c[:], data)
	return c, nil
}

// Bytes returns a copy of the chunk contents.
func (c Chunk) Bytes() []byte {
	out := make([]byte, ChunkSize)
	copy(out, c[:])
	return out
}

// Payload returns the chunk contents with trailing zero padding removed.
func (c Chunk) Payload() []byte {
	return bytes.TrimRight(c.Bytes(), "\x00")
}

// AddressOf computes the content address of a chunk.
func AddressOf(c Chunk) Address {
	return Address(sha512.Sum512(c[:]))
}

// Verify reports whether c hashes to addr.
func Verify(addr Address, c Chunk) bool {
	return AddressOf(c) == addr
}

// ParseAddress parses the 128 character lowercase hex form of an address.
func ParseAddress(raw string) (Address, error) {
	var a Address
	if len(raw) != hex.EncodedLen(sha512.Size) {
		return a, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidAddress, hex.EncodedLen(sha512.Size), len(raw))
	}
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f') {
			return a, fmt.Errorf("%w: unexpected character %q at %d", ErrInvalidAddress, ch, i)
		}
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first four bytes of the address in hex, for logs.
func (a Address) Short() string {
	return hex.EncodeToString(a[:4])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(raw []byte) error {
	parsed, err := ParseAddress(string(raw))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
