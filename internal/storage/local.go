package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

// linkFile is swapped in tests to simulate filesystems without hard links.
var linkFile = os.Link

// LocalStorage implements Storage on the local filesystem. Each chunk is one
// file named by the hex form of its address.
type LocalStorage struct {
	basePath string
	codec    Codec
}

// NewLocalStorage creates basePath if needed. A nil codec stores raw bytes.
func NewLocalStorage(basePath string, codec Codec) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if codec == nil {
		codec = identityCodec{}
	}
	return &LocalStorage{basePath: basePath, codec: codec}, nil
}

// Path returns the file path used for addr.
func (s *LocalStorage) Path(addr chunker.Address) string {
	return filepath.Join(s.basePath, addr.String())
}

// Put writes a temporary file and hard-links it into place, so readers never
// observe a partially written chunk and only one of several racing writers
// reports created. Filesystems without hard links fall back to a rename.
func (s *LocalStorage) Put(ctx context.Context, addr chunker.Address, c chunker.Chunk) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	filePath := s.Path(addr)
	if _, err := os.Stat(filePath); err == nil {
		return false, nil
	}

	data, err := encodeChunk(s.codec, c)
	if err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(s.basePath, ".incoming-*")
	if err != nil {
		return false, fmt.Errorf("failed to create chunk file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write chunk to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to write chunk to file: %w", err)
	}
	if err := linkFile(tmp.Name(), filePath); err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			return false, nil
		case errors.Is(err, errors.ErrUnsupported), errors.Is(err, os.ErrPermission):
			if _, err := os.Stat(filePath); err == nil {
				return false, nil
			}
			if err := os.Rename(tmp.Name(), filePath); err != nil {
				return false, fmt.Errorf("failed to commit chunk file: %w", err)
			}
		default:
			return false, fmt.Errorf("failed to commit chunk file: %w", err)
		}
	}
	return true, nil
}

func (s *LocalStorage) Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return chunker.Chunk{}, err
	}

	raw, err := os.ReadFile(s.Path(addr))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return chunker.Chunk{}, ErrNotFound
		}
		return chunker.Chunk{}, fmt.Errorf("failed to open chunk file: %w", err)
	}
	return decodeChunk(s.codec, addr, raw)
}

func (s *LocalStorage) Has(ctx context.Context, addr chunker.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.Path(addr))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat chunk file: %w", err)
	}
}

func (s *LocalStorage) Delete(ctx context.Context, addr chunker.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.Path(addr)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove chunk file: %w", err)
	}
	return nil
}

// List skips anything in the directory that is not named like an address.
func (s *LocalStorage) List(ctx context.Context) ([]chunker.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	addrs := make([]chunker.Address, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		addr, err := chunker.ParseAddress(entry.Name())
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}

	sortAddresses(addrs)
	return addrs, nil
}

func (s *LocalStorage) Close() error {
	return nil
}
