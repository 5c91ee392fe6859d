package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

var (
	ErrNotFound = errors.New("no such chunk")
	ErrCorrupt  = errors.New("stored chunk is corrupt")
)

// Storage is a map from content address to chunk. Implementations are safe
// for concurrent use.
type Storage interface {
	// Put stores a chunk under addr. created is false when the address was
	// already present; the stored bytes are left untouched in that case.
	Put(ctx context.Context, addr chunker.Address, c chunker.Chunk) (created bool, err error)
	// Get returns ErrNotFound for unknown addresses and ErrCorrupt when the
	// stored bytes no longer hash to addr.
	Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error)
	Has(ctx context.Context, addr chunker.Address) (bool, error)
	// Delete returns ErrNotFound for unknown addresses.
	Delete(ctx context.Context, addr chunker.Address) error
	// List returns every stored address in ascending byte order.
	List(ctx context.Context) ([]chunker.Address, error)
	Close() error
}

func sortAddresses(addrs []chunker.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
}
