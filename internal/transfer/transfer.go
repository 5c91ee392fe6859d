package transfer

import (
	"context"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/metadata"
)

// ChunkStore is the remote store as seen by callers. *Client implements it.
type ChunkStore interface {
	// Put uploads a chunk and returns the address it was stored under.
	Put(ctx context.Context, c chunker.Chunk) (chunker.Address, error)
	// Get downloads the chunk stored under addr and verifies it.
	Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error)
	Delete(ctx context.Context, addr chunker.Address) error
	List(ctx context.Context) ([]chunker.Address, error)
	Record(ctx context.Context, addr chunker.Address) (metadata.ChunkRecord, error)
	Records(ctx context.Context) ([]metadata.ChunkRecord, error)
	Ping(ctx context.Context) error
}

var _ ChunkStore = (*Client)(nil)
