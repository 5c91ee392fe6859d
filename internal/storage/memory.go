package storage

import (
	"context"
	"sync"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

// MemoryStorage keeps chunks in a map. Contents are lost on exit.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[chunker.Address]chunker.Chunk
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[chunker.Address]chunker.Chunk)}
}

func (m *MemoryStorage) Put(ctx context.Context, addr chunker.Address, c chunker.Chunk) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[addr]; ok {
		return false, nil
	}
	m.data[addr] = c
	return true, nil
}

func (m *MemoryStorage) Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return chunker.Chunk{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.data[addr]
	if !ok {
		return chunker.Chunk{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStorage) Has(ctx context.Context, addr chunker.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[addr]
	return ok, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, addr chunker.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[addr]; !ok {
		return ErrNotFound
	}
	delete(m.data, addr)
	return nil
}

func (m *MemoryStorage) List(ctx context.Context) ([]chunker.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	addrs := make([]chunker.Address, 0, len(m.data))
	for addr := range m.data {
		addrs = append(addrs, addr)
	}
	m.mu.RUnlock()

	sortAddresses(addrs)
	return addrs, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
