package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

const badgerChunkPrefix = "chunk:"

// BadgerStorage stores chunks in a BadgerDB under "chunk:<hex address>".
type BadgerStorage struct {
	db    *badger.DB
	codec Codec
}

// OpenBadgerStorage opens (or creates) a BadgerDB at dbPath. An empty dbPath
// opens an in-memory database.
func OpenBadgerStorage(dbPath string, codec Codec) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dbPath).WithLogger(nil)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	if codec == nil {
		codec = identityCodec{}
	}
	return &BadgerStorage{db: db, codec: codec}, nil
}

func badgerChunkKey(addr chunker.Address) []byte {
	return []byte(badgerChunkPrefix + addr.String())
}

func (s *BadgerStorage) Put(ctx context.Context, addr chunker.Address, c chunker.Chunk) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	val, err := encodeChunk(s.codec, c)
	if err != nil {
		return false, err
	}

	key := badgerChunkKey(addr)
	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		created = true
		return txn.Set(key, val)
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent writer committed the same address first
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to store chunk: %w", err)
	}
	return created, nil
}

func (s *BadgerStorage) Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return chunker.Chunk{}, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerChunkKey(addr))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chunker.Chunk{}, ErrNotFound
	}
	if err != nil {
		return chunker.Chunk{}, fmt.Errorf("failed to load chunk: %w", err)
	}
	return decodeChunk(s.codec, addr, raw)
}

func (s *BadgerStorage) Has(ctx context.Context, addr chunker.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerChunkKey(addr))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *BadgerStorage) Delete(ctx context.Context, addr chunker.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := badgerChunkKey(addr)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *BadgerStorage) List(ctx context.Context) ([]chunker.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(badgerChunkPrefix)
	var addrs []chunker.Address
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			addr, err := chunker.ParseAddress(string(key[len(prefix):]))
			if err != nil {
				return fmt.Errorf("bad key %q: %w", key, err)
			}
			addrs = append(addrs, addr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortAddresses(addrs)
	return addrs, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}
