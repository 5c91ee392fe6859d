package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/pkg/env"
)

const redisChunkPrefix = "chunk:"

// RedisStorage stores chunks as plain string values under
// "chunk:<hex address>".
type RedisStorage struct {
	client redis.UniversalClient
	codec  Codec
}

// NewRedisStorage connects to addr ("host:port[/db]", or a comma separated
// host list for a cluster). The password is taken from REDIS_PASSWORD when
// the address does not carry one.
func NewRedisStorage(ctx context.Context, addr string, codec Codec) (*RedisStorage, error) {
	opt, err := redis.ParseURL("redis://" + addr)
	if err != nil {
		return nil, fmt.Errorf("could not parse redis address: %w", err)
	}
	if opt.Password == "" {
		opt.Password = env.GetEnv("REDIS_PASSWORD", "")
	}

	host := strings.TrimPrefix(addr, "redis://")
	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    strings.Split(host, ","),
		DB:       opt.DB,
		Password: opt.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStorageWithClient(client, codec), nil
}

func NewRedisStorageWithClient(client redis.UniversalClient, codec Codec) *RedisStorage {
	if codec == nil {
		codec = identityCodec{}
	}
	return &RedisStorage{client: client, codec: codec}
}

func redisChunkKey(addr chunker.Address) string {
	return redisChunkPrefix + addr.String()
}

// Put relies on SETNX, so the first writer of an address wins.
func (s *RedisStorage) Put(ctx context.Context, addr chunker.Address, c chunker.Chunk) (bool, error) {
	val, err := encodeChunk(s.codec, c)
	if err != nil {
		return false, err
	}

	created, err := s.client.SetNX(ctx, redisChunkKey(addr), val, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store chunk: %w", err)
	}
	return created, nil
}

func (s *RedisStorage) Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error) {
	raw, err := s.client.Get(ctx, redisChunkKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chunker.Chunk{}, ErrNotFound
	}
	if err != nil {
		return chunker.Chunk{}, fmt.Errorf("failed to load chunk: %w", err)
	}
	return decodeChunk(s.codec, addr, raw)
}

func (s *RedisStorage) Has(ctx context.Context, addr chunker.Address) (bool, error) {
	n, err := s.client.Exists(ctx, redisChunkKey(addr)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStorage) Delete(ctx context.Context, addr chunker.Address) error {
	n, err := s.client.Del(ctx, redisChunkKey(addr)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStorage) List(ctx context.Context) ([]chunker.Address, error) {
	var addrs []chunker.Address
	seen := make(map[chunker.Address]struct{})

	iter := s.client.Scan(ctx, 0, redisChunkPrefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		addr, err := chunker.ParseAddress(strings.TrimPrefix(iter.Val(), redisChunkPrefix))
		if err != nil {
			continue
		}
		// SCAN may return a key more than once
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}

	sortAddresses(addrs)
	return addrs, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
