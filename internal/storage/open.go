package storage

import (
	"context"
	"fmt"

	"github.com/jaywantadh/chunkstore/config"
)

// Open builds the backend selected by cfg.Backend with the at-rest codec
// described by cfg.Compress and cfg.EncryptionKey.
func Open(ctx context.Context, cfg *config.AppConfig) (Storage, error) {
	codec, err := NewCodec(cfg.Compress, cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	case config.BackendLocal:
		return NewLocalStorage(cfg.StoragePath, codec)
	case config.BackendBadger:
		return OpenBadgerStorage(cfg.StoragePath, codec)
	case config.BackendRedis:
		return NewRedisStorage(ctx, cfg.RedisAddr, codec)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
