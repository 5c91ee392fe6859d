package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/chunkstore/config"
	"github.com/jaywantadh/chunkstore/internal/metadata"
	"github.com/jaywantadh/chunkstore/internal/storage"
	"github.com/jaywantadh/chunkstore/internal/transfer"
	"github.com/jaywantadh/chunkstore/pkg/httpserver"
	"github.com/jaywantadh/chunkstore/pkg/logging"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the chunk store server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Listen port"},
			&cli.StringFlag{Name: "backend", Usage: "Storage backend: memory, local, badger or redis"},
			&cli.StringFlag{Name: "storage-path", Usage: "Chunk directory (local) or database path (badger)"},
			&cli.StringFlag{Name: "metadata-path", Usage: "Record index path, empty to disable"},
		},
		Action: func(c *cli.Context) error {
			cfg := appConfig(c)
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.IsSet("backend") {
				cfg.Backend = c.String("backend")
			}
			if c.IsSet("storage-path") {
				cfg.StoragePath = c.String("storage-path")
			}
			if c.IsSet("metadata-path") {
				cfg.MetadataPath = c.String("metadata-path")
			}
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, logging.Log)
		},
	}
}

// newHandler wires the storage backend and the optional record index into
// the HTTP handler. The returned cleanup closes both.
func newHandler(ctx context.Context, cfg *config.AppConfig, log logrus.FieldLogger) (http.Handler, func(), error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}

	opts := []transfer.ServerOption{
		transfer.WithNodeID(cfg.NodeID),
		transfer.WithMiddleware(httpserver.RequestLogger(log)),
	}
	var records *metadata.RecordStore
	if cfg.MetadataPath != "" {
		records, err = metadata.OpenRecordStore(cfg.MetadataPath)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		opts = append(opts, transfer.WithRecords(records))
	}

	cleanup := func() {
		if records != nil {
			if err := records.Close(); err != nil {
				log.WithError(err).Warn("failed to close record index")
			}
		}
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close storage")
		}
	}

	return transfer.NewServer(store, log, opts...).Routes(), cleanup, nil
}

func runServer(ctx context.Context, cfg *config.AppConfig, log logrus.FieldLogger) error {
	handler, cleanup, err := newHandler(ctx, cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	defer cleanup()

	log.WithFields(logrus.Fields{
		"node_id":  cfg.NodeID,
		"backend":  cfg.Backend,
		"port":     cfg.Port,
		"compress": cfg.Compress,
		"sealed":   cfg.EncryptionKey != "",
	}).Info("chunk store starting")

	return httpserver.ListenAndServe(ctx, httpserver.New(cfg.Port, handler), log)
}
