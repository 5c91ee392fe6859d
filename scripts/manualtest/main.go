package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jaywantadh/chunkstore/config"
	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/transfer"
	"github.com/jaywantadh/chunkstore/pkg/env"
	"github.com/jaywantadh/chunkstore/pkg/logging"
)

// samples cover the empty chunk, a short payload, an exact fit and one
// that gets truncated.
var samples = []string{
	"",
	"hello",
	"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
	"this sentence is long enough that the tail beyond sixty-four bytes is dropped",
}

func main() {
	configDir := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	env.LoadEnv()
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Printf("❌ Config load failed: %v\n", err)
		os.Exit(1)
	}
	log := logging.InitLogger(cfg.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := transfer.NewClient(cfg.ServerURL, transfer.WithTimeout(cfg.RequestTimeout), transfer.WithLogger(log))
	if err := client.Ping(ctx); err != nil {
		fmt.Printf("❌ Store at %s unreachable: %v\n", cfg.ServerURL, err)
		os.Exit(1)
	}
	fmt.Printf("📡 Store: %s\n", client.BaseURL())

	failed := 0
	for _, s := range samples {
		want := chunker.Encode([]byte(s))

		addr, err := client.Put(ctx, want)
		if err != nil {
			fmt.Printf("❌ Put %q failed: %v\n", s, err)
			failed++
			continue
		}
		fmt.Printf("🧩 Stored %s\n", addr.Short())

		got, err := client.Get(ctx, addr)
		if err != nil {
			fmt.Printf("❌ Get %s failed: %v\n", addr.Short(), err)
			failed++
			continue
		}
		if got != want {
			fmt.Printf("❌ MISMATCH: %s returned different bytes\n", addr.Short())
			failed++
		}
	}

	missing := chunker.AddressOf(chunker.Encode([]byte(fmt.Sprintf("absent-%d", time.Now().UnixNano()))))
	if _, err := client.Get(ctx, missing); !transfer.IsNotFound(err) {
		fmt.Printf("❌ Expected 404 for unknown address, got %v\n", err)
		failed++
	}

	if failed > 0 {
		fmt.Printf("❌ %d check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("✅ SUCCESS: every chunk round-tripped")
}
