package metadata

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

func TestRecordStoreCRUD(t *testing.T) {
	store, err := OpenRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open record store: %v", err)
	}
	defer store.Close()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	addr := chunker.AddressOf(chunker.Encode([]byte("hello")))

	rec, err := store.Touch(addr, chunker.ChunkSize)
	if err != nil {
		t.Fatalf("failed to touch record: %v", err)
	}
	if rec.Writes != 1 || !rec.CreatedAt.Equal(clock) || rec.Size != chunker.ChunkSize {
		t.Errorf("unexpected first record: %+v", rec)
	}

	clock = clock.Add(time.Minute)
	if _, err := store.Touch(addr, chunker.ChunkSize); err != nil {
		t.Fatalf("failed to touch record: %v", err)
	}

	got, err := store.Get(addr)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.Address != addr || got.Writes != 2 {
		t.Errorf("retrieved record does not match: %+v", got)
	}
	if !got.CreatedAt.Equal(clock.Add(-time.Minute)) || !got.LastWriteAt.Equal(clock) {
		t.Errorf("timestamps not preserved: %+v", got)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}

	if err := store.Delete(addr); err != nil {
		t.Fatalf("failed to delete record: %v", err)
	}
	if _, err := store.Get(addr); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordStoreConcurrentTouch(t *testing.T) {
	store, err := OpenRecordStore("")
	if err != nil {
		t.Fatalf("failed to open record store: %v", err)
	}
	defer store.Close()

	addr := chunker.AddressOf(chunker.Encode([]byte("busy")))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Touch(addr, chunker.ChunkSize); err != nil {
				t.Errorf("touch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := store.Get(addr)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if rec.Writes != 4 {
		t.Errorf("expected 4 writes, got %d", rec.Writes)
	}
}
