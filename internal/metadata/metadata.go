package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

const recordPrefix = "record:"

var ErrRecordNotFound = errors.New("no record for chunk")

// ChunkRecord describes the write history of one address.
type ChunkRecord struct {
	Address     chunker.Address `json:"address"`
	Size        int             `json:"size"`
	CreatedAt   time.Time       `json:"created_at"`
	LastWriteAt time.Time       `json:"last_write_at"`
	Writes      int64           `json:"writes"`
}

// RecordStore wraps BadgerDB for chunk record operations.
type RecordStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenRecordStore opens (or creates) a BadgerDB at the given path. An empty
// path keeps the index in memory.
func OpenRecordStore(dbPath string) (*RecordStore, error) {
	opts := badger.DefaultOptions(dbPath).WithLogger(nil)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &RecordStore{db: db, now: time.Now}, nil
}

// Close closes the BadgerDB.
func (rs *RecordStore) Close() error {
	return rs.db.Close()
}

func recordKey(addr chunker.Address) []byte {
	return []byte(recordPrefix + addr.String())
}

// Touch registers one accepted write of addr and returns the updated record.
func (rs *RecordStore) Touch(addr chunker.Address, size int) (ChunkRecord, error) {
	var rec ChunkRecord
	err := rs.updateWithRetry(func(txn *badger.Txn) error {
		now := rs.now().UTC()
		rec = ChunkRecord{Address: addr, Size: size, CreatedAt: now}

		item, err := txn.Get(recordKey(addr))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		rec.Writes++
		rec.LastWriteAt = now

		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(addr), val)
	})
	return rec, err
}

// updateWithRetry reruns fn when a concurrent Touch of the same key wins the
// commit race.
func (rs *RecordStore) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = rs.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Get retrieves the record for addr.
func (rs *RecordStore) Get(addr chunker.Address) (ChunkRecord, error) {
	var rec ChunkRecord
	err := rs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(addr))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrRecordNotFound
	}
	return rec, err
}

// Delete drops the record for addr. Unknown addresses are not an error.
func (rs *RecordStore) Delete(addr chunker.Address) error {
	return rs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(addr))
	})
}

// List returns every record in key order.
func (rs *RecordStore) List() ([]ChunkRecord, error) {
	prefix := []byte(recordPrefix)
	var records []ChunkRecord
	err := rs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec ChunkRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}
