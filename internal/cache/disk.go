package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Disk stores encoded analysis results in a local Badger database, for
// single-node deployments without Redis. A nil *Disk is valid and never hits.
type Disk struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenDisk opens (or creates) the cache directory dir.
func OpenDisk(dir string, ttl time.Duration) (*Disk, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return openDisk(opts, ttl)
}

func openDisk(opts badger.Options, ttl time.Duration) (*Disk, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Disk{db: db, ttl: ttl}, nil
}

// Get returns the cached value for key. Missing or expired keys are not
// errors.
func (d *Disk) Get(_ context.Context, key string) ([]byte, bool, error) {
	if d == nil {
		return nil, false, nil
	}
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(key)))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores val under key with the cache TTL.
func (d *Disk) Set(_ context.Context, key string, val []byte) error {
	if d == nil {
		return nil
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(Key(key)), val).WithTTL(d.ttl))
	})
}

// Close closes the database
func (d *Disk) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
