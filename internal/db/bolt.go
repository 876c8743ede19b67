package db

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// BoltKV is a file-backed key-value store for a single local client
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path
func OpenBolt(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get returns the value stored under key
func (b *BoltKV) Get(_ context.Context, key string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionBucket).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction
			val, ok = string(v), true
		}
		return nil
	})
	return val, ok, err
}

// Set stores value under key
func (b *BoltKV) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key
func (b *BoltKV) Remove(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
}

// Close releases the file lock
func (b *BoltKV) Close() error {
	return b.db.Close()
}
