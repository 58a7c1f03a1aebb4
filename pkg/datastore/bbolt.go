package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var ErrReadOnly = errors.New("database is readonly")

func NewBBoltDB(databasePath string, timeout time.Duration) (*bbolt.DB, error) {
	dir := filepath.Dir(databasePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s - %w", dir, err)
	}

	db, err := bbolt.Open(databasePath, 0600, &bbolt.Options{
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", databasePath, err)
	}

	if db.IsReadOnly() {
		if err := db.Close(); err != nil {
			return nil, errors.Join(ErrReadOnly, err)
		}
		return nil, ErrReadOnly
	}

	return db, nil
}
