package bbolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

const (
	keyFileBucket = "keyfile"
)

// keyFileRepository keeps one nested bucket per identifier with JSON encoded
// values.
type keyFileRepository struct {
	db *bbolt.DB
}

func NewKeyFileRepository(db *bbolt.DB) ipconfig.Store {
	return &keyFileRepository{
		db: db,
	}
}

func (r *keyFileRepository) GetString(ctx context.Context, identifier string, key string) (*string, error) {
	return dbTx(ctx, r.db, keyFileBucket, identifier, false, func(bucket *bbolt.Bucket) (*string, error) {
		return getJSON[string](bucket, key)
	})
}

func (r *keyFileRepository) GetInt(ctx context.Context, identifier string, key string) (*int, error) {
	return dbTx(ctx, r.db, keyFileBucket, identifier, false, func(bucket *bbolt.Bucket) (*int, error) {
		return getJSON[int](bucket, key)
	})
}

func (r *keyFileRepository) GetStringList(ctx context.Context, identifier string, key string) ([]string, error) {
	return dbTx(ctx, r.db, keyFileBucket, identifier, false, func(bucket *bbolt.Bucket) ([]string, error) {
		value, err := getJSON[[]string](bucket, key)
		if err != nil || value == nil {
			return nil, err
		}
		return *value, nil
	})
}

func (r *keyFileRepository) SetString(ctx context.Context, identifier string, key string, value string) error {
	return r.put(ctx, identifier, key, value)
}

func (r *keyFileRepository) SetInt(ctx context.Context, identifier string, key string, value int) error {
	return r.put(ctx, identifier, key, value)
}

func (r *keyFileRepository) SetStringList(ctx context.Context, identifier string, key string, value []string) error {
	if value == nil {
		value = []string{}
	}
	return r.put(ctx, identifier, key, value)
}

func (r *keyFileRepository) RemoveKey(ctx context.Context, identifier string, key string) error {
	_, err := dbTx(ctx, r.db, keyFileBucket, identifier, true, func(bucket *bbolt.Bucket) (struct{}, error) {
		return struct{}{}, bucket.Delete([]byte(key))
	})
	return err
}

func (r *keyFileRepository) put(ctx context.Context, identifier string, key string, value any) error {
	_, err := dbTx(ctx, r.db, keyFileBucket, identifier, true, func(bucket *bbolt.Bucket) (struct{}, error) {
		return struct{}{}, putJSON(bucket, key, value)
	})
	return err
}
