package bbolt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/UnAfraid/ipconfd/pkg/dbx"
)

// dbTx runs callback on the bucket of identifier nested in bucketName. In a
// writable transaction missing buckets are created, otherwise callback is
// skipped and the zero result returned.
func dbTx[T any](ctx context.Context, db *bbolt.DB, bucketName string, identifier string, writable bool, callback func(*bbolt.Bucket) (T, error)) (T, error) {
	return dbx.InBBoltTransactionScopeWithResult(ctx, db, writable, func(ctx context.Context, tx *bbolt.Tx) (result T, err error) {
		var bucket *bbolt.Bucket
		if writable {
			root, err := tx.CreateBucketIfNotExists([]byte(bucketName))
			if err != nil {
				return result, err
			}
			bucket, err = root.CreateBucketIfNotExists([]byte(identifier))
			if err != nil {
				return result, fmt.Errorf("failed to create bucket %q: %w", identifier, err)
			}
		} else {
			root := tx.Bucket([]byte(bucketName))
			if root == nil {
				return result, nil
			}
			bucket = root.Bucket([]byte(identifier))
			if bucket == nil {
				return result, nil
			}
		}
		return callback(bucket)
	})
}

func getJSON[T any](bucket *bbolt.Bucket, key string) (*T, error) {
	jsonState := bucket.Get([]byte(key))
	if jsonState == nil {
		return nil, nil
	}

	var value T
	if err := json.Unmarshal(jsonState, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return &value, nil
}

func putJSON(bucket *bbolt.Bucket, key string, value any) error {
	jsonState, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return bucket.Put([]byte(key), jsonState)
}
