package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps every collection as a JSON string under collection:<name>.
type RedisStore struct {
	db *RedisDB
}

func NewRedisStore(client *RedisDB) *RedisStore {
	return &RedisStore{db: client}
}

func collectionKey(name string) string {
	return "collection:" + name
}

func (s *RedisStore) ReadCollection(ctx context.Context, name string, out any) error {
	body, dberr := s.db.Client().Get(ctx, collectionKey(name)).Bytes()
	if dberr == redis.Nil {
		return nil
	} else if dberr != nil {
		return fmt.Errorf("redis store: get %s: %w", name, dberr)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("redis store: decode %s: %w", name, err)
	}
	return nil
}

// WriteCollection sets the key inside a watched transaction, retrying on lost optimistic locks.
func (s *RedisStore) WriteCollection(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis store: encode %s: %w", name, err)
	}
	key := collectionKey(name)
	txf := func(tx *redis.Tx) error {
		// Operation is commited only if the watched keys remain unchanged
		_, dberr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			return nil
		})
		return dberr
	}
	for i := 0; i < s.db.GetMaxRetries(); i++ {
		dberr := s.db.Client().Watch(ctx, txf, key)
		if dberr == nil {
			return nil
		} else if dberr == redis.TxFailedErr {
			// Optimistic lock lost. Retry.
			continue
		}
		return fmt.Errorf("redis store: set %s: %w", name, dberr)
	}
	return errors.New("redis store: write reached maximum number of retries")
}

func (s *RedisStore) Close() error {
	return s.db.CloseDbConnection(context.Background())
}
