// Initialization of Redis client to be used internally in Saffron.

package db

import (
	"Saffron/pkg/log"
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisDB represents a redis client connection to be used internally in Saffron.
type RedisDB struct {
	client       *redis.Client
	txMaxRetries int
}

// RedisOptions are the connection settings read from REDIS_* environment variables.
type RedisOptions struct {
	Addr         string
	Port         string
	Password     string
	DB           int
	TxMaxRetries int
}

// Client returns the redis client wrapped by RedisDB.
func (db *RedisDB) Client() *redis.Client {
	return db.client
}

// GetMaxRetries returns the number of allowed retries in a watched redis transaction
func (db *RedisDB) GetMaxRetries() int {
	return db.txMaxRetries
}

// Returns a new Redis DB connection wrapped up by RedisDB struct.
func NewDbConnection(ctx context.Context, opts RedisOptions, logger log.Logger) (*RedisDB, error) {
	if opts.Addr == "" || opts.Port == "" {
		return nil, errors.New("improper Environment variables: REDIS_ADDR and REDIS_PORT are required")
	}
	if opts.TxMaxRetries <= 0 {
		opts.TxMaxRetries = 1
	}
	// Initializing a connection to Redis-server
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr + ":" + opts.Port,
		Password: opts.Password,
		DB:       opts.DB,
	})
	logger.WithCtx(ctx).Debug().Str("addr", opts.Addr+":"+opts.Port).Int("db", opts.DB).Msg("Redis client initialized")
	return &RedisDB{client: client, txMaxRetries: opts.TxMaxRetries}, nil
}

// Helper to check connection status of redis client to redis-server.
// Equivalent to a PING request on redis-server, returns PONG on success.
func (db *RedisDB) CheckDbConnection(ctx context.Context, logger log.Logger) error {
	logger.WithCtx(ctx).Info().Msg("Checking DB Connection . . .")
	// Pinging the Redis-server to check connection status
	if cnterr := db.Client().Ping(ctx).Err(); cnterr != nil {
		// Most likely, DB connection failure
		logger.WithCtx(ctx).Error().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
		return fmt.Errorf("redis ping: %w", cnterr)
	}
	// Connection successful
	logger.WithCtx(ctx).Info().Msg("Connection to DB Successful")
	return nil
}

// Helper to clean up test db after finishing Saffron tests.
// Only ever flushes database number 1, which is reserved for tests.
func (db *RedisDB) CleanTestDbData(ctx context.Context, logger log.Logger) {
	if db.Client().Options().DB == 1 {
		dberr := db.Client().FlushDB(ctx).Err()
		if dberr != nil {
			// Error during flushing test db
			logger.Error().Err(dberr).Msg("Error occured during the execution of FlushDB() in db.CleanTestDbData")
		}
	}
}

// Helper to close the RedisDB client, should be called before closing the server.
func (db *RedisDB) CloseDbConnection(ctx context.Context) error {
	return db.Client().Close()
}
