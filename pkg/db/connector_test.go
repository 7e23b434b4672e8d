// Redis DB Connetor tests in Saffron.

package db

import (
	"Saffron/pkg/log"
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Global context
var ctx context.Context = context.Background()

// redisTestOptions points at database 1 of the server in REDIS_ADDR, the test is skipped without one.
func redisTestOptions(t *testing.T) RedisOptions {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis backed test")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	retries, _ := strconv.Atoi(os.Getenv("REDIS_TX_MAX_RETRIES"))
	return RedisOptions{Addr: addr, Port: port, Password: os.Getenv("REDIS_PASSWORD"), DB: 1, TxMaxRetries: retries}
}

func TestNewDbConnectionRequiresAddress(t *testing.T) {
	_, err := NewDbConnection(ctx, RedisOptions{}, log.Nop())
	assert.Error(t, err)
}

func TestDbConnectionLifeCycle(t *testing.T) {
	logger := log.Nop()
	client, dberr := NewDbConnection(ctx, redisTestOptions(t), logger)
	require.NoError(t, dberr)
	// Check if connection is successful
	assert.NoError(t, client.CheckDbConnection(ctx, logger))
	client.CleanTestDbData(ctx, logger)
	// Close connection
	assert.NoError(t, client.CloseDbConnection(ctx))
	// Check if connection is still active
	assert.Error(t, client.CheckDbConnection(ctx, logger))
}
