// Auth repository encapsulates the data access logic (interactions with the DB) related to Authentication in Saffron.

package auth

import (
	"Saffron/internal/errors"
	"Saffron/pkg/db"
	"Saffron/pkg/log"
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// RevokeToken blacklists the token identified by jti until it would have expired anyway.
	RevokeToken(ctx context.Context, logger log.Logger, jti string, ttl time.Duration) error
	// IsRevoked reports whether the token identified by jti was revoked.
	IsRevoked(ctx context.Context, logger log.Logger, jti string) (bool, error)
}

// repository struct of redis backed auth Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of redis backed auth repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}

// Returns nil if the token got successfully revoked.
func (r repository) RevokeToken(ctx context.Context, logger log.Logger, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to revoke
		return nil
	}
	if dberr := r.db.Client().Set(ctx, revokedKey(jti), 1, ttl).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Set in auth.RevokeToken")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) IsRevoked(ctx context.Context, logger log.Logger, jti string) (bool, error) {
	dberr := r.db.Client().Get(ctx, revokedKey(jti)).Err()
	if dberr == redis.Nil {
		return false, nil
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Get in auth.IsRevoked")
		return false, errors.InternalServerError("")
	}
	return true, nil
}

// memoryRepository keeps revoked token ids in process, used when no Redis server is configured.
type memoryRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// Returns an in-memory auth repository, revocations are lost on restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{revoked: map[string]time.Time{}, now: time.Now}
}

func (r *memoryRepository) RevokeToken(ctx context.Context, logger log.Logger, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	// Drop entries which expired on their own
	for id, until := range r.revoked {
		if !until.After(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[jti] = now.Add(ttl)
	return nil
}

func (r *memoryRepository) IsRevoked(ctx context.Context, logger log.Logger, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.revoked[jti]
	return ok && until.After(r.now()), nil
}
