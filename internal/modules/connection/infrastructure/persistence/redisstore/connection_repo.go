package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// ConnectionRepository keeps the registry in Redis:
//
//	conn:<connectionId>   hash {userId, connectedAt}
//	user:<userId>:conns   set of connectionIds
type ConnectionRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
	// afterRead runs between the watched read and the write; tests only.
	afterRead func()
}

func NewConnectionRepository(client redis.UniversalClient, prefix string) *ConnectionRepository {
	return &ConnectionRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *ConnectionRepository) connKey(connectionID string) string {
	return r.prefix + "conn:" + connectionID
}

func (r *ConnectionRepository) userKey(userID string) string {
	return r.prefix + "user:" + userID + ":conns"
}

// maxTxAttempts bounds optimistic retries when a concurrent writer touches
// the same connection between the read and the write.
const maxTxAttempts = 5

// updateConnection runs fn with the connection's current owner while the
// connection hash is WATCHed, retrying when a concurrent writer wins.
func (r *ConnectionRepository) updateConnection(ctx context.Context, connectionID string, fn func(tx *redis.Tx, owner string, found bool) error) error {
	key := r.connKey(connectionID)
	for range maxTxAttempts {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			owner, err := tx.HGet(ctx, key, "userId").Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if r.afterRead != nil {
				r.afterRead()
			}
			return fn(tx, owner, err == nil)
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

func (r *ConnectionRepository) Register(ctx context.Context, connectionID, userID string) error {
	err := r.updateConnection(ctx, connectionID, func(tx *redis.Tx, previous string, _ bool) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != "" && previous != userID {
				pipe.SRem(ctx, r.userKey(previous), connectionID)
			}
			pipe.HSet(ctx, r.connKey(connectionID),
				"userId", userID,
				"connectedAt", r.now().UTC().Format(time.RFC3339),
			)
			if userID != "" {
				pipe.SAdd(ctx, r.userKey(userID), connectionID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("register connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *ConnectionRepository) Unregister(ctx context.Context, connectionID string) error {
	err := r.updateConnection(ctx, connectionID, func(tx *redis.Tx, owner string, found bool) error {
		if !found {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.connKey(connectionID))
			if owner != "" {
				pipe.SRem(ctx, r.userKey(owner), connectionID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("delete connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *ConnectionRepository) FindByUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list connections for %s: %w: %w", userID, errs.ErrStoreUnavailable, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *ConnectionRepository) UserOf(ctx context.Context, connectionID string) (string, error) {
	userID, err := r.client.HGet(ctx, r.connKey(connectionID), "userId").Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrConnectionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	return userID, nil
}
