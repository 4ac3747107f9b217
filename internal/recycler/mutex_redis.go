package recycler

import (
	"context"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisListMutex implements ListMutex on a shared Redis, so recycle runs are
// serialized per list across all API replicas.
type RedisListMutex struct {
	rdb *redis.Client
}

func NewRedisListMutex(rdb *redis.Client) *RedisListMutex {
	return &RedisListMutex{rdb: rdb}
}

func leaseKey(listID string) string {
	return "recycler:list:" + listID
}

func (m *RedisListMutex) TryLock(ctx context.Context, listID string, ttl time.Duration) (UnlockFunc, bool, error) {
	token := uuid.NewString()
	ok, err := utils.AcquireLease(ctx, m.rdb, leaseKey(listID), token, ttl)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func(ctx context.Context) error {
		return utils.ReleaseLease(ctx, m.rdb, leaseKey(listID), token)
	}
	return unlock, true, nil
}
