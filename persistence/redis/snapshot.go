package redis

import (
	"context"
	"errors"
	"time"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/persistence"
)

var _ persistence.SnapshotStore = new(redisSnapshotStore)

type redisSnapshotStore struct {
	baseDao
}

func NewRedisSnapshotStore(conf Config) *redisSnapshotStore {
	return &redisSnapshotStore{
		baseDao: *newBaseDao(conf),
	}
}

func (rs *redisSnapshotStore) Ping(ctx context.Context) error {
	return rs.redisClient.Ping(ctx).Err()
}

func (rs *redisSnapshotStore) Save(ctx context.Context, key string, snap *persistence.Snapshot, ttl time.Duration) error {
	data, err := persistence.EncodeSnapshot(snap)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if ttl < 0 {
		ttl = 0
	}
	nsKey := rs.getNamespaceKey(persistence.SNAPSHOT_PREFIX, key)
	if err := rs.redisClient.Set(ctx, nsKey, data, ttl).Err(); err != nil {
		logger.Error("error in saving snapshot", zap.String("key", nsKey), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisSnapshotStore) Get(ctx context.Context, key string) (*persistence.Snapshot, error) {
	nsKey := rs.getNamespaceKey(persistence.SNAPSHOT_PREFIX, key)
	data, err := rs.redisClient.Get(ctx, nsKey).Bytes()
	if errors.Is(err, rd.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Error("error in getting snapshot", zap.String("key", nsKey), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	snap, err := persistence.DecodeSnapshot(data)
	if err != nil {
		logger.Warn("dropping unreadable snapshot", zap.String("key", nsKey), zap.Error(err))
		return nil, nil
	}
	return snap, nil
}

func (rs *redisSnapshotStore) Delete(ctx context.Context, key string) error {
	nsKey := rs.getNamespaceKey(persistence.SNAPSHOT_PREFIX, key)
	if err := rs.redisClient.Del(ctx, nsKey).Err(); err != nil {
		logger.Error("error in deleting snapshot", zap.String("key", nsKey), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
