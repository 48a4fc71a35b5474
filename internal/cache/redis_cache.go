package cache

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	redis "github.com/redis/go-redis/v9"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

// RedisStore keeps a copy of the store and the drafts in Redis. It is used
// as a secondary persistence target behind the durable store.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(addr string, password string, db int, keyPrefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (c *RedisStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStore) Close() error {
	return c.client.Close()
}

func (c *RedisStore) LoadStore(ctx context.Context) (domain.Snapshot, error) {
	val, err := c.client.Get(ctx, keyFor(c.keyPrefix, storeKeySuffix)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{Products: []domain.Product{}, Sales: []domain.Sale{}}, nil
	}
	if err != nil {
		return domain.Snapshot{}, errors.Mark(errors.Wrap(err, "redis get store"), store.ErrPersistence)
	}
	return decodeSnapshot(val)
}

func (c *RedisStore) SaveStore(ctx context.Context, snapshot domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "encode store"), store.ErrPersistence)
	}
	if err := c.client.Set(ctx, keyFor(c.keyPrefix, storeKeySuffix), payload, 0).Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "redis set store"), store.ErrPersistence)
	}
	return nil
}

func (c *RedisStore) LoadDrafts(ctx context.Context) ([]domain.PendingSale, error) {
	val, err := c.client.Get(ctx, keyFor(c.keyPrefix, draftsKeySuffix)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.PendingSale{}, nil
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "redis get drafts"), store.ErrPersistence)
	}
	return decodeDrafts(val)
}

func (c *RedisStore) SaveDrafts(ctx context.Context, drafts []domain.PendingSale) error {
	if drafts == nil {
		drafts = []domain.PendingSale{}
	}
	payload, err := json.Marshal(drafts)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "encode drafts"), store.ErrPersistence)
	}
	if err := c.client.Set(ctx, keyFor(c.keyPrefix, draftsKeySuffix), payload, 0).Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "redis set drafts"), store.ErrPersistence)
	}
	return nil
}
