package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/leeforge/hookkit/hook"
)

// Redis stores the set as a Redis set under one key.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (r *Redis) Load(ctx context.Context) ([]hook.OwnedID, error) {
	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis smembers %s: %w", r.key, err)
	}

	ids := make([]hook.OwnedID, 0, len(members))
	for _, m := range members {
		id, err := hook.ParsePluginID(m)
		if err != nil {
			return nil, fmt.Errorf("store: redis %s: %w", r.key, err)
		}
		ids = append(ids, id)
	}
	return normalize(ids), nil
}

// Save replaces the set in one MULTI/EXEC transaction.
func (r *Redis) Save(ctx context.Context, ids []hook.OwnedID) error {
	ids = normalize(ids)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(ids) == 0 {
			return nil
		}
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id.String()
		}
		pipe.SAdd(ctx, r.key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: redis save %s: %w", r.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
