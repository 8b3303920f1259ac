// Package store persists the set of enabled plugins between runs.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/redis_client"
)

// Store loads and saves the enabled plugin set.
type Store interface {
	// Load returns the saved set, empty if nothing was saved yet.
	Load(ctx context.Context) ([]hook.OwnedID, error)
	// Save replaces the saved set.
	Save(ctx context.Context, ids []hook.OwnedID) error
}

// Open builds the Store selected by settings. Driver "none" yields nil.
func Open(ctx context.Context, settings config.StoreSettings, logger logging.Logger) (Store, error) {
	switch settings.Driver {
	case "", config.StoreNone:
		return nil, nil
	case config.StoreFile:
		return NewFile(settings.Path), nil
	case config.StoreRedis:
		client, err := redis_client.NewRedis(ctx, settings.Redis.Config, logger)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return NewRedis(client, settings.Redis.Key), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", settings.Driver)
	}
}

// normalize sorts and dedups ids.
func normalize(ids []hook.OwnedID) []hook.OwnedID {
	seen := make(map[string]struct{}, len(ids))
	out := make([]hook.OwnedID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id.String()]; dup {
			continue
		}
		seen[id.String()] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Memory keeps the set in process. Safe for concurrent use.
type Memory struct {
	mu  sync.RWMutex
	ids []hook.OwnedID
}

func NewMemory(ids ...hook.OwnedID) *Memory {
	return &Memory{ids: normalize(ids)}
}

func (m *Memory) Load(context.Context) ([]hook.OwnedID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]hook.OwnedID(nil), m.ids...), nil
}

func (m *Memory) Save(_ context.Context, ids []hook.OwnedID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = normalize(ids)
	return nil
}
