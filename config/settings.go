package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/redis_client"
)

// Settings is the typed configuration of a plugin host.
type Settings struct {
	Manager ManagerSettings           `mapstructure:"manager" json:"manager" yaml:"manager"`
	Logging logging.Config            `mapstructure:"logging" json:"logging" yaml:"logging"`
	Store   StoreSettings             `mapstructure:"store" json:"store" yaml:"store"`
	Plugins map[string]PluginSettings `mapstructure:"plugins" json:"plugins" yaml:"plugins" validate:"dive"`
}

type ManagerSettings struct {
	// Visibility is hide-disabled or show-disabled.
	Visibility  string `mapstructure:"visibility" json:"visibility" yaml:"visibility" default:"hide-disabled" validate:"oneof=hide-disabled show-disabled"`
	EventBuffer int    `mapstructure:"event-buffer" json:"eventBuffer" yaml:"event-buffer" default:"1024" validate:"min=1"`
}

const (
	StoreNone  = "none"
	StoreFile  = "file"
	StoreRedis = "redis"
)

// StoreSettings selects where the enabled plugin set is persisted.
type StoreSettings struct {
	Driver string        `mapstructure:"driver" json:"driver" yaml:"driver" default:"none" validate:"oneof=none file redis"`
	Path   string        `mapstructure:"path" json:"path" yaml:"path" validate:"required_if=Driver file"`
	Redis  RedisSettings `mapstructure:"redis" json:"redis" yaml:"redis"`
}

type RedisSettings struct {
	redis_client.Config `mapstructure:",squash" yaml:",inline"`
	Key                 string `mapstructure:"key" json:"key" yaml:"key" default:"hookkit:enabled"`
}

// PluginSettings configures one plugin.
type PluginSettings struct {
	Enabled  bool           `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Optional bool           `mapstructure:"optional" json:"optional" yaml:"optional"`
	Settings map[string]any `mapstructure:"settings" json:"settings" yaml:"settings"`
}

var validate = validator.New()

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{Logging: logging.DefaultConfig()}
	if err := defaults.Set(s); err != nil {
		panic(err)
	}
	return s
}

// Validate checks field rules and that every plugin key is a valid id.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("❌ Config validation failed: %w", err)
	}
	if s.Store.Driver == StoreRedis && s.Store.Redis.Host == "" {
		return fmt.Errorf("❌ Config validation failed: store.redis.host is required for the redis driver")
	}
	for id := range s.Plugins {
		if _, err := hook.ParsePluginID(id); err != nil {
			return fmt.Errorf("❌ Config validation failed: plugins.%s: %w", id, err)
		}
	}
	return nil
}

// Plugin returns the settings for id and whether it is configured. An
// exact key wins; otherwise keys match case-insensitively, since viper
// lowercases map keys read from files.
func (s *Settings) Plugin(id hook.PluginID) (PluginSettings, bool) {
	if s == nil {
		return PluginSettings{}, false
	}
	if p, ok := s.Plugins[string(id)]; ok {
		return p, true
	}
	keys := make([]string, 0, len(s.Plugins))
	for key := range s.Plugins {
		if strings.EqualFold(key, string(id)) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return PluginSettings{}, false
	}
	sort.Strings(keys)
	return s.Plugins[keys[0]], true
}

// EnabledPlugins returns the ids marked enabled, sorted.
func (s *Settings) EnabledPlugins() []hook.PluginID {
	if s == nil {
		return nil
	}
	var ids []hook.PluginID
	for id, p := range s.Plugins {
		if p.Enabled {
			ids = append(ids, hook.PluginID(id))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Load reads, defaults and validates settings.
func Load(opts ConfigOptions) (*Settings, error) {
	c, err := NewConfig(opts)
	if err != nil {
		return nil, err
	}
	return c.Settings()
}

// Settings decodes c into validated Settings.
func (c *Config) Settings() (*Settings, error) {
	s := &Settings{Logging: logging.DefaultConfig()}
	if err := c.BindWithDefaults(s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
