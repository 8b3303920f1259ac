package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leeforge/hookkit/env_mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
manager:
  visibility: show-disabled
logging:
  level: debug
store:
  driver: file
  path: state/plugins.json
plugins:
  greeter:
    enabled: true
    settings:
      greeting: Howdy
  audit:
    optional: true
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testOptions(dir string) ConfigOptions {
	opts := DefaultConfigOptions()
	opts.BasePath = dir
	opts.EnvPrefix = "HOOKKIT_TEST"
	return opts
}

func withMode(t *testing.T, mode env_mode.ENV_MODE) {
	t.Helper()
	prev := env_mode.Mode()
	env_mode.SetMode(mode)
	t.Cleanup(func() { env_mode.SetMode(prev) })
}

func TestLoad_DecodesAndDefaults(t *testing.T) {
	withMode(t, env_mode.DevMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)

	s, err := Load(testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, "show-disabled", s.Manager.Visibility)
	assert.Equal(t, 1024, s.Manager.EventBuffer)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "console", s.Logging.Format, "logging defaults survive a partial section")
	assert.Equal(t, StoreFile, s.Store.Driver)
	assert.Equal(t, "hookkit:enabled", s.Store.Redis.Key)
	assert.Equal(t, "localhost:6379", s.Store.Redis.Addr())

	greeter, ok := s.Plugin("greeter")
	require.True(t, ok)
	assert.True(t, greeter.Enabled)
	assert.Equal(t, "Howdy", greeter.Settings["greeting"])
	assert.Equal(t, []string{"greeter"}, toStrings(s.EnabledPlugins()))

	audit, _ := s.Plugin("audit")
	assert.True(t, audit.Optional)
}

func TestSettings_PluginMatchesFoldedKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "plugins:\n  GreeterPlugin:\n    enabled: true\n")

	s, err := Load(testOptions(dir))
	require.NoError(t, err)

	ps, ok := s.Plugin("GreeterPlugin")
	require.True(t, ok)
	assert.True(t, ps.Enabled)

	s.Plugins = map[string]PluginSettings{
		"greeterplugin": {Enabled: false},
		"GreeterPlugin": {Enabled: true},
	}
	ps, _ = s.Plugin("GreeterPlugin")
	assert.True(t, ps.Enabled, "exact key wins")
	ps, _ = s.Plugin("GREETERPLUGIN")
	assert.True(t, ps.Enabled, "folded keys resolve in sorted order")

	_, ok = s.Plugin("other")
	assert.False(t, ok)
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func TestLoad_ModeFilesOverrideBase(t *testing.T) {
	withMode(t, env_mode.ProMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	writeFile(t, dir, "config.production.yaml", "store:\n  driver: none\n")
	writeFile(t, dir, "config.prod.local.yaml", "manager:\n  event-buffer: 8\n")
	writeFile(t, dir, "config.test.yaml", "manager:\n  event-buffer: 99\n")

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	assert.Len(t, c.Files(), 3)

	s, err := c.Settings()
	require.NoError(t, err)
	assert.Equal(t, StoreNone, s.Store.Driver)
	assert.Equal(t, 8, s.Manager.EventBuffer)
	assert.Equal(t, "show-disabled", s.Manager.Visibility)
}

func TestLoad_EnvOverride(t *testing.T) {
	withMode(t, env_mode.DevMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	t.Setenv("HOOKKIT_TEST_MANAGER_VISIBILITY", "hide-disabled")

	s, err := Load(testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, "hide-disabled", s.Manager.Visibility)
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := Load(testOptions(t.TempDir()))
	assert.ErrorContains(t, err, "No valid configuration files")
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"bad visibility", func(s *Settings) { s.Manager.Visibility = "sometimes" }, false},
		{"zero buffer", func(s *Settings) { s.Manager.EventBuffer = 0 }, false},
		{"bad driver", func(s *Settings) { s.Store.Driver = "s3" }, false},
		{"file without path", func(s *Settings) { s.Store.Driver = StoreFile }, false},
		{"file with path", func(s *Settings) { s.Store.Driver = StoreFile; s.Store.Path = "x.json" }, true},
		{"redis without host", func(s *Settings) { s.Store.Driver = StoreRedis; s.Store.Redis.Host = "" }, false},
		{"bad log level", func(s *Settings) { s.Logging.Level = "loud" }, false},
		{"bad plugin id", func(s *Settings) { s.Plugins = map[string]PluginSettings{"has space": {}} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	withMode(t, env_mode.DevMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Settings, 4)
	require.NoError(t, Watch(ctx, testOptions(dir), func(s *Settings, err error) {
		if err == nil {
			changes <- s
		}
	}))

	writeFile(t, dir, "unrelated.yaml", "x: 1\n")
	writeFile(t, dir, "config.yaml", baseYAML+"\n  extra:\n    enabled: true\n")

	select {
	case s := <-changes:
		assert.Equal(t, []string{"extra", "greeter"}, toStrings(s.EnabledPlugins()))
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after writing config.yaml")
	}
}
