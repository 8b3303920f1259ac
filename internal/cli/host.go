package cli

import (
	"context"
	"io"

	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/plugin"
	"github.com/leeforge/hookkit/plugin/examples/audit"
	"github.com/leeforge/hookkit/runtime"
	"github.com/leeforge/hookkit/store"
	"go.uber.org/zap"
)

// builtinPlugins are registered by every command that starts a host.
func builtinPlugins() []plugin.Plugin {
	return []plugin.Plugin{audit.New()}
}

// host is a bootstrapped runtime with the settings and logger it was built from.
type host struct {
	opts     config.ConfigOptions
	settings *config.Settings
	logger   logging.Logger
	runtime  *runtime.Runtime
}

// startHost loads settings, opens the store, registers plugins and
// bootstraps the runtime.
func startHost(ctx context.Context, opts config.ConfigOptions, plugins []plugin.Plugin) (*host, error) {
	c, err := config.NewConfig(opts)
	if err != nil {
		return nil, err
	}
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(settings.Logging)

	st, err := store.Open(ctx, settings.Store, logger)
	if err != nil {
		return nil, err
	}
	cfg, err := runtime.ConfigFromSettings(settings, logger, st)
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}

	rt := runtime.New(cfg)
	for _, p := range plugins {
		if err := rt.Register(p); err != nil {
			_ = rt.Shutdown(ctx)
			return nil, err
		}
	}
	if err := rt.Bootstrap(ctx); err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}

	logger.Info("host started",
		zap.Strings("config", c.Files()),
		zap.String("store", settings.Store.Driver),
		zap.Stringers("order", rt.BootOrder()),
	)
	return &host{opts: opts, settings: settings, logger: logger, runtime: rt}, nil
}

func (h *host) stop(ctx context.Context) error {
	err := h.runtime.Shutdown(ctx)
	_ = h.logger.Sync()
	return err
}

