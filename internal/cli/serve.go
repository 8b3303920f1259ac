package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/errors"
	"github.com/leeforge/hookkit/http/admin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap plugins and serve the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := startHost(ctx, root.configOptions(), builtinPlugins())
			if err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := h.stop(stopCtx); err != nil {
					h.logger.Error("shutdown incomplete", zap.Error(err))
				}
			}()

			if watch {
				if err := watchSettings(ctx, h); err != nil {
					return err
				}
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return serve(ctx, h, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "admin API listen address")
	cmd.Flags().BoolVar(&watch, "watch", true, "apply config file changes without restarting")
	return cmd
}

// watchSettings applies every successful config reload to the runtime.
func watchSettings(ctx context.Context, h *host) error {
	return config.Watch(ctx, h.opts, func(s *config.Settings, err error) {
		if err != nil {
			h.logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if err := h.runtime.Apply(ctx, s); err != nil {
			h.logger.Warn("settings apply failed", zap.Error(err))
			return
		}
		h.logger.Info("settings reloaded", zap.Strings("enabled", toStrings(s.EnabledPlugins())))
	})
}

// serve runs the admin API on ln until ctx is done.
func serve(ctx context.Context, h *host, ln net.Listener) error {
	srv := &http.Server{
		Handler:           admin.NewRouter(h.runtime, h.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	h.logger.Info("admin API listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
