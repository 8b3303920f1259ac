package cli

import (
	"fmt"
	"os"

	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/env_mode"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configDir string
	mode      string
}

func (o *rootOptions) configOptions() config.ConfigOptions {
	opts := config.DefaultConfigOptions()
	if o.configDir != "" {
		opts.BasePath = o.configDir
	}
	return opts
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hookkit",
		Short: "Plugin host with a hook registry and an HTTP control surface",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.mode == "" {
				return nil
			}
			env_mode.SetMode(env_mode.ParseEnv(opts.mode))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config", "", "config directory (default $CONFIG_PATH or ./config)")
	cmd.PersistentFlags().StringVar(&opts.mode, "mode", "", "environment mode (dev, prod, test)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newPluginsCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
