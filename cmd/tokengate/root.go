package main

import (
	"github.com/MrEthical07/tokengate/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tokengate",
		Short: "Stateless JWT gateway with Redis-backed refresh tokens",
		Long: `tokengate issues short-lived access tokens and rotating refresh tokens.

Configuration is read from config.yaml (or --config) and TOKENGATE_*
environment variables, for example TOKENGATE_AUTH_JWT_SECRET.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml or /etc/tokengate/config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newHashPasswordCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configFile)
}
