package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"consolenav/internal/gateway/config"
	"consolenav/internal/logging"
)

var (
	verbose bool
	port    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "consolenav - navigation gateway for the admin console",
	Long: `gateway turns the console backend's menu permissions into a canonical
menu tree and router-ready route definitions, per user session.

Run without a subcommand to serve.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if port != "" {
			cfg.SetPort(port)
		}
		logger, err = logging.New(logging.Options{Env: cfg.Env, Verbose: verbose || cfg.Debug})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "Listen address, overrides PORT")

	compileCmd.Flags().StringVar(&compileIn, "in", "", "Menu payload JSON file (required)")
	compileCmd.Flags().StringSliceVar(&compileRoles, "roles", nil, "Role codes used for --nav filtering")
	compileCmd.Flags().StringVar(&compileRegistry, "registry", "", "Component registry YAML")
	compileCmd.Flags().StringVar(&compileSelector, "selector", "", "JSONPath applied to the payload before extraction")
	compileCmd.Flags().BoolVar(&compileNav, "nav", false, "Also print the role-filtered navigation tree")
	_ = compileCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(serveCmd, compileCmd)
}
