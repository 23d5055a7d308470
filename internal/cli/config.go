package cli

import (
	"fmt"

	"github.com/pizzeria-pos/waiter/internal/config"
	"github.com/spf13/cobra"
)

// newConfigCmd creates the config command, which writes the config file.
func newConfigCmd(a *app) *cobra.Command {
	var (
		server   string
		timeout  string
		logLevel string
		storage  string
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or update the waiter configuration file",
		Long: `Create or update the waiter configuration file. Values not given on the
command line are kept from the existing file.

Example:
  waiter config --server http://localhost:3333
  waiter config --server pos.local:3333 --request-timeout 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.configPath()
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(file)
			if err != nil {
				return err
			}

			if server != "" {
				cfg.ServerURL = config.MorphServer(server)
			}
			if timeout != "" {
				cfg.RequestTimeout = timeout
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if storage != "" {
				cfg.StorageFile = storage
			}
			if cmd.Flags().Changed("insecure-skip-verify") {
				cfg.InsecureSkipVerify = insecure
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}
			if err := cfg.WriteConfig(file); err != nil {
				return err
			}

			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"config_file":     file,
					"server_url":      cfg.ServerURL,
					"request_timeout": cfg.RequestTimeout,
				})
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Configuration saved to %s\n", file)
			fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\n", cfg.ServerURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Base URL of the ordering API")
	cmd.Flags().StringVar(&timeout, "request-timeout", "", "Request timeout, e.g. 15s or 1m")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&storage, "storage-file", "", "Path of the local storage file")
	cmd.Flags().BoolVar(&insecure, "insecure-skip-verify", false, "Accept self-signed server certificates")
	return cmd
}
