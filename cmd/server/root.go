package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-proxy/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "authproxy",
		Short: "OAuth 2.0 authorization server that delegates login to an upstream identity provider",
		// Errors are logged by the commands themselves.
		SilenceUsage: true,
		Version:      version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML file of configuration values (environment variables take precedence)")

	loadConfig := func() (config.Config, error) {
		if configPath == "" {
			return config.New(), nil
		}
		return config.NewFromFile(configPath)
	}

	rootCmd.AddCommand(newServeCmd(loadConfig))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.SetVersionTemplate(`{{printf "authproxy version %s\n" .Version}}`)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of authproxy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "authproxy version %s\n", version)
		},
	}
}
