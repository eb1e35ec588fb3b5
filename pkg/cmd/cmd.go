// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/vaultshare/pkg/app"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "vaultshare",
		Short: "Secure time-limited sharing gateway for remote note stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
)

func runServe() error {
	return app.NewApp(configPath).Run()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose debug output")

	rootCmd.AddCommand(serveCmd)
	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
	registerKVCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
