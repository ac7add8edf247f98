package main

import (
	"context"
	"fmt"
	"os"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"

	"github.com/spf13/cobra"
)

var version = "dev"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "expenses",
		Short:         "Personal expenses API",
		Long:          `expenses records payments, resolves their categories and wallets, and reports balances over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	return cmd
}

// bootstrap loads the env file named by --env-file, then configuration and
// the process logger.
func bootstrap(cmd *cobra.Command, validate func(*config.Config) error) (*config.Config, *log.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cli.LoadEnvFile(envFile)

	cfg, err := cli.LoadAndValidateConfig(validate)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cli.SetupLogger(cfg.LogLevel, cfg.LogFormat), nil
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
