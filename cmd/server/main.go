package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds the loaded configuration shared by all subcommands.
type rootOptions struct {
	envFile string
	cfg     *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "splitledger",
		Short: "Shared-expense ledger server",
		Long: `splitledger keeps track of expenses shared within groups.

Settings come from the environment (optionally a .env file) and can be
overridden with flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			logging.SetupWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "optional dotenv file")
	flags.String("database-url", "", "database URL (sqlite:PATH or postgres://...)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

// applyFlags copies explicitly set flags over values loaded from the
// environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"addr":         &cfg.Addr,
		"database-url": &cfg.DatabaseURL,
		"static-path":  &cfg.StaticPath,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
	}
	for name, dst := range strs {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Lookup("token-ttl") != nil && flags.Changed("token-ttl") {
		v, err := flags.GetDuration("token-ttl")
		if err != nil {
			return err
		}
		cfg.TokenTTL = v
	}
	if flags.Lookup("auth-rate") != nil && flags.Changed("auth-rate") {
		v, err := flags.GetInt("auth-rate")
		if err != nil {
			return err
		}
		cfg.AuthRatePerMinute = v
	}
	if flags.Lookup("legacy-api") != nil && flags.Changed("legacy-api") {
		v, err := flags.GetBool("legacy-api")
		if err != nil {
			return err
		}
		cfg.LegacyAPI = v
	}

	return cfg.Validate()
}
