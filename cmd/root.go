// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/internal/config"
	"github.com/xkilldash9x/patchreport/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// flagBindings maps command-line flags onto configuration keys. Flags take
// precedence over the config file, which takes precedence over defaults.
var flagBindings = map[string]string{
	"server":        "source.server",
	"port":          "source.port",
	"tls":           "source.use_tls",
	"insecure":      "source.insecure_skip_verify",
	"snapshot":      "source.snapshot_file",
	"concurrency":   "source.concurrency",
	"group":         "report.group",
	"output-dir":    "report.output_dir",
	"prefix":        "report.prefix",
	"active-days":   "report.active_days",
	"top":           "report.top_machines",
	"preview":       "report.preview",
	"webhook-url":   "webhook.url",
	"email-from":    "email.from",
	"email-to":      "email.to",
	"email-subject": "email.subject",
	"smtp-host":     "email.host",
	"smtp-port":     "email.port",
	"log-level":     "logger.level",
}

// NewRootCommand builds the full command tree. Each call returns an
// independent tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "patchreport",
		Short:         "Generate update compliance reports from a patch-management server.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting patchreport", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.patchreport/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI with ctx, which should be cancelled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return err
	}
	return nil
}

// initializeConfig reads the config file and environment, then binds any
// flags the running command defines.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".patchreport"))
		}
	}

	v.SetEnvPrefix("PATCHREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	// --snapshot implies the snapshot source.
	if f := cmd.Flags().Lookup("snapshot"); f != nil && f.Changed {
		v.Set("source.type", config.SourceTypeSnapshot)
	}
	return nil
}

// getConfigFromContext returns the configuration loaded by the root command.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		return nil, errors.New("no context available")
	}
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
