// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/config"
	"github.com/xkilldash9x/boxlayout/internal/observability"
)

type contextKey string

// configKey stores the loaded configuration in the command context.
const configKey contextKey = "config"

// configFrom returns the configuration PersistentPreRunE stored in ctx.
func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// NewRootCmd builds the command tree. Each call returns independent
// commands and flags.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "boxlayout",
		Short: "boxlayout lays out HTML and XML documents with CSS.",
		Long: `boxlayout runs documents through the CSS cascade, builds their box trees,
lays them out against a viewport and reports the resulting geometry as JSON,
an indented box tree or a rendered PNG. JSON dumps of earlier runs can be
compared with the compare command.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting boxlayout", zap.String("version", Version))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey, cfg))
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.boxlayout/config.yaml)")
	cmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	cmd.AddCommand(newLayoutCmd())
	cmd.AddCommand(newCompareCmd())
	return cmd
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	defer observability.Close()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
