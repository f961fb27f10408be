package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/engine/task/builtin"
	"github.com/oetzilabs/wfa/engine/task/native"
	"github.com/oetzilabs/wfa/pkg/config"
	"github.com/oetzilabs/wfa/pkg/logger"
)

const meterName = "github.com/oetzilabs/wfa"

type catalogCtxKey struct{}

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wfa",
		Short:         "Run schema-validated tasks and pipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.String("csv-delimiter", ",", "Default CSV delimiter (, or ;)")
	flags.String("exchange-url", config.DefaultPrimaryURL, "Primary exchange rate endpoint template")

	root.AddCommand(TasksCmd(), VersionCmd())
	return root
}

// SetupGlobalConfig loads configuration, sets up logging and builds the task
// catalog. All three are stored in the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sources := []config.Source{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		sources = append(sources, config.NewYAMLProvider(path))
	}
	sources = append(sources, config.NewCLIProvider(changedFlags(cmd)))
	cfg, err := config.Load(ctx, sources...)
	if err != nil {
		return err
	}
	_, _, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, logSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)

	metrics, err := task.NewMetrics(otel.GetMeterProvider().Meter(meterName))
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	catalog, err := native.NewCatalog(cfg, task.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to build task catalog: %w", err)
	}
	ctx = context.WithValue(ctx, catalogCtxKey{}, catalog)
	cmd.SetContext(ctx)
	return nil
}

func changedFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			flags[f.Name] = f.Value.String() == "true"
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

func catalogFrom(ctx context.Context) (*builtin.Catalog, error) {
	catalog, ok := ctx.Value(catalogCtxKey{}).(*builtin.Catalog)
	if !ok || catalog == nil {
		return nil, fmt.Errorf("task catalog is not initialized")
	}
	return catalog, nil
}
