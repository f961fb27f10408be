package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/pkg/logger"
)

// ErrTaskFailed is returned when a task run ends in a non-success result.
var ErrTaskFailed = errors.New("task run failed")

func TasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and run builtin tasks",
	}
	cmd.PersistentFlags().String("format", OutputFormatJSON, "Output format (json, yaml)")
	cmd.AddCommand(listCmd(), describeCmd(), runCmd())
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := catalogFrom(cmd.Context())
			if err != nil {
				return err
			}
			type item struct {
				Name        string `json:"name"`
				Description string `json:"description,omitempty"`
			}
			items := []item{}
			for _, desc := range catalog.List() {
				items = append(items, item{Name: desc.Name, Description: desc.Description})
			}
			format, _ := cmd.Flags().GetString("format")
			return writeValue(cmd.OutOrStdout(), items, format)
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show a task's schemas and blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFrom(cmd.Context())
			if err != nil {
				return err
			}
			entry, ok := catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown task %q", args[0])
			}
			format, _ := cmd.Flags().GetString("format")
			return writeValue(cmd.OutOrStdout(), map[string]any{
				"descriptor": entry.Descriptor,
				"blueprint":  entry.Descriptor.Blueprint(),
			}, format)
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a task with JSON or YAML input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := catalogFrom(ctx)
			if err != nil {
				return err
			}
			inline, _ := cmd.Flags().GetString("input")
			file, _ := cmd.Flags().GetString("input-file")
			input, err := readInput(cmd.InOrStdin(), inline, file)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			log := logger.FromContext(ctx).With("run_id", runID, "task", args[0])
			ctx = logger.ContextWithLogger(ctx, log)
			start := time.Now()
			result, err := catalog.Run(ctx, args[0], input)
			if err != nil {
				return err
			}
			log.Info("Task run finished", "kind", result.Kind, "duration", time.Since(start))
			data, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			format, _ := cmd.Flags().GetString("format")
			if err := writeJSON(cmd.OutOrStdout(), data, format); err != nil {
				return err
			}
			if result.Kind != task.KindSuccess {
				return fmt.Errorf("%w: %s", ErrTaskFailed, result.Kind)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "Task input as JSON or YAML")
	cmd.Flags().String("input-file", "", "Read task input from a file (- for stdin)")
	return cmd
}
