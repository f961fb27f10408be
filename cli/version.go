package cli

import (
	"github.com/spf13/cobra"

	"github.com/oetzilabs/wfa/pkg/version"
)

func VersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			return writeValue(cmd.OutOrStdout(), version.Get(), format)
		},
	}
	cmd.Flags().String("format", OutputFormatJSON, "Output format (json, yaml)")
	return cmd
}
