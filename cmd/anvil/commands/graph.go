package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/anvil/internal/adapters/export"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the build order and the sets of targets that build together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Graph(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *CLI) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the project for other tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			return c.app.Export(cmd.Context(), cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().String("format", export.FormatJSON,
		"Export format: "+export.FormatJSON+" or "+export.FormatCompileCommands)

	return cmd
}
