package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/anvil/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build targets and their dependencies (all targets when none are named)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Build, then rebuild whenever project files change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of targets built concurrently (default: number of CPUs)")
	cmd.Flags().StringP("configuration", "c", "", "Build configuration: debug, release, minsize or relwithdebinfo")
	cmd.Flags().StringP("toolchain", "t", "", "Default toolchain kind, e.g. gnu, llvm or vs")
	cmd.Flags().BoolP("force", "f", false, "Rebuild targets even when they are up to date")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, linear or ci")
	cmd.Flags().Bool("ci", false, "Use CI output (shorthand for --output-mode=ci)")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	jobs, _ := cmd.Flags().GetInt("jobs")
	configuration, _ := cmd.Flags().GetString("configuration")
	toolchain, _ := cmd.Flags().GetString("toolchain")
	force, _ := cmd.Flags().GetBool("force")
	outputMode, _ := cmd.Flags().GetString("output-mode")
	ci, _ := cmd.Flags().GetBool("ci")

	if ci {
		outputMode = "ci"
	}

	return app.BuildOptions{
		Configuration: configuration,
		Jobs:          jobs,
		Toolchain:     toolchain,
		Force:         force,
		OutputMode:    outputMode,
	}
}
