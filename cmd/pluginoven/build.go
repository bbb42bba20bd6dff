package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pluginoven/internal/orchestrator"
)

func newBuildCmd(root *rootFlags) *cobra.Command {
	var flags *buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every requested format",
		Long: `Build runs verify, prepare, build, bundle, test and clean for each requested
format in turn. A failing format does not stop the ones after it; the command
exits non-zero when any format failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, flags, orchestrator.Stages)
		},
	}
	flags = bindBuildFlags(cmd)

	return cmd
}
