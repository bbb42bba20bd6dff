package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pluginoven/internal/orchestrator"
)

func newVerifyCmd(root *rootFlags) *cobra.Command {
	var flags *buildFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check descriptors and conventions without producing archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, flags, []orchestrator.Stage{orchestrator.StageVerify})
		},
	}
	flags = bindBuildFlags(cmd)

	return cmd
}
