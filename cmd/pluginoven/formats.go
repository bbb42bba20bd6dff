package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pluginoven/internal/format"
)

type formatEntry struct {
	Tag        string `json:"tag"`
	Kind       string `json:"kind"`
	Generation int    `json:"generation,omitempty"`
	Summary    string `json:"summary"`
}

func newFormatsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the registered output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := format.DefaultRegistry().Specs()
			entries := make([]formatEntry, 0, len(specs))
			for _, spec := range specs {
				entries = append(entries, formatEntry{
					Tag:        spec.Tag,
					Kind:       string(spec.Kind),
					Generation: spec.Generation,
					Summary:    spec.Summary,
				})
			}

			out := cmd.OutOrStdout()
			if root.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Tag, e.Kind, e.Summary)
			}
			return tw.Flush()
		},
	}
}
