package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pluginoven/internal/compiler"
	"github.com/alexisbeaulieu97/pluginoven/internal/events"
	"github.com/alexisbeaulieu97/pluginoven/internal/format"
	"github.com/alexisbeaulieu97/pluginoven/internal/orchestrator"
	"github.com/alexisbeaulieu97/pluginoven/internal/report"
	"github.com/alexisbeaulieu97/pluginoven/internal/source"
)

// newCompiler is swapped by tests that cannot rely on python3.
var newCompiler = func() compiler.Compiler {
	return compiler.NewPython("")
}

// runPipeline resolves configuration and source, then drives the requested
// formats through stages and renders the summary.
func runPipeline(cmd *cobra.Command, root *rootFlags, flags *buildFlags, stages []orchestrator.Stage) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := newLogger(root, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}

	registry := format.DefaultRegistry()
	specs, err := registry.Resolve(cfg.Formats)
	if err != nil {
		return err
	}
	tags := make([]string, 0, len(specs))
	for _, spec := range specs {
		tags = append(tags, spec.Tag)
	}

	acquirer := source.New(source.Options{
		DownloadDir: cfg.DownloadDir,
		Branch:      cfg.GitBranch,
		Depth:       source.DefaultDepth,
		Logger:      log,
	})
	sourceDir, err := acquirer.Resolve(ctx, cfg.Source)
	if err != nil {
		return err
	}
	cfg = cfg.WithSource(sourceDir)
	if err := cfg.CheckStaging(sourceDir, tags); err != nil {
		return err
	}

	strategies, err := registry.Strategies(tags, format.Env{
		Config:   cfg,
		Source:   sourceDir,
		Compiler: newCompiler(),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{"source": sourceDir, "formats": tags}).Debug("starting build")

	summary := orchestrator.New(orchestrator.Options{
		Publisher: events.NewLoggingPublisher(log),
		Logger:    log,
		Stages:    stages,
	}).Run(ctx, strategies)

	out := cmd.OutOrStdout()
	if root.json {
		err = report.JSON(out, summary)
	} else {
		err = report.Text(out, summary)
	}
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if summary.Failed() {
		return fmt.Errorf("%d of %d format(s) failed", summary.FailedCount(), len(summary.Outcomes))
	}
	return nil
}
