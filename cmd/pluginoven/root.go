package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

type rootFlags struct {
	verbose bool
	json    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "pluginoven",
		Short:         "Package plugin sources into installable archives and marketplace packages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Emit JSON logs and a JSON summary")

	cmd.AddCommand(newBuildCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newFormatsCmd(flags))
	cmd.AddCommand(newVersionCmd(flags))

	return cmd
}

// newLogger writes console logs to terminals and JSON lines everywhere else.
func newLogger(flags *rootFlags, w io.Writer) (*logger.Logger, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level:         level,
		HumanReadable: !flags.json && isTerminal(w),
		Writer:        w,
	})
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func exitCode(err error) int {
	var cfgErr *ovenerrors.ConfigError
	var parseErr *ovenerrors.ParseError
	if errors.As(err, &cfgErr) || errors.As(err, &parseErr) {
		return exitConfig
	}
	return exitFailure
}
