package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
)

// buildFlags holds the raw option values shared by build and verify.
type buildFlags struct {
	cfg         config.Build
	variant     string
	compression string
	profile     string
}

func bindBuildFlags(cmd *cobra.Command) *buildFlags {
	defaults := config.Defaults()
	f := &buildFlags{cfg: defaults}
	fs := cmd.Flags()

	fs.StringVarP(&f.cfg.Source, "source", "s", defaults.Source, "Plugin source directory or git repository URL")
	fs.StringVar(&f.cfg.DownloadDir, "download-dir", defaults.DownloadDir, "Directory a remote source is cloned into")
	fs.StringVarP(&f.cfg.StagingDir, "build", "b", defaults.StagingDir, "Staging directory")
	fs.StringVarP(&f.cfg.ResultDir, "destination", "d", defaults.ResultDir, "Directory the archives are written to")
	fs.StringVar(&f.cfg.ResultFilename, "filename", "", "Override the archive file name")
	fs.StringSliceVarP(&f.cfg.Formats, "format", "f", defaults.Formats, "Formats to build (repeatable, \"all\" for every format)")
	fs.StringVar(&f.variant, "variant", string(defaults.Variant), "Python file variant: source, binary or binary+source")
	fs.StringVar(&f.compression, "compression", string(defaults.Compression), "Zip compression: none, zlib, bzip2 or lzma")
	fs.IntVar(&f.cfg.Optimize, "optimize", defaults.Optimize, "Bytecode optimization level (0-2)")
	fs.StringArrayVar(&f.cfg.Exclude, "exclude", nil, "Glob of source paths to leave out (repeatable)")
	fs.IntVar(&f.cfg.TargetAPI, "target-api", defaults.TargetAPI, "Host API version for plugin archives")
	fs.StringVar(&f.cfg.GitBranch, "git-branch", "", "Branch to clone for remote sources")
	fs.StringVar(&f.profile, "profile", "", "YAML build profile providing defaults")

	return f
}

// resolve merges flags and the optional profile into a validated, absolute config.
func (f *buildFlags) resolve(cmd *cobra.Command) (config.Build, error) {
	cfg := f.cfg.Clone()
	cfg.Variant = config.Variant(f.variant)
	cfg.Compression = config.Compression(f.compression)

	if f.profile != "" {
		profile, err := config.LoadProfile(f.profile)
		if err != nil {
			return config.Build{}, err
		}
		explicit := make(map[string]bool)
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			explicit[flag.Name] = true
		})
		cfg = profile.Apply(cfg, explicit)
	}

	if err := cfg.Validate(); err != nil {
		return config.Build{}, err
	}

	cfg, err := cfg.Absolute()
	if err != nil {
		return config.Build{}, err
	}
	cfg.ToolDir = toolDir()
	return cfg, nil
}

// toolDir is the directory of the running executable, never packaged.
func toolDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
