// Package source resolves the --source option to a local directory, cloning
// remote repositories when needed.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// DefaultDepth clones only the tip commit.
const DefaultDepth = 1

// Options configures an Acquirer.
type Options struct {
	DownloadDir string
	Branch      string
	// Depth limits clone history; zero or less clones everything.
	Depth  int
	Logger *logger.Logger
}

// CloneFunc performs the clone. It matches git.PlainCloneContext.
type CloneFunc func(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error)

// Acquirer turns a source location into a directory on disk.
type Acquirer struct {
	opts  Options
	log   *logger.Logger
	clone CloneFunc
}

// New creates an Acquirer backed by go-git.
func New(opts Options) *Acquirer {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Acquirer{opts: opts, log: log, clone: git.PlainCloneContext}
}

// IsRemote reports whether location names a repository rather than a path.
func IsRemote(location string) bool {
	return strings.Contains(location, "://") ||
		strings.HasPrefix(location, "git@") ||
		strings.HasSuffix(location, ".git")
}

// Resolve returns location itself when it is a directory. Remote locations are
// cloned into the download directory, which is emptied first.
func (a *Acquirer) Resolve(ctx context.Context, location string) (string, error) {
	if info, err := os.Stat(location); err == nil {
		if !info.IsDir() {
			return "", ovenerrors.NewConfigError("source", fmt.Sprintf("%s is not a directory", location), nil)
		}
		return location, nil
	}

	if !IsRemote(location) {
		return "", ovenerrors.NewConfigError("source", fmt.Sprintf("%s is neither a directory nor a repository URL", location), nil)
	}
	if a.opts.DownloadDir == "" {
		return "", ovenerrors.NewConfigError("download-dir", "a download directory is required for remote sources", nil)
	}

	if err := a.clearDownloadDir(); err != nil {
		return "", ovenerrors.NewConfigError("download-dir", "cannot clear download directory", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:               location,
		SingleBranch:      true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}
	if a.opts.Depth > 0 {
		cloneOpts.Depth = a.opts.Depth
	}
	if a.opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(a.opts.Branch)
	}

	a.log.WithFields(map[string]any{"url": location, "destination": a.opts.DownloadDir, "branch": a.opts.Branch}).Info("cloning source")
	if _, err := a.clone(ctx, a.opts.DownloadDir, false, cloneOpts); err != nil {
		_ = os.RemoveAll(a.opts.DownloadDir)
		return "", ovenerrors.NewConfigError("source", fmt.Sprintf("failed to clone %s", location), err)
	}
	return a.opts.DownloadDir, nil
}

func (a *Acquirer) clearDownloadDir() error {
	entries, err := os.ReadDir(a.opts.DownloadDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		a.log.With("path", a.opts.DownloadDir).Warn("download directory is not empty, cleaning it up")
	}
	return os.RemoveAll(a.opts.DownloadDir)
}
