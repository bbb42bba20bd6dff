// Package processor mirrors a plugin source tree into a staging directory,
// compiling Python sources on the way.
package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/compiler"
	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	"github.com/alexisbeaulieu97/pluginoven/internal/filter"
	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

const (
	// EntryPoint is the module the host imports; binary builds keep its source.
	EntryPoint = "__init__.py"

	pythonSource   = ".py"
	pythonBytecode = ".pyc"
)

// systemFiles are operating-system droppings skipped at any depth.
var systemFiles = map[string]struct{}{
	"thumbs.db":   {},
	"desktop.ini": {},
}

// Options configures a Processor.
type Options struct {
	Variant  config.Variant
	Optimize int
	Compiler compiler.Compiler
	Filter   *filter.Filter
	// RootSkip names files at the top of the source tree that the build
	// writes itself (descriptors, license).
	RootSkip []string
	Logger   *logger.Logger
}

// Report lists staged relative paths by what happened to them.
type Report struct {
	Copied   []string
	Compiled []string
	Removed  []string
}

// Processor stages a source tree.
type Processor struct {
	opts     Options
	rootSkip map[string]struct{}
}

// New builds a Processor. A nil logger discards output.
func New(opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Variant == "" {
		opts.Variant = config.VariantSource
	}

	skip := make(map[string]struct{}, len(opts.RootSkip))
	for _, name := range opts.RootSkip {
		skip[strings.ToLower(name)] = struct{}{}
	}
	return &Processor{opts: opts, rootSkip: skip}
}

// Process copies every shippable file under src into dst. It stops at the
// first failure; a bytecode failure is reported as a CompileError.
func (p *Processor) Process(ctx context.Context, src, dst string) (*Report, error) {
	f := p.opts.Filter
	if f == nil {
		var err error
		f, err = filter.New(filter.Options{Base: src})
		if err != nil {
			return nil, err
		}
	}
	if p.opts.Variant.Compiles() && p.opts.Compiler == nil {
		return nil, fmt.Errorf("variant %s requires a bytecode compiler", p.opts.Variant)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory %s: %w", dst, err)
	}

	report := &Report{}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if f.IsIgnorable(rel) {
			p.opts.Logger.With("path", rel).Debug("ignored")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if p.skipped(rel, d.Name()) {
			return nil
		}

		target := filepath.Join(dst, filepath.FromSlash(rel))
		if strings.EqualFold(filepath.Ext(rel), pythonSource) {
			return p.processSource(ctx, path, target, rel, report)
		}

		if err := CopyFile(path, target); err != nil {
			return fmt.Errorf("stage %s: %w", rel, err)
		}
		report.Copied = append(report.Copied, rel)
		p.opts.Logger.With("path", rel).Debug("copied")
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

func (p *Processor) skipped(rel, name string) bool {
	lower := strings.ToLower(name)
	if _, ok := systemFiles[lower]; ok {
		return true
	}
	if strings.Contains(rel, "/") {
		return false
	}
	_, ok := p.rootSkip[lower]
	return ok
}

func (p *Processor) processSource(ctx context.Context, path, target, rel string, report *Report) error {
	if err := CopyFile(path, target); err != nil {
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	report.Copied = append(report.Copied, rel)
	p.opts.Logger.With("path", rel).Debug("copied")

	if !p.opts.Variant.Compiles() {
		return nil
	}

	compiled := strings.TrimSuffix(target, filepath.Ext(target)) + pythonBytecode
	if err := p.opts.Compiler.Compile(ctx, path, compiled, rel, p.opts.Optimize); err != nil {
		return ovenerrors.NewCompileError(rel, err)
	}
	if err := os.Chmod(compiled, FileMode); err != nil {
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	report.Compiled = append(report.Compiled, rel)
	p.opts.Logger.With("path", rel).Debug("compiled")

	if p.opts.Variant.KeepsSources() || rel == EntryPoint {
		return nil
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("remove source %s: %w", rel, err)
	}
	report.Removed = append(report.Removed, rel)
	return nil
}
