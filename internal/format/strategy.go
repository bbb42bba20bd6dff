package format

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	"github.com/alexisbeaulieu97/pluginoven/internal/filter"
	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
	"github.com/alexisbeaulieu97/pluginoven/internal/metadata"
	"github.com/alexisbeaulieu97/pluginoven/internal/processor"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// base holds the state and stages shared by every strategy kind.
type base struct {
	spec     Spec
	cfg      config.Build
	source   string
	env      Env
	log      *logger.Logger
	staging  string
	variant  config.Variant
	compress config.Compression

	pkg        *metadata.Package
	plugin     *metadata.Plugin
	payloadDir string
	license    string
	target     int
	result     string
	lastErr    error
}

func newBase(spec Spec, env Env) base {
	log := env.Logger
	if log == nil {
		log = logger.Nop()
	}
	source := env.Source
	if source == "" {
		source = env.Config.Source
	}

	b := base{
		spec:     spec,
		cfg:      env.Config,
		source:   source,
		env:      env,
		log:      log.With("format", spec.Tag),
		staging:  filepath.Join(env.Config.StagingDir, spec.Tag),
		variant:  env.Config.Variant,
		compress: env.Config.Compression,
	}
	if spec.SourceOnly {
		b.variant = config.VariantSource
		b.compress = config.CompressionZlib
	}
	return b
}

// Name returns the format tag.
func (b *base) Name() string { return b.spec.Tag }

// ResultPath is the archive location, known once Verify succeeded.
func (b *base) ResultPath() string { return b.result }

// StagingDir is the directory this format stages into.
func (b *base) StagingDir() string { return b.staging }

// LastError returns the reason the most recent stage failed.
func (b *base) LastError() error { return b.lastErr }

func (b *base) fail(err error, msg string) bool {
	b.lastErr = err
	b.log.Error(err, msg)
	return false
}

// loadDescriptors resolves package.json, the payload directory and
// plugin.json. requirePackage makes a missing package.json an error.
func (b *base) loadDescriptors(requirePackage bool) error {
	b.pkg, b.plugin, b.payloadDir, b.license = nil, nil, "", ""

	info, err := os.Stat(b.source)
	if err != nil {
		return fmt.Errorf("source %s: %w", b.source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", b.source)
	}

	pkgPath := filepath.Join(b.source, metadata.PackageFile)
	if _, err := os.Stat(pkgPath); err == nil {
		pkg, err := metadata.LoadPackage(pkgPath)
		if err != nil {
			return err
		}
		b.pkg = pkg
	} else if requirePackage {
		return ovenerrors.NewValidationError(metadata.PackageFile, "package descriptor not found in "+b.source, err)
	}

	payload, err := DiscoverPayload(b.source, b.pkg)
	if err != nil {
		return ovenerrors.NewValidationError(metadata.PluginFile, err.Error(), err)
	}
	b.payloadDir = payload

	plugin, err := metadata.LoadPluginDir(payload)
	if err != nil {
		return err
	}
	if err := plugin.Validate(); err != nil {
		return err
	}
	b.plugin = plugin
	return nil
}

// checkTarget verifies the declared API range and SDK list accept target.
func (b *base) checkTarget(target int) error {
	if !b.plugin.SupportsAPI(target) {
		r, _ := b.plugin.SupportedRange()
		return ovenerrors.NewValidationError("api", fmt.Sprintf("target %d is outside the supported range %s", target, r), nil)
	}
	if !b.plugin.SupportsSDK(target) {
		return ovenerrors.NewValidationError("supported_sdk_versions", fmt.Sprintf("no supported sdk version with major %d", target), nil)
	}
	return nil
}

func (b *base) locateLicense() error {
	dirs := []string{b.payloadDir}
	if b.pkg != nil {
		dirs = append(dirs, b.pkg.Dir())
	}
	dirs = append(dirs, b.source)

	license, ok := FindLicense(dirs...)
	if !ok {
		return ovenerrors.NewValidationError("license", fmt.Sprintf("no license file (%v) found", LicenseNames), nil)
	}
	b.license = license
	return nil
}

func (b *base) resultPath(filename string) string {
	if b.cfg.ResultFilename != "" {
		filename = b.cfg.ResultFilename
	}
	return filepath.Join(b.cfg.ResultDir, filename)
}

// payloadFilter builds the filter applied to the payload tree.
func (b *base) payloadFilter() (*filter.Filter, error) {
	globs := append([]string(nil), b.cfg.Exclude...)
	if sameDir(b.cfg.ResultDir, b.payloadDir) {
		globs = append(globs, b.resultGlobs()...)
	}
	return filter.New(filter.Options{
		Base:          b.payloadDir,
		AlwaysExclude: nonEmpty(b.cfg.ToolDir, b.cfg.ResultDir),
		Staging:       b.cfg.StagingDir,
		ExcludeGlobs:  globs,
	})
}

// resultGlobs matches, at the payload root, every archive name this tool
// writes. They apply when the destination is the payload directory itself.
func (b *base) resultGlobs() []string {
	globs := []string{
		"*" + FlavourCura.Extension(),
		"*" + FlavourUranium.Extension(),
		"*" + packageExtension,
	}
	if b.plugin != nil {
		globs = append(globs, escapeGlob(b.plugin.ID)+"-*.api-*"+sourceExtension)
	}
	if b.cfg.ResultFilename != "" {
		globs = append(globs, escapeGlob(b.cfg.ResultFilename))
	}
	return globs
}

func sameDir(a, b string) bool {
	return config.Contains(a, b) && config.Contains(b, a)
}

func escapeGlob(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[]{}\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// guardStaging refuses a staging directory whose removal would take the
// source or payload tree with it.
func (b *base) guardStaging() error {
	for _, dir := range nonEmpty(b.source, b.payloadDir) {
		if config.Contains(b.staging, dir) {
			return ovenerrors.NewConfigError("build", fmt.Sprintf("staging directory %s would remove the source %s", b.staging, dir), nil)
		}
	}
	return nil
}

// Prepare clears and recreates the staging directory.
func (b *base) Prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.guardStaging(); err != nil {
		return err
	}
	entries, err := os.ReadDir(b.staging)
	switch {
	case err == nil && len(entries) > 0:
		b.log.With("path", b.staging).Warn("staging directory is not empty, cleaning it up")
		if err := os.RemoveAll(b.staging); err != nil {
			return fmt.Errorf("clean staging directory: %w", err)
		}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("inspect staging directory: %w", err)
	}
	if err := os.MkdirAll(b.staging, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	return nil
}

// stagePayload runs the processor into dst and writes the license and the
// resolved plugin descriptor next to the staged sources.
func (b *base) stagePayload(ctx context.Context, dst string, sdkSemver string) error {
	if b.plugin == nil {
		return fmt.Errorf("%s: build requires a verified source", b.spec.Tag)
	}

	f, err := b.payloadFilter()
	if err != nil {
		return err
	}

	skip := []string{metadata.PluginFile, metadata.PackageFile}
	if b.license != "" {
		skip = append(skip, filepath.Base(b.license))
	}
	proc := processor.New(processor.Options{
		Variant:  b.variant,
		Optimize: b.cfg.Optimize,
		Compiler: b.env.Compiler,
		Filter:   f,
		RootSkip: skip,
		Logger:   b.log,
	})
	report, err := proc.Process(ctx, b.payloadDir, dst)
	if err != nil {
		return err
	}
	b.log.WithFields(map[string]any{
		"copied":   len(report.Copied),
		"compiled": len(report.Compiled),
		"removed":  len(report.Removed),
	}).Debug("payload staged")

	if b.license != "" {
		if err := processor.CopyFile(b.license, filepath.Join(dst, filepath.Base(b.license))); err != nil {
			return fmt.Errorf("stage license: %w", err)
		}
	}

	doc := b.plugin.ShippedDocument(b.target)
	if sdkSemver != "" {
		metadata.EnsureSupportedSDK(doc, sdkSemver)
	}
	if err := doc.Write(filepath.Join(dst, metadata.PluginFile)); err != nil {
		return fmt.Errorf("stage plugin descriptor: %w", err)
	}
	return nil
}

// conventionFailure records and logs a failed archive check.
func (b *base) conventionFailure(entry, message string) bool {
	err := ovenerrors.NewConventionError(filepath.Base(b.result), entry, message)
	return b.fail(err, "archive check failed")
}

// Clean removes the staging directory.
func (b *base) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.guardStaging(); err != nil {
		return err
	}
	if err := os.RemoveAll(b.staging); err != nil {
		return fmt.Errorf("remove staging directory: %w", err)
	}
	return nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
