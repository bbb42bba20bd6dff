package format

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/archive"
	"github.com/alexisbeaulieu97/pluginoven/internal/metadata"
)

// pluginStrategy produces an installable (or source-only) plugin archive:
// one root directory named after the plugin id holding the staged payload.
type pluginStrategy struct {
	base
	flavour Flavour
}

func newPluginStrategy(spec Spec, env Env) *pluginStrategy {
	return &pluginStrategy{base: newBase(spec, env)}
}

// Flavour is the detected host framework, set by Verify.
func (s *pluginStrategy) Flavour() Flavour { return s.flavour }

// Verify checks the source can produce this plugin archive.
func (s *pluginStrategy) Verify(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return s.fail(err, "verification cancelled")
	}
	s.lastErr = nil
	s.result = ""

	if err := s.loadDescriptors(false); err != nil {
		return s.fail(err, "verification failed")
	}

	s.target = s.cfg.TargetAPI
	if err := s.checkTarget(s.target); err != nil {
		return s.fail(err, "verification failed")
	}
	if err := s.locateLicense(); err != nil {
		return s.fail(err, "verification failed")
	}
	if err := metadata.CheckConsistency(s.plugin, s.pkg); err != nil {
		return s.fail(err, "verification failed")
	}

	ext := sourceExtension
	if !s.spec.SourceOnly {
		f, err := s.payloadFilter()
		if err != nil {
			return s.fail(err, "verification failed")
		}
		flavour, err := DetectFlavour(s.payloadDir, f)
		if err != nil {
			return s.fail(fmt.Errorf("detect flavour: %w", err), "verification failed")
		}
		s.flavour = flavour
		ext = flavour.Extension()
	}
	s.result = s.resultPath(PluginFilename(s.plugin.ID, s.plugin.Version, s.target, ext))

	s.log.WithFields(map[string]any{
		"plugin":  s.plugin.ID,
		"payload": s.payloadDir,
		"result":  s.result,
	}).Info("source verified")
	return true
}

// Build stages the payload at the staging root.
func (s *pluginStrategy) Build(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.stagePayload(ctx, s.staging, "")
}

// Bundle writes the archive.
func (s *pluginStrategy) Bundle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := archive.Build(s.staging, s.result, archive.Options{
		Compression: s.compress,
		Convention:  archive.ConventionPlugin,
		RootName:    s.plugin.ID,
	})
	if err != nil {
		return err
	}
	s.log.WithFields(map[string]any{"path": res.Path, "entries": len(res.Entries)}).Info("archive written")
	return nil
}

// Test reopens the archive and checks the plugin layout.
func (s *pluginStrategy) Test(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return s.fail(err, "archive check cancelled")
	}
	listing, err := archive.Inspect(s.result)
	if err != nil {
		return s.fail(err, "archive check failed")
	}

	root := s.plugin.ID + "/"
	if len(listing.Entries) == 0 {
		return s.conventionFailure(root, "archive is empty")
	}
	first := listing.Entries[0]
	if first.Name != root {
		return s.conventionFailure(root, fmt.Sprintf("first entry is %q", first.Name))
	}
	if first.Method != zip.Store {
		return s.conventionFailure(root, "root directory entry must be stored")
	}

	required := []string{
		archive.EntryName(s.plugin.ID, metadata.PluginFile),
		archive.EntryName(s.plugin.ID, licenseName(s.license)),
	}
	for _, name := range required {
		if !listing.Has(name) {
			return s.conventionFailure(name, "missing entry")
		}
	}
	for _, e := range listing.Entries[1:] {
		if !strings.HasPrefix(e.Name, root) {
			return s.conventionFailure(e.Name, "entry outside the plugin root")
		}
	}
	return true
}
