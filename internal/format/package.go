package format

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/archive"
	"github.com/alexisbeaulieu97/pluginoven/internal/metadata"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// payloadRoot is where package archives keep plugin payloads.
const payloadRoot = "files/plugins"

// packageStrategy produces a marketplace package for one SDK generation.
type packageStrategy struct {
	base
}

func newPackageStrategy(spec Spec, env Env) *packageStrategy {
	return &packageStrategy{base: newBase(spec, env)}
}

// Verify checks the source can produce a package of this generation.
func (s *packageStrategy) Verify(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return s.fail(err, "verification cancelled")
	}
	s.lastErr = nil
	s.result = ""

	if err := s.loadDescriptors(true); err != nil {
		return s.fail(err, "verification failed")
	}
	if err := s.pkg.Validate(s.spec.Generation); err != nil {
		return s.fail(err, "verification failed")
	}

	s.target = s.spec.Generation
	if err := s.checkTarget(s.target); err != nil {
		return s.fail(err, "verification failed")
	}
	sdk, err := s.pkg.SDKMajorVersion()
	if err != nil {
		return s.fail(err, "verification failed")
	}
	if sdk != s.spec.Generation {
		err := ovenerrors.NewValidationError("sdk_version", fmt.Sprintf("sdk_version %d does not match generation %d", sdk, s.spec.Generation), nil)
		return s.fail(err, "verification failed")
	}
	if err := s.locateLicense(); err != nil {
		return s.fail(err, "verification failed")
	}
	if err := metadata.CheckConsistency(s.plugin, s.pkg); err != nil {
		return s.fail(err, "verification failed")
	}

	s.result = s.resultPath(PackageFilename(s.pkg.PackageID, s.pkg.PackageVersion, s.spec.Generation))
	s.log.WithFields(map[string]any{
		"package": s.pkg.PackageID,
		"payload": s.payloadDir,
		"result":  s.result,
	}).Info("source verified")
	return true
}

func (s *packageStrategy) payloadPrefix() string {
	return archive.EntryName(payloadRoot, s.pkg.PackageID)
}

// Build stages the payload below files/plugins/<id> and the package descriptor at the root.
func (s *packageStrategy) Build(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.pkg == nil {
		return fmt.Errorf("%s: build requires a verified source", s.spec.Tag)
	}

	semver := ""
	if s.spec.Generation >= metadata.SemverGeneration {
		semver = s.pkg.SDKVersionSemver
	}
	dst := filepath.Join(s.staging, filepath.FromSlash(s.payloadPrefix()))
	if err := s.stagePayload(ctx, dst, semver); err != nil {
		return err
	}

	doc := s.pkg.ShippedDocument(s.spec.Generation)
	if err := doc.Write(filepath.Join(s.staging, metadata.PackageFile)); err != nil {
		return fmt.Errorf("stage package descriptor: %w", err)
	}
	return nil
}

// Bundle writes the package archive.
func (s *packageStrategy) Bundle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := archive.Build(s.staging, s.result, archive.Options{
		Compression: s.compress,
		Convention:  archive.ConventionPackage,
		Prologue:    s.spec.Prologue,
	})
	if err != nil {
		return err
	}
	s.log.WithFields(map[string]any{"path": res.Path, "entries": len(res.Entries)}).Info("archive written")
	return nil
}

// Test reopens the archive and checks the package layout.
func (s *packageStrategy) Test(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return s.fail(err, "archive check cancelled")
	}
	listing, err := archive.Inspect(s.result)
	if err != nil {
		return s.fail(err, "archive check failed")
	}

	names := listing.Names()
	allowed := map[string]bool{metadata.PackageFile: true}
	if s.spec.Prologue {
		prologue := archive.PrologueEntries()
		for i, want := range prologue {
			if i >= len(names) || names[i] != want {
				return s.conventionFailure(want, fmt.Sprintf("prologue entry %d missing", i))
			}
			allowed[want] = true
		}
	}

	prefix := s.payloadPrefix()
	required := []string{
		metadata.PackageFile,
		archive.EntryName(prefix, metadata.PluginFile),
		archive.EntryName(prefix, licenseName(s.license)),
	}
	for _, name := range required {
		if !listing.Has(name) {
			return s.conventionFailure(name, "missing entry")
		}
	}
	for _, name := range names {
		if allowed[name] {
			continue
		}
		if !strings.HasPrefix(name, prefix+"/") {
			return s.conventionFailure(name, "entry outside "+prefix)
		}
	}
	return true
}

func licenseName(path string) string {
	if path == "" {
		return LicenseNames[0]
	}
	return filepath.Base(path)
}
