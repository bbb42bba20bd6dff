package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

const (
	// PackageFile is the package descriptor name at the package root.
	PackageFile = "package.json"

	// PluginPackageType is the only package_type a plugin build produces.
	PluginPackageType = "plugin"

	keyTags             = "tags"
	keySDKVersion       = "sdk_version"
	keySDKVersionSemver = "sdk_version_semver"
)

// Author is the nested author object of package.json.
type Author struct {
	AuthorID    string `json:"author_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Website     string `json:"website"`
}

// Package is the typed view of package.json.
type Package struct {
	PackageID        string   `json:"package_id"`
	PackageType      string   `json:"package_type"`
	DisplayName      string   `json:"display_name"`
	Description      string   `json:"description"`
	PackageVersion   string   `json:"package_version"`
	SDKVersion       any      `json:"sdk_version"`
	SDKVersionSemver string   `json:"sdk_version_semver,omitempty" validate:"omitempty,sdkversion"`
	Website          string   `json:"website"`
	Tags             []string `json:"tags,omitempty"`
	Author           Author   `json:"author"`

	Path string   `json:"-"`
	Raw  Document `json:"-"`
}

// LoadPackage reads package.json from path.
func LoadPackage(path string) (*Package, error) {
	var p Package
	doc, err := readDocument(path, &p)
	if err != nil {
		return nil, err
	}
	p.Path = path
	p.Raw = doc
	return &p, nil
}

// LoadPackageDir reads the package descriptor from a directory.
func LoadPackageDir(dir string) (*Package, error) {
	return LoadPackage(filepath.Join(dir, PackageFile))
}

// Dir is the directory holding package.json.
func (p *Package) Dir() string {
	return filepath.Dir(p.Path)
}

// Validate checks the descriptor against the schema of an SDK generation.
func (p *Package) Validate(generation int) error {
	if err := ValidateRequired(p.Raw, PackageSchema(generation)); err != nil {
		return err
	}
	if err := validatorInstance().Struct(p); err != nil {
		return convertValidationError(err)
	}

	sdk, err := p.SDKMajorVersion()
	if err != nil {
		return err
	}
	if p.SDKVersionSemver != "" {
		semverMajor, err := SDKMajor(p.SDKVersionSemver)
		if err != nil {
			return ovenerrors.NewValidationError(keySDKVersionSemver, err.Error(), err)
		}
		if semverMajor != sdk {
			return ovenerrors.NewValidationError(keySDKVersion,
				fmt.Sprintf("sdk_version %d does not match sdk_version_semver %s", sdk, p.SDKVersionSemver), nil)
		}
	}
	return nil
}

// SDKMajorVersion returns sdk_version, which must be a plain JSON integer.
func (p *Package) SDKMajorVersion() (int, error) {
	switch v := p.SDKVersion.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil || n < 0 {
			return 0, ovenerrors.NewValidationError(keySDKVersion, fmt.Sprintf("sdk_version %s is not a non-negative integer", v), err)
		}
		return int(n), nil
	case nil:
		return 0, ovenerrors.NewValidationError(keySDKVersion, "missing required field", nil)
	default:
		return 0, ovenerrors.NewValidationError(keySDKVersion, fmt.Sprintf("sdk_version must be an integer, got %v", v), nil)
	}
}

// ShippedDocument returns the descriptor as it goes into the archive for a generation.
func (p *Package) ShippedDocument(generation int) Document {
	doc := p.Raw.Clone()
	if doc == nil {
		doc = Document{}
	}
	if generation >= SemverGeneration {
		delete(doc, keyTags)
	}
	return doc
}

// CheckConsistency verifies that plugin.json and package.json describe the same plugin.
func CheckConsistency(plugin *Plugin, pkg *Package) error {
	if plugin == nil || pkg == nil {
		return nil
	}
	checks := []struct {
		field    string
		got      string
		expected string
	}{
		{"package_type", pkg.PackageType, PluginPackageType},
		{"package_id", pkg.PackageID, plugin.ID},
		{"display_name", pkg.DisplayName, plugin.Name},
		{"package_version", pkg.PackageVersion, plugin.Version},
	}
	for _, c := range checks {
		if c.got != c.expected {
			return ovenerrors.NewValidationError(c.field, fmt.Sprintf("package.json has %q, expected %q", c.got, c.expected), nil)
		}
	}
	return nil
}
