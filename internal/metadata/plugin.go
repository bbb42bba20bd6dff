package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

const (
	// PluginFile is the plugin descriptor name inside the payload directory.
	PluginFile = "plugin.json"

	keyAPI                  = "api"
	keyMinimumAPI           = "minimum_api"
	keySupportedSDKVersions = "supported_sdk_versions"
)

// Plugin is the typed view of plugin.json.
type Plugin struct {
	Name                 string   `json:"name"`
	ID                   string   `json:"id"`
	I18nCatalog          string   `json:"i18n-catalog"`
	Author               string   `json:"author"`
	Email                string   `json:"email"`
	Version              string   `json:"version"`
	Description          string   `json:"description"`
	API                  *int     `json:"api,omitempty" validate:"omitempty,min=0"`
	MinimumAPI           *int     `json:"minimum_api,omitempty" validate:"omitempty,min=0"`
	SupportedSDKVersions []string `json:"supported_sdk_versions,omitempty" validate:"omitempty,dive,sdkversion"`

	Path string   `json:"-"`
	Raw  Document `json:"-"`
}

// LoadPlugin reads plugin.json from path.
func LoadPlugin(path string) (*Plugin, error) {
	var p Plugin
	doc, err := readDocument(path, &p)
	if err != nil {
		return nil, err
	}
	p.Path = path
	p.Raw = doc
	return &p, nil
}

// LoadPluginDir reads the plugin descriptor from a payload directory.
func LoadPluginDir(dir string) (*Plugin, error) {
	return LoadPlugin(filepath.Join(dir, PluginFile))
}

// Validate checks required keys and value formats.
func (p *Plugin) Validate() error {
	if err := ValidateRequired(p.Raw, PluginSchema); err != nil {
		return err
	}
	if err := validatorInstance().Struct(p); err != nil {
		return convertValidationError(err)
	}
	if p.MinimumAPI != nil {
		if p.API == nil {
			return ovenerrors.NewValidationError(keyMinimumAPI, "minimum_api requires api", nil)
		}
		if *p.MinimumAPI > *p.API {
			return ovenerrors.NewValidationError(keyMinimumAPI, fmt.Sprintf("minimum_api %d exceeds api %d", *p.MinimumAPI, *p.API), nil)
		}
	}
	return nil
}

// APIRange is an inclusive range of host API versions.
type APIRange struct {
	Min int
	Max int
}

// Contains reports whether api lies within the range, both ends included.
func (r APIRange) Contains(api int) bool {
	return api >= r.Min && api <= r.Max
}

func (r APIRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Max)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// SupportedRange derives the API range the plugin declares. The second value
// is false when plugin.json has no api key.
func (p *Plugin) SupportedRange() (APIRange, bool) {
	if p.API == nil {
		return APIRange{}, false
	}
	if p.MinimumAPI == nil {
		return APIRange{Min: *p.API, Max: *p.API}, true
	}
	return APIRange{Min: *p.MinimumAPI, Max: *p.API}, true
}

// SupportsAPI reports whether target lies in the declared range. Plugins that
// declare no api accept any target.
func (p *Plugin) SupportsAPI(target int) bool {
	r, ok := p.SupportedRange()
	return !ok || r.Contains(target)
}

// SupportsSDK reports whether supported_sdk_versions names the SDK major.
// An absent list accepts every major.
func (p *Plugin) SupportsSDK(major int) bool {
	if len(p.SupportedSDKVersions) == 0 {
		return true
	}
	for _, v := range p.SupportedSDKVersions {
		if m, err := SDKMajor(v); err == nil && m == major {
			return true
		}
	}
	return false
}

// ShippedDocument returns the descriptor as it goes into the archive: api
// pinned to the target and minimum_api removed.
func (p *Plugin) ShippedDocument(targetAPI int) Document {
	doc := p.Raw.Clone()
	if doc == nil {
		doc = Document{}
	}
	ResolveAPI(doc, targetAPI)
	return doc
}

// ResolveAPI pins api to the target and strips minimum_api.
func ResolveAPI(doc Document, targetAPI int) {
	doc[keyAPI] = targetAPI
	delete(doc, keyMinimumAPI)
}

// Marshal encodes the descriptor after applying transform to a copy of it.
func (p *Plugin) Marshal(transform func(Document)) ([]byte, error) {
	doc := p.Raw.Clone()
	if doc == nil {
		doc = Document{}
	}
	if transform != nil {
		transform(doc)
	}
	return doc.Marshal()
}

// EnsureSupportedSDK adds supported_sdk_versions naming semver when the
// descriptor does not declare the key.
func EnsureSupportedSDK(doc Document, semver string) {
	if _, ok := doc[keySupportedSDKVersions]; ok || semver == "" {
		return
	}
	doc[keySupportedSDKVersions] = []any{semver}
}

// SDKMajor extracts the integer major component of a dotted version.
func SDKMajor(version string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	major, err := strconv.Atoi(head)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("invalid sdk version %q", version)
	}
	return major, nil
}
