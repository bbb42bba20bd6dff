package format

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Spec is the registry entry for a format tag.
type Spec struct {
	Tag     string
	Kind    Kind
	Summary string
	// Generation is the package SDK generation. Zero for plugin kinds.
	Generation int
	// Prologue writes the OPC entries ahead of the payload.
	Prologue bool
	// SourceOnly forces the source variant, zlib compression and a .zip result.
	SourceOnly bool
}

// Validate checks the entry is internally consistent.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Tag) == "" {
		return fmt.Errorf("format tag is required")
	}
	if strings.EqualFold(s.Tag, config.FormatAll) {
		return fmt.Errorf("format tag %q is reserved", s.Tag)
	}
	switch s.Kind {
	case KindPlugin:
		if s.Generation != 0 || s.Prologue {
			return fmt.Errorf("plugin format %q cannot carry package settings", s.Tag)
		}
	case KindPackage:
		if s.Generation <= 0 {
			return fmt.Errorf("package format %q needs an sdk generation", s.Tag)
		}
		if s.SourceOnly {
			return fmt.Errorf("package format %q cannot be source-only", s.Tag)
		}
	default:
		return fmt.Errorf("format %q has unknown kind %q", s.Tag, s.Kind)
	}
	return nil
}

// Builtin lists the shipped formats in the order "all" expands to.
var Builtin = []Spec{
	{Tag: "package-sdk4", Kind: KindPackage, Generation: 4, Summary: "marketplace package, SDK 4"},
	{Tag: "package-sdk5", Kind: KindPackage, Generation: 5, Prologue: true, Summary: "marketplace package with OPC prologue, SDK 5"},
	{Tag: "package-sdk6", Kind: KindPackage, Generation: 6, Summary: "marketplace package with semantic SDK version, SDK 6"},
	{Tag: "plugin", Kind: KindPlugin, Summary: "installable plugin archive"},
	{Tag: "plugin-source", Kind: KindPlugin, SourceOnly: true, Summary: "source-only plugin archive"},
}

// Registry maps format tags to specs, keeping registration order.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// DefaultRegistry returns a registry holding the builtin formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range Builtin {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a spec. Tags are case-insensitive and unique.
func (r *Registry) Register(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("format spec invalid: %w", err)
	}
	spec.Tag = strings.ToLower(spec.Tag)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.Tag]; exists {
		return fmt.Errorf("format %q already registered", spec.Tag)
	}
	r.specs[spec.Tag] = spec
	r.order = append(r.order, spec.Tag)
	return nil
}

// Lookup returns the spec registered for tag.
func (r *Registry) Lookup(tag string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[strings.ToLower(tag)]
	return spec, ok
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns the registered specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.order))
	for _, tag := range r.order {
		specs = append(specs, r.specs[tag])
	}
	return specs
}

// Resolve expands "all", drops duplicates and maps every tag to its spec.
// The first unknown tag is a ConfigError.
func (r *Registry) Resolve(tags []string) ([]Spec, error) {
	expanded := config.Build{Formats: tags}.ExpandFormats(r.Tags())
	if len(expanded) == 0 {
		return nil, ovenerrors.NewConfigError("format", "no format requested", nil)
	}

	specs := make([]Spec, 0, len(expanded))
	for _, tag := range expanded {
		spec, ok := r.Lookup(tag)
		if !ok {
			return nil, ovenerrors.NewConfigError("format", fmt.Sprintf("unsupported format %q (known: %s)", tag, strings.Join(r.Tags(), ", ")), nil)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// New builds a strategy instance for spec.
func (r *Registry) New(spec Spec, env Env) Strategy {
	if spec.Kind == KindPackage {
		return newPackageStrategy(spec, env)
	}
	return newPluginStrategy(spec, env)
}

// Strategies resolves tags and instantiates one strategy per format.
func (r *Registry) Strategies(tags []string, env Env) ([]Strategy, error) {
	specs, err := r.Resolve(tags)
	if err != nil {
		return nil, err
	}
	strategies := make([]Strategy, 0, len(specs))
	for _, spec := range specs {
		strategies = append(strategies, r.New(spec, env))
	}
	return strategies, nil
}
