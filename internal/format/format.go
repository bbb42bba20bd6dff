// Package format implements the per-format build strategies and the registry
// that maps format tags to them.
package format

import (
	"context"

	"github.com/alexisbeaulieu97/pluginoven/internal/compiler"
	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
)

// Kind separates installable plugin archives from marketplace packages.
type Kind string

const (
	KindPlugin  Kind = "plugin"
	KindPackage Kind = "package"
)

// Strategy drives one output format through the build stages.
type Strategy interface {
	Name() string
	Verify(ctx context.Context) bool
	Prepare(ctx context.Context) error
	Build(ctx context.Context) error
	Bundle(ctx context.Context) error
	Test(ctx context.Context) bool
	Clean(ctx context.Context) error
	ResultPath() string
}

// Env carries what every strategy instance needs besides its Spec.
type Env struct {
	Config config.Build
	// Source is the resolved local source root.
	Source   string
	Compiler compiler.Compiler
	Logger   *logger.Logger
}
